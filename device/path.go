// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"math"

	"github.com/sassoftware/viya-pdf-view/geom"
)

// PathOp is a path construction operator.
type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
	CurveTo
	ClosePath
)

// A Path is a sequence of subpaths in user space.
// MoveTo and LineTo consume one point, CurveTo three, ClosePath none.
type Path struct {
	Ops []PathOp
	Pts []geom.Point

	cur, start geom.Point
}

// MoveTo starts a new subpath.
func (p *Path) MoveTo(x, y float64) {
	p.Ops = append(p.Ops, MoveTo)
	p.Pts = append(p.Pts, geom.Point{X: x, Y: y})
	p.cur = geom.Point{X: x, Y: y}
	p.start = p.cur
}

// LineTo appends a straight segment.
func (p *Path) LineTo(x, y float64) {
	if len(p.Ops) == 0 {
		p.MoveTo(x, y)
		return
	}
	p.Ops = append(p.Ops, LineTo)
	p.Pts = append(p.Pts, geom.Point{X: x, Y: y})
	p.cur = geom.Point{X: x, Y: y}
}

// CurveTo appends a cubic Bézier segment.
func (p *Path) CurveTo(x1, y1, x2, y2, x3, y3 float64) {
	if len(p.Ops) == 0 {
		p.MoveTo(x1, y1)
	}
	p.Ops = append(p.Ops, CurveTo)
	p.Pts = append(p.Pts, geom.Point{X: x1, Y: y1}, geom.Point{X: x2, Y: y2}, geom.Point{X: x3, Y: y3})
	p.cur = geom.Point{X: x3, Y: y3}
}

// Current is the current point.
func (p *Path) Current() geom.Point { return p.cur }

// Close closes the current subpath.
func (p *Path) Close() {
	if len(p.Ops) == 0 {
		return
	}
	p.Ops = append(p.Ops, ClosePath)
	p.cur = p.start
}

// Rect appends a closed rectangle subpath.
func (p *Path) Rect(x, y, w, h float64) {
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h)
	p.LineTo(x, y+h)
	p.Close()
}

// Empty reports whether the path has no segments.
func (p *Path) Empty() bool { return len(p.Ops) == 0 }

// Reset clears the path for reuse.
func (p *Path) Reset() {
	p.Ops = p.Ops[:0]
	p.Pts = p.Pts[:0]
	p.cur, p.start = geom.Point{}, geom.Point{}
}

// Bounds is the bounding box of the path's points under ctm.
// Curve control points are included, so the box may be slightly loose.
func (p *Path) Bounds(ctm geom.Matrix) geom.Rect {
	if len(p.Pts) == 0 {
		return geom.Rect{}
	}
	r := geom.Rect{X0: math.Inf(1), Y0: math.Inf(1), X1: math.Inf(-1), Y1: math.Inf(-1)}
	for _, pt := range p.Pts {
		q := ctm.Transform(pt)
		r.X0 = math.Min(r.X0, q.X)
		r.Y0 = math.Min(r.Y0, q.Y)
		r.X1 = math.Max(r.X1, q.X)
		r.Y1 = math.Max(r.Y1, q.Y)
	}
	return r
}

// Flatten walks the path under ctm, replacing curves with line segments.
// Each subpath is reported as a polyline; closed reports a ClosePath.
func (p *Path) Flatten(ctm geom.Matrix, tolerance float64, fn func(pts []geom.Point, closed bool)) {
	if tolerance <= 0 {
		tolerance = 0.25
	}
	var poly []geom.Point
	flush := func(closed bool) {
		if len(poly) > 1 {
			fn(poly, closed)
		}
		poly = nil
	}
	i := 0
	for _, op := range p.Ops {
		switch op {
		case MoveTo:
			flush(false)
			poly = append(poly, ctm.Transform(p.Pts[i]))
			i++
		case LineTo:
			poly = append(poly, ctm.Transform(p.Pts[i]))
			i++
		case CurveTo:
			var p0 geom.Point
			if len(poly) > 0 {
				p0 = poly[len(poly)-1]
			}
			p1 := ctm.Transform(p.Pts[i])
			p2 := ctm.Transform(p.Pts[i+1])
			p3 := ctm.Transform(p.Pts[i+2])
			i += 3
			poly = appendCubic(poly, p0, p1, p2, p3, tolerance)
		case ClosePath:
			if len(poly) > 0 {
				start := poly[0]
				flush(true)
				poly = append(poly, start)
			}
		}
	}
	flush(false)
}

func appendCubic(dst []geom.Point, p0, p1, p2, p3 geom.Point, tol float64) []geom.Point {
	dd := math.Hypot(p1.X-p0.X, p1.Y-p0.Y) + math.Hypot(p2.X-p1.X, p2.Y-p1.Y) + math.Hypot(p3.X-p2.X, p3.Y-p2.Y)
	n := int(math.Ceil(math.Sqrt(dd / tol)))
	if n < 1 {
		n = 1
	}
	if n > 256 {
		n = 256
	}
	for k := 1; k <= n; k++ {
		t := float64(k) / float64(n)
		u := 1 - t
		a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
		dst = append(dst, geom.Point{
			X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
			Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
		})
	}
	return dst
}
