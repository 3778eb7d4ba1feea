// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/sassoftware/viya-pdf-view/device"
	"github.com/sassoftware/viya-pdf-view/geom"
	"github.com/sassoftware/viya-pdf-view/logger"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"
)

// flatness is the curve flattening tolerance in device pixels.
const flatness = 0.25

// DrawDevice paints into a Pixmap. Matrices it receives map into device
// space, so the pixmap origin is subtracted from every coordinate.
//
// Fills always use the nonzero winding rule. Strokes have butt caps and
// square joins and ignore dash patterns. Clipping is not applied.
type DrawDevice struct {
	pix   *Pixmap
	cache *GlyphCache
	hints device.Hints
	z     *vector.Rasterizer

	warnedEvenOdd bool
}

var _ device.Device = (*DrawDevice)(nil)

// NewDrawDevice returns a device painting into p. cache may be nil, in
// which case glyphs are not painted.
func NewDrawDevice(p *Pixmap, cache *GlyphCache, hints device.Hints) *DrawDevice {
	return &DrawDevice{
		pix:   p,
		cache: cache,
		hints: hints,
		z:     vector.NewRasterizer(p.W, p.H),
	}
}

// Hints implements device.Device.
func (d *DrawDevice) Hints() device.Hints { return d.hints }

func (d *DrawDevice) visible(r geom.Rect) bool {
	pr := geom.Rect{X0: float64(d.pix.X), Y0: float64(d.pix.Y), X1: float64(d.pix.X + d.pix.W), Y1: float64(d.pix.Y + d.pix.H)}
	return !r.Intersect(pr).IsEmpty()
}

func (d *DrawDevice) local(p geom.Point) (float32, float32) {
	return float32(p.X - float64(d.pix.X)), float32(p.Y - float64(d.pix.Y))
}

func (d *DrawDevice) paint(c color.NRGBA) {
	d.z.Draw(d.pix.img, d.pix.img.Bounds(), image.NewUniform(c), image.Point{})
}

// FillPath implements device.Device.
func (d *DrawDevice) FillPath(p *device.Path, evenOdd bool, ctm geom.Matrix, c color.NRGBA) {
	if p.Empty() || c.A == 0 || !d.visible(p.Bounds(ctm)) {
		return
	}
	if evenOdd && !d.warnedEvenOdd {
		logger.Debug("raster: even-odd fill painted with the nonzero rule")
		d.warnedEvenOdd = true
	}
	d.z.Reset(d.pix.W, d.pix.H)
	p.Flatten(ctm, flatness, func(pts []geom.Point, _ bool) {
		d.z.MoveTo(d.local(pts[0]))
		for _, q := range pts[1:] {
			d.z.LineTo(d.local(q))
		}
		d.z.ClosePath()
	})
	d.paint(c)
}

// StrokePath implements device.Device. Line widths below one device pixel
// are drawn one pixel wide.
func (d *DrawDevice) StrokePath(p *device.Path, lineWidth float64, ctm geom.Matrix, c color.NRGBA) {
	if p.Empty() || c.A == 0 {
		return
	}
	hw := math.Max(lineWidth*ctm.Expansion(), 1) / 2
	if !d.visible(p.Bounds(ctm).Expand(hw)) {
		return
	}
	d.z.Reset(d.pix.W, d.pix.H)
	p.Flatten(ctm, flatness, func(pts []geom.Point, closed bool) {
		n := len(pts)
		for i := 0; i+1 < n; i++ {
			d.segment(pts[i], pts[i+1], hw)
		}
		if closed {
			d.segment(pts[n-1], pts[0], hw)
		}
		for i, q := range pts {
			if closed || (i > 0 && i < n-1) {
				d.join(q, hw)
			}
		}
	})
	d.paint(c)
}

// segment adds the rectangle around a-b. Every polygon is wound the same
// way so overlaps saturate instead of cancelling.
func (d *DrawDevice) segment(a, b geom.Point, hw float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l*hw, dx/l*hw
	d.z.MoveTo(d.local(geom.Point{X: a.X + nx, Y: a.Y + ny}))
	d.z.LineTo(d.local(geom.Point{X: b.X + nx, Y: b.Y + ny}))
	d.z.LineTo(d.local(geom.Point{X: b.X - nx, Y: b.Y - ny}))
	d.z.LineTo(d.local(geom.Point{X: a.X - nx, Y: a.Y - ny}))
	d.z.ClosePath()
}

func (d *DrawDevice) join(q geom.Point, hw float64) {
	d.z.MoveTo(d.local(geom.Point{X: q.X - hw, Y: q.Y + hw}))
	d.z.LineTo(d.local(geom.Point{X: q.X + hw, Y: q.Y + hw}))
	d.z.LineTo(d.local(geom.Point{X: q.X + hw, Y: q.Y - hw}))
	d.z.LineTo(d.local(geom.Point{X: q.X - hw, Y: q.Y - hw}))
	d.z.ClosePath()
}

// ShowGlyph implements device.Device.
func (d *DrawDevice) ShowGlyph(g device.Glyph, c color.NRGBA) {
	if g.Invisible || d.cache == nil || c.A == 0 || !d.visible(g.Bounds()) {
		return
	}
	mask, at, ok := d.cache.Mask(g.Rune, g.Trm)
	if !ok {
		return
	}
	at = at.Sub(image.Pt(d.pix.X, d.pix.Y))
	draw.DrawMask(d.pix.img, mask.Bounds().Add(at), image.NewUniform(c), image.Point{}, mask, image.Point{}, draw.Over)
}

// FillImage implements device.Device. The image's top row lands on the
// edge of the unit square at y = 1.
func (d *DrawDevice) FillImage(img image.Image, ctm geom.Matrix) {
	if d.hints&device.IgnoreImages != 0 {
		return
	}
	sr := img.Bounds()
	if sr.Empty() || !d.visible(ctm.TransformRect(geom.Rect{X1: 1, Y1: 1})) {
		return
	}
	if math.Abs(ctm[0]*ctm[3]-ctm[1]*ctm[2]) < 1e-9 {
		return
	}
	w, h := float64(sr.Dx()), float64(sr.Dy())
	a, b := ctm[0]/w, -ctm[2]/h
	c, e := ctm[1]/w, -ctm[3]/h
	mx, my := float64(sr.Min.X), float64(sr.Min.Y)
	s2d := f64.Aff3{
		a, b, ctm[2] + ctm[4] - float64(d.pix.X) - a*mx - b*my,
		c, e, ctm[3] + ctm[5] - float64(d.pix.Y) - c*mx - e*my,
	}
	draw.BiLinear.Transform(d.pix.img, s2d, img, sr, draw.Over, nil)
}
