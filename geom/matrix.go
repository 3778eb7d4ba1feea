// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package geom holds the affine geometry shared by the viewer: matrices,
// rectangles, and the mapping between document space (y up, unscaled) and
// device space (pixels, y down).
package geom

import (
	"errors"
	"math"
)

// Matrix is a 2D affine transform stored as [a b c d e f]:
//
//	[a b 0]
//	[c d 0]
//	[e f 1]
//
// Points are row vectors, so x' = a*x + c*y + e and y' = b*x + d*y + f.
type Matrix [6]float64

// Identity is the identity transform.
var Identity = Matrix{1, 0, 0, 1, 0, 0}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// Scale returns a scaling matrix.
func Scale(sx, sy float64) Matrix {
	return Matrix{sx, 0, 0, sy, 0, 0}
}

// Rotate returns a rotation by deg degrees. Quarter turns are exact.
func Rotate(deg float64) Matrix {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	switch d {
	case 0:
		return Identity
	case 90:
		return Matrix{0, 1, -1, 0, 0, 0}
	case 180:
		return Matrix{-1, 0, 0, -1, 0, 0}
	case 270:
		return Matrix{0, -1, 1, 0, 0, 0}
	}
	s, c := math.Sincos(d * math.Pi / 180)
	return Matrix{c, s, -s, c, 0, 0}
}

// Concat returns the transform that applies m first and then n.
func (m Matrix) Concat(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

// Transform applies m to p.
func (m Matrix) Transform(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// TransformVector applies m to (dx, dy) without the translation part.
func (m Matrix) TransformVector(dx, dy float64) (float64, float64) {
	return m[0]*dx + m[2]*dy, m[1]*dx + m[3]*dy
}

// TransformRect returns the bounding box of r's four corners under m.
func (m Matrix) TransformRect(r Rect) Rect {
	if r.IsInfinite() {
		return r
	}
	p1 := m.Transform(Point{r.X0, r.Y0})
	p2 := m.Transform(Point{r.X0, r.Y1})
	p3 := m.Transform(Point{r.X1, r.Y0})
	p4 := m.Transform(Point{r.X1, r.Y1})
	return Rect{
		X0: math.Min(math.Min(p1.X, p2.X), math.Min(p3.X, p4.X)),
		Y0: math.Min(math.Min(p1.Y, p2.Y), math.Min(p3.Y, p4.Y)),
		X1: math.Max(math.Max(p1.X, p2.X), math.Max(p3.X, p4.X)),
		Y1: math.Max(math.Max(p1.Y, p2.Y), math.Max(p3.Y, p4.Y)),
	}
}

// ErrSingular is returned when inverting a matrix with a zero determinant.
var ErrSingular = errors.New("geom: singular matrix")

// Invert returns the inverse of m.
func (m Matrix) Invert() (Matrix, error) {
	det := m[0]*m[3] - m[1]*m[2]
	if math.Abs(det) < 1e-12 {
		return Matrix{}, ErrSingular
	}
	return Matrix{
		m[3] / det,
		-m[1] / det,
		-m[2] / det,
		m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det,
		(m[1]*m[4] - m[0]*m[5]) / det,
	}, nil
}

// Expansion is the average scale factor of m, used to size stroke widths.
func (m Matrix) Expansion() float64 {
	return math.Sqrt(math.Abs(m[0]*m[3] - m[1]*m[2]))
}

// IsRectilinear reports whether m maps axis-aligned rectangles to axis-aligned rectangles.
func (m Matrix) IsRectilinear() bool {
	return (m[1] == 0 && m[2] == 0) || (m[0] == 0 && m[3] == 0)
}
