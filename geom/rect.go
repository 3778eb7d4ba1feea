// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package geom

import (
	"fmt"
	"image"
	"math"
)

// A Point is an X, Y pair.
type Point struct {
	X, Y float64
}

// A Rect is a rectangle given by two corners. A normalized Rect has X0 <= X1 and Y0 <= Y1.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Infinite is used as the "no clip" rectangle.
var Infinite = Rect{math.Inf(-1), math.Inf(-1), math.Inf(1), math.Inf(1)}

// IsInfinite reports whether r is unbounded.
func (r Rect) IsInfinite() bool {
	return math.IsInf(r.X0, -1) || math.IsInf(r.X1, 1)
}

// Normalize returns r with its corners ordered.
func (r Rect) Normalize() Rect {
	if r.X0 > r.X1 {
		r.X0, r.X1 = r.X1, r.X0
	}
	if r.Y0 > r.Y1 {
		r.Y0, r.Y1 = r.Y1, r.Y0
	}
	return r
}

// Width is |X1-X0|.
func (r Rect) Width() float64 { return math.Abs(r.X1 - r.X0) }

// Height is |Y1-Y0|.
func (r Rect) Height() float64 { return math.Abs(r.Y1 - r.Y0) }

// IsEmpty reports whether r covers no area.
func (r Rect) IsEmpty() bool {
	return r.X0 >= r.X1 || r.Y0 >= r.Y1
}

// Expand grows r by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{r.X0 - d, r.Y0 - d, r.X1 + d, r.Y1 + d}
}

// Union returns the smallest rectangle containing r and s. An empty r yields s.
func (r Rect) Union(s Rect) Rect {
	if r.IsEmpty() {
		return s
	}
	if s.IsEmpty() {
		return r
	}
	return Rect{math.Min(r.X0, s.X0), math.Min(r.Y0, s.Y0), math.Max(r.X1, s.X1), math.Max(r.Y1, s.Y1)}
}

// Intersect returns the overlap of r and s, which may be empty.
func (r Rect) Intersect(s Rect) Rect {
	out := Rect{math.Max(r.X0, s.X0), math.Max(r.Y0, s.Y0), math.Min(r.X1, s.X1), math.Min(r.Y1, s.Y1)}
	if out.IsEmpty() {
		return Rect{}
	}
	return out
}

// Round returns the smallest integer rectangle covering r.
func (r Rect) Round() IRect {
	return IRect{
		X0: int(math.Floor(r.X0 + 0.001)),
		Y0: int(math.Floor(r.Y0 + 0.001)),
		X1: int(math.Ceil(r.X1 - 0.001)),
		Y1: int(math.Ceil(r.Y1 - 0.001)),
	}
}

func (r Rect) String() string {
	return fmt.Sprintf("[%g %g %g %g]", r.X0, r.Y0, r.X1, r.Y1)
}

// An IRect is a rectangle in whole device pixels.
type IRect struct {
	X0, Y0, X1, Y1 int
}

// Width is X1-X0.
func (r IRect) Width() int { return r.X1 - r.X0 }

// Height is Y1-Y0.
func (r IRect) Height() int { return r.Y1 - r.Y0 }

// Image converts r to an image.Rectangle.
func (r IRect) Image() image.Rectangle {
	return image.Rect(r.X0, r.Y0, r.X1, r.Y1)
}

func (r IRect) String() string {
	return fmt.Sprintf("[%d %d %d %d]", r.X0, r.Y0, r.X1, r.Y1)
}
