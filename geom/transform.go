// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package geom

import "math"

// ZoomFromPerMille converts a per-mille zoom (1000 = 100%) to a scale factor.
func ZoomFromPerMille(pm int) float64 {
	return float64(pm) / 1000.0
}

// NormalizeRotation reduces deg to one of 0, 90, 180 or 270.
// Angles that are not quarter turns snap to the nearest one.
func NormalizeRotation(deg int) int {
	q := int(math.Round(float64(deg) / 90))
	q %= 4
	if q < 0 {
		q += 4
	}
	return q * 90
}

// PageTransform maps document space inside box to device space at the given
// zoom and rotation: the box's top-left corner (X0, Y1) goes to the origin,
// y is flipped to grow downwards, and the rotation is applied last.
func PageTransform(box Rect, rotation int, zoom float64) Matrix {
	box = box.Normalize()
	ctm := Translate(-box.X0, -box.Y1)
	ctm = ctm.Concat(Scale(zoom, -zoom))
	if r := NormalizeRotation(rotation); r != 0 {
		ctm = ctm.Concat(Rotate(float64(r)))
	}
	return ctm
}

// PageBounds is the device-space bounding box of box under ctm, snapped to pixels.
func PageBounds(ctm Matrix, box Rect) IRect {
	return ctm.TransformRect(box.Normalize()).Round()
}

// TileRect places a width x height window at (left, top) relative to the
// top-left corner of the transformed page bounds.
func TileRect(full IRect, left, top, width, height int) IRect {
	x0 := full.X0 + left
	y0 := full.Y0 + top
	return IRect{X0: x0, Y0: y0, X1: x0 + width, Y1: y0 + height}
}

// BoxToDevice maps a glyph box given in page-native coordinates to the
// unzoomed device space of the page: origin at the page box's top-left
// corner, y growing downwards. A non-zero page rotation is undone on both
// rectangles before the axis flip.
func BoxToDevice(glyph, page Rect, rotate int) Rect {
	if rotate = NormalizeRotation(rotate); rotate != 0 {
		m := Rotate(float64(-rotate))
		glyph = m.TransformRect(glyph)
		page = m.TransformRect(page)
	}
	height := math.Abs(page.Y0 - page.Y1)
	px := math.Min(page.X0, page.X1)
	py := math.Min(page.Y0, page.Y1)
	return Rect{
		X0: math.Min(glyph.X0, glyph.X1) - px,
		Y0: height - (math.Max(glyph.Y0, glyph.Y1) - py),
		X1: math.Max(glyph.X0, glyph.X1) - px,
		Y1: height - (math.Min(glyph.Y0, glyph.Y1) - py),
	}
}

// PointToDevice is BoxToDevice for a single point.
func PointToDevice(p Point, page Rect, rotate int) Point {
	if rotate = NormalizeRotation(rotate); rotate != 0 {
		m := Rotate(float64(-rotate))
		page = m.TransformRect(page)
		p = m.Transform(p)
	}
	return Point{
		X: p.X - math.Min(page.X0, page.X1),
		Y: math.Max(page.Y0, page.Y1) - p.Y,
	}
}

// MarkerRect snaps r outwards to whole pixels and grows it by margin on every side.
func MarkerRect(r Rect, margin int) IRect {
	r = r.Normalize()
	return IRect{
		X0: int(math.Floor(r.X0)) - margin,
		Y0: int(math.Floor(r.Y0)) - margin,
		X1: int(math.Ceil(r.X1)) + margin,
		Y1: int(math.Ceil(r.Y1)) + margin,
	}
}
