// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"testing"

	"github.com/sassoftware/viya-pdf-view/geom"
	"github.com/stretchr/testify/assert"
)

func TestPathRectAndBounds(t *testing.T) {
	var p Path
	p.Rect(10, 20, 30, 40)
	assert.Equal(t, []PathOp{MoveTo, LineTo, LineTo, LineTo, ClosePath}, p.Ops)
	assert.Equal(t, geom.Rect{X0: 10, Y0: 20, X1: 40, Y1: 60}, p.Bounds(geom.Identity))
	assert.Equal(t, geom.Point{X: 10, Y: 20}, p.Current(), "close returns to the subpath start")

	p.Reset()
	assert.True(t, p.Empty())
	assert.Equal(t, geom.Rect{}, p.Bounds(geom.Identity))
}

func TestPathFlatten(t *testing.T) {
	var p Path
	p.MoveTo(0, 0)
	p.CurveTo(0, 10, 10, 10, 10, 0)
	p.Close()

	var polys [][]geom.Point
	var closed []bool
	p.Flatten(geom.Scale(2, 2), 0.25, func(pts []geom.Point, c bool) {
		polys = append(polys, append([]geom.Point(nil), pts...))
		closed = append(closed, c)
	})
	if assert.Len(t, polys, 1) {
		pts := polys[0]
		assert.Greater(t, len(pts), 4, "curve should be subdivided")
		assert.Equal(t, geom.Point{}, pts[0])
		assert.InDelta(t, 20, pts[len(pts)-1].X, 1e-9)
		assert.InDelta(t, 0, pts[len(pts)-1].Y, 1e-9)
		assert.True(t, closed[0])
	}
}

func TestGlyphBounds(t *testing.T) {
	g := Glyph{Rune: 'A', Trm: geom.Scale(10, 10).Concat(geom.Translate(100, 50)), Advance: 0.6}
	b := g.Bounds()
	assert.InDelta(t, 100, b.X0, 1e-9)
	assert.InDelta(t, 106, b.X1, 1e-9)
	assert.InDelta(t, 48, b.Y0, 1e-9)
	assert.InDelta(t, 58, b.Y1, 1e-9)
}
