// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfview

import (
	"testing"

	"github.com/sassoftware/viya-pdf-view/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitWidthZoom(t *testing.T) {
	tests := []struct {
		page, viewport int
		want           int
	}{
		{612, 1224, 2000},
		{600, 800, 1333},
		{800, 600, 1000},
		{600, 600, 1000},
		{0, 600, 1000},
		{600, 0, 1000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FitWidthZoom(tt.page, tt.viewport), "page %d viewport %d", tt.page, tt.viewport)
	}
}

func TestAutoRotation(t *testing.T) {
	assert.Equal(t, 90, AutoRotation(792, 612, true))
	assert.Equal(t, 0, AutoRotation(792, 612, false))
	assert.Equal(t, 0, AutoRotation(612, 792, true))
	assert.Equal(t, 0, AutoRotation(500, 500, true))
}

func TestTileGrid(t *testing.T) {
	grid := TileGrid(100, 200, 1000, 3, 2)
	require.Len(t, grid, 6)

	want := []struct{ left, top, w, h int }{
		{0, 0, 33, 100}, {33, 0, 33, 100}, {66, 0, 34, 100},
		{0, 100, 33, 100}, {33, 100, 33, 100}, {66, 100, 34, 100},
	}
	for i, w := range want {
		g := grid[i]
		assert.Equal(t, w.left, g.Left, "tile %d", i)
		assert.Equal(t, w.top, g.Top, "tile %d", i)
		assert.Equal(t, w.w, g.Width, "tile %d", i)
		assert.Equal(t, w.h, g.Height, "tile %d", i)
		assert.Equal(t, 1000, g.ZoomPerMille)
	}
}

func TestTileGrid_CoversPageExactly(t *testing.T) {
	tests := []struct {
		w, h, zoom, cols, rows int
	}{
		{612, 792, 1000, 2, 2},
		{612, 792, 1500, 3, 5},
		{595, 842, 333, 4, 4},
		{10, 10, 1000, 20, 20},
		{100, 50, 2000, 1, 1},
	}
	for _, tt := range tests {
		grid := TileGrid(tt.w, tt.h, tt.zoom, tt.cols, tt.rows)
		zw, zh := tt.w*tt.zoom/1000, tt.h*tt.zoom/1000

		covered := make([]int, zw*zh)
		for _, g := range grid {
			for y := g.Top; y < g.Top+g.Height; y++ {
				for x := g.Left; x < g.Left+g.Width; x++ {
					covered[y*zw+x]++
				}
			}
		}
		for i, n := range covered {
			if !assert.Equal(t, 1, n, "%+v: pixel %d,%d", tt, i%zw, i/zw) {
				break
			}
		}
	}
}

func TestTileGrid_Degenerate(t *testing.T) {
	assert.Nil(t, TileGrid(100, 100, 1000, 0, 2))
	assert.Nil(t, TileGrid(100, 100, 1000, 2, -1))
	assert.Nil(t, TileGrid(100, 100, 0, 2, 2))
}

func TestRenderPage(t *testing.T) {
	doc := openFake(t, nil, newFakeDoc(1))
	defer doc.Close()

	tiles, err := doc.RenderPage(0, 100, 0, true, 2, 2)
	require.NoError(t, err)
	require.Len(t, tiles, 4)
	assert.Equal(t, geom.IRect{X0: 0, Y0: 0, X1: 5, Y1: 10}, tiles[0].Rect)
	assert.Equal(t, geom.IRect{X0: 5, Y0: 0, X1: 10, Y1: 10}, tiles[1].Rect)
	assert.Equal(t, geom.IRect{X0: 0, Y0: 10, X1: 5, Y1: 20}, tiles[2].Rect)
	assert.Equal(t, geom.IRect{X0: 5, Y0: 10, X1: 10, Y1: 20}, tiles[3].Rect)
	for _, tile := range tiles {
		assert.True(t, tile.Gray)
	}
}

func TestRenderPage_Rotated(t *testing.T) {
	doc := openFake(t, nil, newFakeDoc(1))
	defer doc.Close()

	tiles, err := doc.RenderPage(0, 100, 90, false, 2, 1)
	require.NoError(t, err)
	require.Len(t, tiles, 2)
	for _, tile := range tiles {
		assert.Equal(t, 10, tile.Width)
		assert.Equal(t, 10, tile.Height)
	}
	assert.Equal(t, geom.IRect{X0: -20, Y0: 0, X1: -10, Y1: 10}, tiles[0].Rect)
}

func TestRenderPage_Errors(t *testing.T) {
	doc := openFake(t, nil, newFakeDoc(1))
	defer doc.Close()

	_, err := doc.RenderPage(0, 100, 0, false, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = doc.RenderPage(3, 100, 0, false, 1, 1)
	assert.ErrorIs(t, err, ErrGeometry)
}
