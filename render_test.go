// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfview

import (
	"image/color"
	"testing"

	"github.com/sassoftware/viya-pdf-view/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTile_InvalidArguments(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.MaxTilePixels = 100

	tests := []struct {
		name string
		req  TileRequest
	}{
		{"zero width", TileRequest{ZoomPerMille: 1000, Width: 0, Height: 10}},
		{"negative height", TileRequest{ZoomPerMille: 1000, Width: 10, Height: -1}},
		{"zero zoom", TileRequest{ZoomPerMille: 0, Width: 10, Height: 10}},
		{"negative zoom", TileRequest{ZoomPerMille: -500, Width: 10, Height: 10}},
		{"too many pixels", TileRequest{ZoomPerMille: 1000, Width: 11, Height: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fd := newFakeDoc(1)
			doc := openFake(t, cfg, fd)
			defer doc.Close()

			tile, err := doc.RenderTile(tt.req)
			assert.Nil(t, tile)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Empty(t, fd.events)
		})
	}
}

func TestRenderTile_PageOutOfRange(t *testing.T) {
	doc := openFake(t, nil, newFakeDoc(1))
	defer doc.Close()
	_, err := doc.RenderTile(TileRequest{Page: 1, ZoomPerMille: 1000, Width: 1, Height: 1})
	assert.ErrorIs(t, err, ErrGeometry)
}

func TestRenderTile_Failures(t *testing.T) {
	t.Run("page load", func(t *testing.T) {
		fd := newFakeDoc(2)
		fd.failLoad[0] = true
		doc := openFake(t, nil, fd)
		defer doc.Close()

		_, err := doc.RenderTile(TileRequest{Page: 0, ZoomPerMille: 100, Width: 5, Height: 5})
		assert.ErrorIs(t, err, ErrPageLoad)

		_, err = doc.RenderTile(TileRequest{Page: 1, ZoomPerMille: 100, Width: 5, Height: 5})
		assert.NoError(t, err, "handle stays usable")
	})
	t.Run("glyph cache", func(t *testing.T) {
		fd := newFakeDoc(1)
		fd.glyphErr = errFake
		doc := openFake(t, nil, fd)
		defer doc.Close()

		_, err := doc.RenderTile(TileRequest{ZoomPerMille: 100, Width: 5, Height: 5})
		assert.ErrorIs(t, err, ErrRender)
		assert.ErrorIs(t, err, errFake)
		assert.Equal(t, []string{"glyphs"}, fd.events)
	})
	t.Run("raster run", func(t *testing.T) {
		fd := newFakeDoc(1)
		fd.runErr = errFake
		doc := openFake(t, nil, fd)
		defer doc.Close()

		_, err := doc.RenderTile(TileRequest{ZoomPerMille: 100, Width: 5, Height: 5})
		assert.ErrorIs(t, err, ErrRender)
		assert.NotErrorIs(t, err, ErrPageLoad)
	})
}

func TestRenderTile_Geometry(t *testing.T) {
	tests := []struct {
		name     string
		box      geom.Rect
		rotate   int
		req      TileRequest
		wantRect geom.IRect
	}{
		{
			name:     "unrotated half zoom",
			box:      geom.Rect{X0: 0, Y0: 0, X1: 100, Y1: 200},
			req:      TileRequest{ZoomPerMille: 500, Left: 10, Top: 20, Width: 30, Height: 40},
			wantRect: geom.IRect{X0: 10, Y0: 20, X1: 40, Y1: 60},
		},
		{
			name:     "offset box",
			box:      geom.Rect{X0: 50, Y0: 50, X1: 150, Y1: 250},
			req:      TileRequest{ZoomPerMille: 500, Left: 10, Top: 20, Width: 30, Height: 40},
			wantRect: geom.IRect{X0: 10, Y0: 20, X1: 40, Y1: 60},
		},
		{
			name:     "page rotated 90",
			box:      geom.Rect{X0: 0, Y0: 0, X1: 100, Y1: 200},
			rotate:   90,
			req:      TileRequest{ZoomPerMille: 500, Width: 100, Height: 50},
			wantRect: geom.IRect{X0: -100, Y0: 0, X1: 0, Y1: 50},
		},
		{
			name:     "rotation increment adds to page rotation",
			box:      geom.Rect{X0: 0, Y0: 0, X1: 100, Y1: 200},
			rotate:   90,
			req:      TileRequest{ZoomPerMille: 500, Rotation: 90, Width: 50, Height: 100},
			wantRect: geom.IRect{X0: -50, Y0: -100, X1: 0, Y1: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fd := newFakeDoc(1)
			fd.pages[0] = fakePageDict{boxes: map[string]geom.Rect{"MediaBox": tt.box}, rotate: tt.rotate}
			doc := openFake(t, nil, fd)
			defer doc.Close()

			tile, err := doc.RenderTile(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRect, tile.Rect)
			assert.Equal(t, tt.req.Width, tile.Width)
			assert.Equal(t, tt.req.Height, tile.Height)
			assert.Len(t, tile.Pix, 4*tt.req.Width*tt.req.Height)

			want := geom.PageTransform(tt.box, tt.rotate+tt.req.Rotation, float64(tt.req.ZoomPerMille)/1000)
			assert.Equal(t, want, fd.lastCTM)
		})
	}
}

func TestRenderTile_GrayOutput(t *testing.T) {
	fd := newFakeDoc(1)
	// Left half of the page in black: device x 0..5 at 10% zoom.
	fd.paint = fillPage(geom.Rect{X0: 0, Y0: 0, X1: 50, Y1: 200})
	doc := openFake(t, nil, fd)
	defer doc.Close()

	tile, err := doc.RenderTile(TileRequest{ZoomPerMille: 100, Gray: true, Width: 10, Height: 20})
	require.NoError(t, err)
	require.True(t, tile.Gray)

	for y := 0; y < 20; y++ {
		for x := 0; x < 10; x++ {
			px := tile.Pix[4*(y*10+x) : 4*(y*10+x)+4]
			assert.Equal(t, []byte{0, 0, 0}, []byte(px[:3]), "pixel %d,%d", x, y)
			want := 255
			if x < 5 {
				want = 0
			}
			assert.InDelta(t, want, int(px[3]), 2, "pixel %d,%d", x, y)
		}
	}
}

func TestRenderTile_ColorOutput(t *testing.T) {
	fd := newFakeDoc(1)
	fd.paint = fillPage(geom.Rect{X0: 0, Y0: 100, X1: 100, Y1: 200})
	doc := openFake(t, nil, fd)
	defer doc.Close()

	tile, err := doc.RenderTile(TileRequest{ZoomPerMille: 100, Width: 10, Height: 20, SkipImages: true})
	require.NoError(t, err)
	assert.True(t, fd.lastIgnore)

	// Top half black, bottom half white.
	top := tile.Pix[0:4]
	bottom := tile.Pix[4*(15*10+5) : 4*(15*10+5)+4]
	assert.Equal(t, []byte{0, 0, 0, 255}, []byte(top))
	assert.Equal(t, []byte{255, 255, 255, 255}, []byte(bottom))

	img := tile.Image()
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, img.At(0, 0))
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, img.At(5, 15))
}

func TestRenderTile_AgesStoreOnPageChange(t *testing.T) {
	fd := newFakeDoc(2)
	doc := openFake(t, nil, fd)
	defer doc.Close()

	req := TileRequest{ZoomPerMille: 100, Width: 2, Height: 2}
	for _, page := range []int{0, 0, 1} {
		req.Page = page
		_, err := doc.RenderTile(req)
		require.NoError(t, err)
	}
	ages := 0
	for _, e := range fd.events {
		if e == "age 1" {
			ages++
		}
	}
	assert.Equal(t, 2, ages)
}

func TestCopyAlpha(t *testing.T) {
	in := []byte{
		0, 255, // opaque black
		255, 255, // opaque white
		0, 0, // transparent
		0, 128, // half-covered black
	}
	out := make([]byte, 16)
	copyAlpha(out, in)
	assert.Equal(t, []byte{
		0, 0, 0, 0,
		0, 0, 0, 255,
		0, 0, 0, 255,
		0, 0, 0, 127,
	}, out)
}

func TestPixelTile_GrayImage(t *testing.T) {
	tile := &PixelTile{Width: 2, Height: 1, Gray: true, Pix: []byte{0, 0, 0, 0, 0, 0, 0, 200}}
	img := tile.Image()
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, img.At(0, 0))
	assert.Equal(t, color.NRGBA{200, 200, 200, 255}, img.At(1, 0))
}
