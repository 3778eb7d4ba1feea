// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfview

import (
	"fmt"

	"github.com/sassoftware/viya-pdf-view/geom"
	"github.com/sassoftware/viya-pdf-view/logger"
)

// ZoomFull is the per-mille zoom of an unscaled page.
const ZoomFull = 1000

// FitWidthZoom returns the per-mille zoom that stretches a page of
// pageWidth points across viewportWidth pixels. Pages already wider than
// the viewport stay at ZoomFull.
func FitWidthZoom(pageWidth, viewportWidth int) int {
	if pageWidth <= 0 || viewportWidth <= 0 || pageWidth >= viewportWidth {
		return ZoomFull
	}
	return ZoomFull * viewportWidth / pageWidth
}

// AutoRotation returns the rotation increment that turns a landscape page
// upright when rotateLandscape is set.
func AutoRotation(pageWidth, pageHeight int, rotateLandscape bool) int {
	if rotateLandscape && pageWidth > pageHeight {
		return 90
	}
	return 0
}

// TileGrid splits a page of pageWidth x pageHeight points, zoomed by
// zoomPerMille, into cols x rows tiles in row-major order. The tiles cover
// the zoomed page exactly; the last column and row absorb the remainder.
// Only the geometry fields of the requests are set.
func TileGrid(pageWidth, pageHeight, zoomPerMille, cols, rows int) []TileRequest {
	w := pageWidth * zoomPerMille / ZoomFull
	h := pageHeight * zoomPerMille / ZoomFull
	cols, rows = min(cols, w), min(rows, h)
	if cols <= 0 || rows <= 0 {
		return nil
	}
	tw, th := w/cols, h/rows

	grid := make([]TileRequest, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			req := TileRequest{
				ZoomPerMille: zoomPerMille,
				Left:         c * tw,
				Top:          r * th,
				Width:        tw,
				Height:       th,
			}
			if c == cols-1 {
				req.Width = w - req.Left
			}
			if r == rows-1 {
				req.Height = h - req.Top
			}
			grid = append(grid, req)
		}
	}
	return grid
}

// RenderPage renders a whole page as a cols x rows grid of tiles, returned
// in row-major order. Rotation is added to the page's own /Rotate.
func (d *Document) RenderPage(page, zoomPerMille, rotation int, gray bool, cols, rows int) ([]*PixelTile, error) {
	w, h, err := d.PageSize(page)
	if err != nil {
		return nil, err
	}
	if geom.NormalizeRotation(rotation)%180 == 90 {
		w, h = h, w
	}
	grid := TileGrid(w, h, zoomPerMille, cols, rows)
	if len(grid) == 0 {
		return nil, pageError("render", page, ErrInvalidArgument,
			fmt.Errorf("cannot split %dx%d at zoom %d into %dx%d tiles", w, h, zoomPerMille, cols, rows))
	}
	logger.Debug(fmt.Sprintf("render page: page=%d zoom=%d tiles=%d", page+1, zoomPerMille, len(grid)))

	tiles := make([]*PixelTile, 0, len(grid))
	for _, req := range grid {
		req.Page = page
		req.Rotation = rotation
		req.Gray = gray
		t, err := d.RenderTile(req)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, t)
	}
	return tiles, nil
}
