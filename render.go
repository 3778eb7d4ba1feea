// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfview

import (
	"fmt"
	"image"

	"github.com/sassoftware/viya-pdf-view/geom"
	"github.com/sassoftware/viya-pdf-view/logger"
	"github.com/sassoftware/viya-pdf-view/raster"
)

// TileRequest describes one tile of a zoomed page.
//
// Left and Top place the tile relative to the top-left corner of the page
// after zoom and rotation. Rotation is added to the page's own /Rotate.
type TileRequest struct {
	Page         int
	ZoomPerMille int
	Left, Top    int
	Rotation     int
	Gray         bool
	SkipImages   bool
	Width        int
	Height       int
}

// PixelTile holds the pixels of a rendered tile, 4 bytes per pixel, row by
// row. Color tiles are premultiplied BGRA. Gray tiles carry the coverage in
// the fourth byte of each pixel and zero in the other three: 255 where the
// page is blank, 0 under full black ink.
type PixelTile struct {
	Rect   geom.IRect
	Width  int
	Height int
	Gray   bool
	Pix    []byte
}

// Image returns a copy of the tile as an image. A gray tile becomes an
// opaque grayscale image.
func (t *PixelTile) Image() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, t.Width, t.Height))
	for i := 0; i < t.Width*t.Height; i++ {
		px := t.Pix[4*i : 4*i+4]
		o := img.Pix[4*i : 4*i+4]
		if t.Gray {
			o[0], o[1], o[2], o[3] = px[3], px[3], px[3], 0xff
			continue
		}
		a := px[3]
		o[3] = a
		if a == 0 {
			continue
		}
		o[0] = unpremultiply(px[2], a)
		o[1] = unpremultiply(px[1], a)
		o[2] = unpremultiply(px[0], a)
	}
	return img
}

func unpremultiply(c, a uint8) uint8 {
	v := (uint32(c)*0xff + uint32(a)/2) / uint32(a)
	if v > 0xff {
		v = 0xff
	}
	return uint8(v)
}

func (d *Document) checkTile(req TileRequest) (float64, error) {
	if req.Width <= 0 || req.Height <= 0 {
		return 0, pageError("render", req.Page, ErrInvalidArgument, fmt.Errorf("tile size %dx%d", req.Width, req.Height))
	}
	if int64(req.Width)*int64(req.Height) > int64(d.cfg.MaxTilePixels) {
		return 0, pageError("render", req.Page, ErrInvalidArgument,
			fmt.Errorf("tile %dx%d exceeds %d pixels", req.Width, req.Height, d.cfg.MaxTilePixels))
	}
	z, err := zoom(req.ZoomPerMille)
	if err != nil {
		return 0, pageError("render", req.Page, ErrInvalidArgument, err)
	}
	return z, nil
}

// RenderTile rasterizes one tile of a page. A page that fails to load
// leaves the Document usable.
func (d *Document) RenderTile(req TileRequest) (*PixelTile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkPage("render", req.Page); err != nil {
		return nil, err
	}
	z, err := d.checkTile(req)
	if err != nil {
		return nil, err
	}

	if d.glyph == nil {
		gc, err := d.doc.NewGlyphCache(d.cfg.GlyphCacheSize)
		if err != nil {
			logger.Error(fmt.Sprintf("render: glyph cache: err=%v", err))
			return nil, pageError("render", req.Page, ErrRender, err)
		}
		d.glyph = gc
	}

	d.pages.touch(req.Page, d.cfg.RenderStoreMaxAge)
	page, err := d.pages.get(req.Page)
	if err != nil {
		return nil, pageError("render", req.Page, ErrPageLoad, err)
	}

	box, rotate, err := d.pageGeometry("render", req.Page, page)
	if err != nil {
		return nil, err
	}
	ctm := geom.PageTransform(box, rotate+req.Rotation, z)
	tile := geom.TileRect(geom.PageBounds(ctm, box), req.Left, req.Top, req.Width, req.Height)

	pix, err := raster.NewPixmap(tile, req.Gray)
	if err != nil {
		return nil, pageError("render", req.Page, ErrRender, err)
	}
	if req.Gray {
		pix.Clear(0)
	} else {
		pix.Clear(0xff)
	}

	logger.Debug(fmt.Sprintf("render: page=%d zoom=%d rotation=%d tile=%v gray=%v", req.Page+1, req.ZoomPerMille, rotate+req.Rotation, tile, req.Gray))
	if err := d.doc.RunPageRaster(page, ctm, pix, d.glyph, req.SkipImages); err != nil {
		logger.Error(fmt.Sprintf("render: run failed: page=%d err=%v", req.Page+1, err))
		return nil, pageError("render", req.Page, ErrRender, err)
	}

	out := &PixelTile{Rect: tile, Width: req.Width, Height: req.Height, Gray: req.Gray}
	samples := pix.Samples()
	if req.Gray {
		out.Pix = make([]byte, 4*req.Width*req.Height)
		copyAlpha(out.Pix, samples)
	} else {
		out.Pix = samples
	}
	return out, nil
}

// copyAlpha turns (gray, alpha) pairs into 4-byte pixels whose last byte is
// the ink coverage seen on a white page. The first three bytes are left alone.
func copyAlpha(out, in []byte) {
	for i := 0; 2*i+1 < len(in); i++ {
		g, a := int(in[2*i]), int(in[2*i+1])
		out[4*i+3] = byte(255 - ((255-g)*a)/255)
	}
}
