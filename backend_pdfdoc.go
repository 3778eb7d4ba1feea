// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfview

import (
	"errors"
	"fmt"

	"github.com/sassoftware/viya-pdf-view/device"
	"github.com/sassoftware/viya-pdf-view/geom"
	"github.com/sassoftware/viya-pdf-view/internal/pdfdoc"
	"github.com/sassoftware/viya-pdf-view/logger"
	"github.com/sassoftware/viya-pdf-view/raster"
	"github.com/sassoftware/viya-pdf-view/stext"
)

var errForeignPage = errors.New("page was not loaded by this backend")

// PDFBackend opens documents with the built-in PDF parser, paints them with
// package raster and extracts text with package stext.
type PDFBackend struct{}

// OpenDocument implements Backend.
func (PDFBackend) OpenDocument(src Source, password string) (OpenResult, error) {
	r, err := openReader(src)
	if err != nil {
		return OpenResult{}, err
	}

	res := OpenResult{NeedsPassword: r.NeedsPassword()}
	if res.NeedsPassword && !r.Authenticate(password) {
		logger.Debug(fmt.Sprintf("backend: authentication failed: source=%s", src.name()), true)
		r.Close()
		return res, nil
	}

	n, err := r.NumPage()
	if err != nil {
		r.Close()
		return OpenResult{}, err
	}
	res.Doc = &pdfDocument{r: r}
	res.PageCount = n
	res.Authenticated = true
	return res, nil
}

// openReader reads a File in place without taking ownership of it; a Path
// is opened and owned by the Reader.
func openReader(src Source) (*pdfdoc.Reader, error) {
	if src.File != nil {
		fi, err := src.File.Stat()
		if err != nil {
			return nil, err
		}
		return pdfdoc.NewReader(src.File, fi.Size())
	}
	if src.Path == "" {
		return nil, errors.New("no path or file given")
	}
	return pdfdoc.Open(src.Path)
}

type pdfDocument struct {
	r *pdfdoc.Reader
}

type pdfPage struct {
	*pdfdoc.LoadedPage
}

func (d *pdfDocument) LoadPage(index int) (BackendPage, error) {
	lp, err := d.r.LoadPage(index)
	if err != nil {
		return nil, err
	}
	return pdfPage{lp}, nil
}

func (d *pdfDocument) PageDict(index int) (PageDict, error) {
	return d.r.Page(index)
}

func (d *pdfDocument) NewGlyphCache(size int) (*raster.GlyphCache, error) {
	return raster.NewGlyphCache(size)
}

func page(bp BackendPage) (*pdfdoc.LoadedPage, error) {
	p, ok := bp.(pdfPage)
	if !ok {
		return nil, errForeignPage
	}
	return p.LoadedPage, nil
}

func (d *pdfDocument) RunPageRaster(bp BackendPage, ctm geom.Matrix, pix *raster.Pixmap, cache *raster.GlyphCache, ignoreImages bool) error {
	p, err := page(bp)
	if err != nil {
		return err
	}
	var hints device.Hints
	if ignoreImages {
		hints |= device.IgnoreImages
	}
	return p.Run(ctm, raster.NewDrawDevice(pix, cache, hints))
}

func (d *pdfDocument) RunPageText(bp BackendPage, ctm geom.Matrix) ([]stext.Span, error) {
	p, err := page(bp)
	if err != nil {
		return nil, err
	}
	dev := stext.NewDevice()
	if err := p.Run(ctm, dev); err != nil {
		return nil, err
	}
	return dev.Spans(), nil
}

func (d *pdfDocument) AgeStore(maxAge int) { d.r.AgeStore(maxAge) }

func (d *pdfDocument) Close() error { return d.r.Close() }

func (d *pdfDocument) Metadata() (Metadata, error) { return d.r.Metadata() }
