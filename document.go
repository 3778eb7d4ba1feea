// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package pdfview renders PDF pages for a viewer.
//
// # Overview
//
// A Document is an open PDF plus the state a viewer keeps next to it: a
// bounded cache of parsed pages, a glyph cache shared by every render, and
// the page box the viewer navigates by (CropBox unless asked otherwise).
//
// Pages are drawn in tiles. RenderTile takes a zoom in per mille, a rotation
// increment and a tile window measured from the top-left corner of the zoomed
// page, and returns the tile's pixels:
//
//	doc, err := pdfview.Open(nil, pdfview.Source{Path: "report.pdf"}, pdfview.CropBox, "")
//	if err != nil {
//		return err
//	}
//	defer doc.Close()
//	tile, err := doc.RenderTile(pdfview.TileRequest{Page: 0, ZoomPerMille: 1000, Width: 256, Height: 256})
//
// Search finds case-insensitive matches of a query on one page and reports
// a marker rectangle per matched glyph, in unzoomed device space.
//
// A Document serves one caller at a time; its methods serialize on a mutex.
// Processor runs searches and text extraction over many pages in parallel
// by giving every worker its own Document.
package pdfview

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/sassoftware/viya-pdf-view/geom"
	"github.com/sassoftware/viya-pdf-view/logger"
	"github.com/sassoftware/viya-pdf-view/raster"
	"github.com/sassoftware/viya-pdf-view/stext"
)

// BoxType selects the page boundary that defines the visible page.
type BoxType int

const (
	ArtBox BoxType = iota
	BleedBox
	CropBox
	MediaBox
	TrimBox
)

var boxNames = [...]string{"ArtBox", "BleedBox", "CropBox", "MediaBox", "TrimBox"}

// String returns the PDF key of the box, e.g. "CropBox".
func (b BoxType) String() string {
	if b < ArtBox || b > TrimBox {
		return fmt.Sprintf("BoxType(%d)", int(b))
	}
	return boxNames[b]
}

// A Document is an open PDF file.
type Document struct {
	mu sync.Mutex

	cfg   *Config
	path  string
	box   BoxType
	file  *os.File
	doc   BackendDocument
	pages *pageCache
	glyph *raster.GlyphCache
	count int

	invalidPassword bool
	closed          bool
}

// Open opens src with the built-in PDF backend. A nil cfg uses
// NewDefaultConfig. A box outside ArtBox..TrimBox selects CropBox.
//
// When the document is encrypted and password does not open it, Open
// returns an inert Document whose InvalidPassword reports true together
// with an error matching ErrAuthentication.
func Open(cfg *Config, src Source, box BoxType, password string) (*Document, error) {
	return OpenWithBackend(cfg, PDFBackend{}, src, box, password)
}

// OpenWithBackend is Open with an explicit Backend.
func OpenWithBackend(cfg *Config, b Backend, src Source, box BoxType, password string) (*Document, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	path := src.name()
	if err := cfg.Validate(); err != nil {
		return nil, &ViewError{Op: "open", Path: path, Kind: ErrInvalidArgument, Err: err}
	}
	cfg.installLogger()

	if box < ArtBox || box > TrimBox {
		logger.Debug(fmt.Sprintf("document: box out of range, using CropBox: box=%d", int(box)))
		box = CropBox
	}

	var owned *os.File
	if src.File != nil {
		f, err := dupFile(src.File)
		if err != nil {
			logger.Error(fmt.Sprintf("document: cannot duplicate descriptor: path=%s err=%v", path, err))
			return nil, &ViewError{Op: "open", Path: path, Kind: ErrDocumentOpen, Err: err}
		}
		owned = f
		src.File = f
	}

	res, err := b.OpenDocument(src, password)
	if err == nil && res.Authenticated && (res.Doc == nil || res.PageCount < 0) {
		err = errors.New("backend returned no document")
	}
	if err != nil {
		if res.Doc != nil {
			res.Doc.Close()
		}
		closeOwned(owned)
		logger.Error(fmt.Sprintf("document: open failed: path=%s err=%v", path, err))
		return nil, &ViewError{Op: "open", Path: path, Kind: ErrDocumentOpen, Err: err}
	}
	if !res.Authenticated {
		if res.Doc != nil {
			res.Doc.Close()
		}
		closeOwned(owned)
		logger.Debug(fmt.Sprintf("document: wrong password: path=%s", path), true)
		return &Document{cfg: cfg, path: path, box: box, invalidPassword: true},
			&ViewError{Op: "open", Path: path, Kind: ErrAuthentication}
	}

	logger.Debug(fmt.Sprintf("document: opened: path=%s pages=%d box=%v encrypted=%v", path, res.PageCount, box, res.NeedsPassword), true)
	return &Document{
		cfg:   cfg,
		path:  path,
		box:   box,
		file:  owned,
		doc:   res.Doc,
		pages: newPageCache(res.Doc, res.PageCount, cfg.MaxResidentPages),
		count: res.PageCount,
	}, nil
}

func closeOwned(f *os.File) {
	if f != nil {
		f.Close()
	}
}

// valid reports whether the handle still has a backend document.
// The caller holds d.mu.
func (d *Document) valid() bool {
	return d != nil && !d.closed && !d.invalidPassword && d.doc != nil
}

func (d *Document) checkPage(op string, index int) error {
	if !d.valid() {
		return opError(op, ErrInvalidHandle, nil)
	}
	if index < 0 || index >= d.count {
		return pageError(op, index, ErrGeometry, fmt.Errorf("page index %d out of range [0,%d)", index, d.count))
	}
	return nil
}

// InvalidPassword reports whether Open was refused for a wrong password.
func (d *Document) InvalidPassword() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.invalidPassword
}

// Box is the page boundary selected at open.
func (d *Document) Box() BoxType {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.box
}

// PageCount returns the number of pages, or -1 and ErrInvalidHandle for a
// closed or inert handle.
func (d *Document) PageCount() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.valid() {
		return -1, opError("page count", ErrInvalidHandle, nil)
	}
	return d.count, nil
}

// Resident is the number of parsed pages currently held in memory.
func (d *Document) Resident() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.valid() {
		return 0
	}
	return d.pages.resident()
}

// pageGeometry returns the selected box of page index, falling back to
// MediaBox, and the page's /Rotate entry. pd is either a loaded page or the
// page dictionary.
func (d *Document) pageGeometry(op string, index int, pd PageDict) (geom.Rect, int, error) {
	box, ok := pd.Box(d.box.String())
	if !ok {
		box, ok = pd.Box(MediaBox.String())
	}
	if !ok {
		return geom.Rect{}, 0, pageError(op, index, ErrGeometry, errors.New("page has no usable box"))
	}
	return box, pd.Rotate(), nil
}

// PageSize returns the unzoomed size of a page in points. Width and height
// are swapped for pages rotated by 90 or 270 degrees.
func (d *Document) PageSize(index int) (width, height int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkPage("page size", index); err != nil {
		return 0, 0, err
	}
	pd, err := d.doc.PageDict(index)
	if err != nil {
		return 0, 0, pageError("page size", index, ErrGeometry, err)
	}
	box, rotate, err := d.pageGeometry("page size", index, pd)
	if err != nil {
		return 0, 0, err
	}
	w, h := int(box.Width()), int(box.Height())
	if rotate != 0 && geom.NormalizeRotation(rotate)%180 == 90 {
		w, h = h, w
	}
	return w, h, nil
}

// ExtractText returns the text of a page, one line per span.
func (d *Document) ExtractText(index int) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	spans, _, err := d.pageText("text", index, d.cfg.TextStoreMaxAge)
	if err != nil {
		return "", err
	}
	return stext.Text(spans), nil
}

// Metadata returns the document information, when the backend provides it.
func (d *Document) Metadata() (Metadata, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.valid() {
		return Metadata{}, opError("metadata", ErrInvalidHandle, nil)
	}
	src, ok := d.doc.(MetadataSource)
	if !ok {
		return Metadata{}, &ViewError{Op: "metadata", Path: d.path, Kind: ErrUnsupported}
	}
	md, err := src.Metadata()
	if err != nil {
		return Metadata{}, &ViewError{Op: "metadata", Path: d.path, Kind: ErrDocumentOpen, Err: err}
	}
	return md, nil
}

// Close releases the resident pages, the glyph cache, the backend document
// and the duplicated file descriptor, in that order. Closing twice, or
// closing an inert handle, does nothing.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if d.doc == nil {
		return nil
	}

	d.pages.releaseAll()
	if d.glyph != nil {
		d.glyph.Close()
		d.glyph = nil
	}
	var errs []error
	if err := d.doc.Close(); err != nil {
		errs = append(errs, err)
	}
	d.doc = nil
	if d.file != nil {
		if err := d.file.Close(); err != nil {
			errs = append(errs, err)
		}
		d.file = nil
	}
	logger.Debug(fmt.Sprintf("document: closed: path=%s", d.path), true)
	if err := errors.Join(errs...); err != nil {
		return &ViewError{Op: "close", Path: d.path, Kind: ErrDocumentOpen, Err: err}
	}
	return nil
}

// zoom validates a per-mille zoom factor.
func zoom(pm int) (float64, error) {
	if pm <= 0 {
		return 0, fmt.Errorf("zoom %d per mille must be positive", pm)
	}
	return geom.ZoomFromPerMille(pm), nil
}
