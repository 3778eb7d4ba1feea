// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfview

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"testing"

	"github.com/sassoftware/viya-pdf-view/device"
	"github.com/sassoftware/viya-pdf-view/geom"
	"github.com/sassoftware/viya-pdf-view/raster"
	"github.com/sassoftware/viya-pdf-view/stext"
	"github.com/stretchr/testify/require"
)

// fakeBackend opens a scripted fakeDoc and records what it was asked for.
type fakeBackend struct {
	doc      *fakeDoc
	password string
	err      error
	opened   []Source
}

func (b *fakeBackend) OpenDocument(src Source, password string) (OpenResult, error) {
	b.opened = append(b.opened, src)
	if b.doc != nil {
		b.doc.file = src.File
	}
	if b.err != nil {
		return OpenResult{}, b.err
	}
	if b.password != "" && password != b.password {
		return OpenResult{NeedsPassword: true}, nil
	}
	return OpenResult{
		Doc:           b.doc,
		PageCount:     len(b.doc.pages),
		NeedsPassword: b.password != "",
		Authenticated: true,
	}, nil
}

type fakePageDict struct {
	boxes  map[string]geom.Rect
	rotate int
}

func (p fakePageDict) Box(name string) (geom.Rect, bool) {
	r, ok := p.boxes[name]
	return r, ok
}

func (p fakePageDict) Rotate() int { return p.rotate }

type fakePage struct {
	fakePageDict
	doc   *fakeDoc
	index int
}

func (p *fakePage) Close() { p.doc.record("release %d", p.index) }

// fakeDoc logs every call in events so tests can assert ordering.
type fakeDoc struct {
	pages    []fakePageDict
	spans    map[int][]stext.Span
	failLoad map[int]bool
	runErr   error
	glyphErr error
	paint    func(pix *raster.Pixmap, ctm geom.Matrix)

	events     []string
	file       *os.File // source descriptor handed to the backend
	glyphs     *raster.GlyphCache
	lastCTM    geom.Matrix
	lastIgnore bool
}

var errFake = errors.New("fake failure")

// newFakeDoc returns n pages with a 100x200 MediaBox each.
func newFakeDoc(n int) *fakeDoc {
	d := &fakeDoc{spans: map[int][]stext.Span{}, failLoad: map[int]bool{}}
	for i := 0; i < n; i++ {
		d.pages = append(d.pages, fakePageDict{boxes: map[string]geom.Rect{
			"MediaBox": {X0: 0, Y0: 0, X1: 100, Y1: 200},
		}})
	}
	return d
}

func (d *fakeDoc) record(format string, args ...interface{}) {
	d.events = append(d.events, fmt.Sprintf(format, args...))
}

func (d *fakeDoc) LoadPage(index int) (BackendPage, error) {
	d.record("load %d", index)
	if d.failLoad[index] {
		return nil, errFake
	}
	return &fakePage{fakePageDict: d.pages[index], doc: d, index: index}, nil
}

func (d *fakeDoc) PageDict(index int) (PageDict, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, errFake
	}
	return d.pages[index], nil
}

func (d *fakeDoc) NewGlyphCache(size int) (*raster.GlyphCache, error) {
	d.record("glyphs")
	if d.glyphErr != nil {
		return nil, d.glyphErr
	}
	gc, err := raster.NewGlyphCache(size)
	d.glyphs = gc
	return gc, err
}

func (d *fakeDoc) RunPageRaster(bp BackendPage, ctm geom.Matrix, pix *raster.Pixmap, _ *raster.GlyphCache, ignoreImages bool) error {
	d.record("raster %d", bp.(*fakePage).index)
	d.lastCTM, d.lastIgnore = ctm, ignoreImages
	if d.runErr != nil {
		return d.runErr
	}
	if d.paint != nil {
		d.paint(pix, ctm)
	}
	return nil
}

func (d *fakeDoc) RunPageText(bp BackendPage, ctm geom.Matrix) ([]stext.Span, error) {
	index := bp.(*fakePage).index
	d.record("text %d", index)
	d.lastCTM = ctm
	if d.runErr != nil {
		return nil, d.runErr
	}
	return d.spans[index], nil
}

func (d *fakeDoc) AgeStore(maxAge int) { d.record("age %d", maxAge) }

func (d *fakeDoc) Close() error {
	d.record("close")
	if d.file != nil {
		if _, err := d.file.Stat(); err == nil {
			d.record("file open at close")
		}
	}
	return nil
}

// fillPage paints the page-space rectangle r in black.
func fillPage(r geom.Rect) func(*raster.Pixmap, geom.Matrix) {
	return func(pix *raster.Pixmap, ctm geom.Matrix) {
		var p device.Path
		p.Rect(r.X0, r.Y0, r.X1-r.X0, r.Y1-r.Y0)
		raster.NewDrawDevice(pix, nil, 0).FillPath(&p, false, ctm, color.NRGBA{A: 255})
	}
}

// spanOf lays text out on one line starting at (x, y), each glyph 10x10.
func spanOf(x, y float64, text string) stext.Span {
	var s stext.Span
	for i, r := range []rune(text) {
		x0 := x + float64(10*i)
		s.Glyphs = append(s.Glyphs, stext.Glyph{Rune: r, BBox: geom.Rect{X0: x0, Y0: y, X1: x0 + 10, Y1: y + 10}})
	}
	return s
}

func openFake(t testing.TB, cfg *Config, doc *fakeDoc) *Document {
	t.Helper()
	d, err := OpenWithBackend(cfg, &fakeBackend{doc: doc}, Source{Path: "fake.pdf"}, CropBox, "")
	require.NoError(t, err)
	return d
}
