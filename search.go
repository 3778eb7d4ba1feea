// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfview

import (
	"fmt"
	"unicode"

	"github.com/sassoftware/viya-pdf-view/geom"
	"github.com/sassoftware/viya-pdf-view/logger"
	"github.com/sassoftware/viya-pdf-view/stext"
)

// A SearchMatch is one occurrence of the query within a line of text on
// the 0-based page Page.
// Markers hold one rectangle per matched glyph in the unzoomed device space
// of the page, grown by Config.MarkerMargin on every side.
type SearchMatch struct {
	Page    int
	Markers []geom.IRect
}

// Search finds the query on page index, ignoring case. Each line yields at
// most one match, for the first occurrence. An empty query finds nothing.
func (d *Document) Search(index int, query string) ([]SearchMatch, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.search(index, query)
}

// FindAll searches every page in order.
func (d *Document) FindAll(query string) ([]SearchMatch, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.valid() {
		return nil, opError("search", ErrInvalidHandle, nil)
	}
	var all []SearchMatch
	for i := 0; i < d.count; i++ {
		m, err := d.search(i, query)
		if err != nil {
			return all, err
		}
		all = append(all, m...)
	}
	return all, nil
}

func (d *Document) search(index int, query string) ([]SearchMatch, error) {
	if err := d.checkPage("search", index); err != nil {
		return nil, err
	}
	if query == "" {
		return nil, nil
	}
	spans, page, err := d.pageText("search", index, d.cfg.SearchStoreMaxAge)
	if d.cfg.FlushStoreAfterSearch {
		defer d.doc.AgeStore(0)
	}
	if err != nil {
		return nil, err
	}

	box, rotate, err := d.pageGeometry("search", index, page)
	if err != nil {
		return nil, err
	}

	needle := lower([]rune(query))
	var matches []SearchMatch
	for _, span := range spans {
		if len(span.Glyphs) < len(needle) {
			continue
		}
		hay := make([]rune, len(span.Glyphs))
		for i, g := range span.Glyphs {
			hay[i] = g.Rune
		}
		at := indexRunes(lower(hay), needle)
		if at < 0 {
			continue
		}
		m := SearchMatch{Page: index, Markers: make([]geom.IRect, 0, len(needle))}
		for _, g := range span.Glyphs[at : at+len(needle)] {
			m.Markers = append(m.Markers, d.marker(g.BBox, box, rotate))
		}
		matches = append(matches, m)
	}
	logger.Debug(fmt.Sprintf("search: page=%d spans=%d matches=%d", index+1, len(spans), len(matches)))
	return matches, nil
}

// marker maps a glyph box from page space to a device-space marker. The box
// is snapped to whole units first, as glyph boxes are reported in pixels.
func (d *Document) marker(glyph, page geom.Rect, rotate int) geom.IRect {
	ib := glyph.Round()
	r := geom.Rect{X0: float64(ib.X0), Y0: float64(ib.Y0), X1: float64(ib.X1), Y1: float64(ib.Y1)}
	return geom.MarkerRect(geom.BoxToDevice(r, page, rotate), d.cfg.MarkerMargin)
}

// pageText loads page index and runs it through the text device with the
// identity transform. The caller holds d.mu.
func (d *Document) pageText(op string, index, maxAge int) ([]stext.Span, BackendPage, error) {
	if err := d.checkPage(op, index); err != nil {
		return nil, nil, err
	}
	d.pages.touch(index, maxAge)
	page, err := d.pages.get(index)
	if err != nil {
		return nil, nil, pageError(op, index, ErrPageLoad, err)
	}
	spans, err := d.doc.RunPageText(page, geom.Identity)
	if err != nil {
		logger.Error(fmt.Sprintf("%s: text run failed: page=%d err=%v", op, index+1, err))
		return nil, nil, pageError(op, index, ErrTextExtraction, err)
	}
	return spans, page, nil
}

func lower(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

// indexRunes returns the index of the first needle in hay, or -1.
func indexRunes(hay, needle []rune) int {
outer:
	for i := 0; i+len(needle) <= len(hay); i++ {
		for j, r := range needle {
			if hay[i+j] != r {
				continue outer
			}
		}
		return i
	}
	return -1
}
