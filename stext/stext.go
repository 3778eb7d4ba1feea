// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package stext collects the glyphs shown on a page into line spans: runs
// of positioned characters that share a baseline and a writing direction.
package stext

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/sassoftware/viya-pdf-view/device"
	"github.com/sassoftware/viya-pdf-view/geom"
)

// Thresholds in multiples of the font size.
const (
	baselineTolerance = 0.2 // perpendicular drift that still counts as the same line
	spaceGap          = 0.2 // forward gap that reads as a word break
	backwardLimit     = 0.5 // backward move that starts a new span
	forwardLimit      = 5.0 // forward jump that starts a new span (column gutters)
)

// A Glyph is one character with its box in the device space of the run.
type Glyph struct {
	Rune rune
	BBox geom.Rect
}

// A Span is a run of glyphs on one line.
type Span struct {
	Glyphs []Glyph
}

// Text returns the span's characters.
func (s Span) Text() string {
	var sb strings.Builder
	for _, g := range s.Glyphs {
		sb.WriteRune(g.Rune)
	}
	return sb.String()
}

// Text joins spans, terminating each with a newline.
func Text(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.Text())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Device implements device.Device and records text only. It asks the
// interpreter to skip images.
type Device struct {
	spans []Span
	cur   *Span

	// pen position after the last glyph, writing direction and font size
	pen  geom.Point
	dir  geom.Point
	size float64
}

var _ device.Device = (*Device)(nil)

// NewDevice returns an empty text device.
func NewDevice() *Device { return &Device{} }

func (d *Device) FillPath(*device.Path, bool, geom.Matrix, color.NRGBA)      {}
func (d *Device) StrokePath(*device.Path, float64, geom.Matrix, color.NRGBA) {}
func (d *Device) FillImage(image.Image, geom.Matrix)                        {}
func (d *Device) Hints() device.Hints                                       { return device.IgnoreImages }

// ShowGlyph implements device.Device. Invisible glyphs are kept.
func (d *Device) ShowGlyph(g device.Glyph, _ color.NRGBA) {
	size := g.Trm.Expansion()
	if size == 0 || math.IsNaN(size) {
		return
	}
	dir := geom.Point{X: g.Trm[0], Y: g.Trm[1]}
	if l := math.Hypot(dir.X, dir.Y); l > 0 {
		dir = geom.Point{X: dir.X / l, Y: dir.Y / l}
	} else {
		dir = geom.Point{X: 1}
	}
	origin := g.Trm.Transform(geom.Point{})
	box := g.Bounds()

	if d.cur != nil {
		dx, dy := origin.X-d.pen.X, origin.Y-d.pen.Y
		along := dx*d.dir.X + dy*d.dir.Y
		perp := d.dir.X*dy - d.dir.Y*dx
		sameDir := dir.X*d.dir.X+dir.Y*d.dir.Y > 0.99
		tol := math.Max(size, d.size)
		switch {
		case !sameDir,
			math.Abs(perp) > baselineTolerance*tol,
			along < -backwardLimit*tol,
			along > forwardLimit*tol:
			d.flush()
		case along > spaceGap*tol && !d.endsWithSpace() && g.Rune != ' ':
			last := d.cur.Glyphs[len(d.cur.Glyphs)-1].BBox
			gap := geom.Rect{X0: last.X1, Y0: last.Y0, X1: box.X0, Y1: last.Y1}.Normalize()
			d.cur.Glyphs = append(d.cur.Glyphs, Glyph{Rune: ' ', BBox: gap})
		}
	}
	if d.cur == nil {
		d.cur = &Span{}
	}
	d.cur.Glyphs = append(d.cur.Glyphs, Glyph{Rune: g.Rune, BBox: box})

	adv := g.Advance
	if adv < 0 {
		adv = 0
	}
	d.pen = g.Trm.Transform(geom.Point{X: adv})
	d.dir = dir
	d.size = size
}

func (d *Device) endsWithSpace() bool {
	n := len(d.cur.Glyphs)
	return n > 0 && d.cur.Glyphs[n-1].Rune == ' '
}

func (d *Device) flush() {
	if d.cur != nil && len(d.cur.Glyphs) > 0 {
		d.spans = append(d.spans, *d.cur)
	}
	d.cur = nil
}

// Spans returns the spans collected so far, in the order they were shown.
func (d *Device) Spans() []Span {
	d.flush()
	return d.spans
}
