// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package device defines the drawing contract between the page content
// interpreter and whatever consumes a page: a rasterizer, a text collector.
// All matrices handed to a Device map into its target space.
package device

import (
	"image"
	"image/color"

	"github.com/sassoftware/viya-pdf-view/geom"
)

// Hints tune how a page is run against a device.
type Hints uint32

const (
	// IgnoreImages asks the interpreter to skip image XObjects and inline images.
	IgnoreImages Hints = 1 << iota
)

// A Glyph is one shown character.
type Glyph struct {
	Rune rune // decoded code point, or utf8.RuneError when unknown
	Code int  // raw character code in the font

	// Trm maps glyph space (1 unit = 1 em, y up, origin on the baseline)
	// to the device's space.
	Trm geom.Matrix

	// Advance is the glyph's horizontal advance in ems.
	Advance float64

	// Invisible is set for text rendering mode 3: the glyph takes part in
	// text extraction but must not be painted.
	Invisible bool
}

// Ascent and Descent bound a glyph vertically in ems when the font
// provides no better metrics.
const (
	Ascent  = 0.8
	Descent = -0.2
)

// Bounds is the glyph's box in device space.
func (g Glyph) Bounds() geom.Rect {
	adv := g.Advance
	if adv <= 0 {
		adv = 0.5
	}
	return g.Trm.TransformRect(geom.Rect{X0: 0, Y0: Descent, X1: adv, Y1: Ascent})
}

// A Device receives painting operations for one page run.
type Device interface {
	// FillPath fills p transformed by ctm. evenOdd selects the even-odd rule.
	FillPath(p *Path, evenOdd bool, ctm geom.Matrix, c color.NRGBA)
	// StrokePath strokes p transformed by ctm with the given line width in user units.
	StrokePath(p *Path, lineWidth float64, ctm geom.Matrix, c color.NRGBA)
	// ShowGlyph paints (or records) one glyph.
	ShowGlyph(g Glyph, c color.NRGBA)
	// FillImage paints img so that its unit square maps through ctm.
	FillImage(img image.Image, ctm geom.Matrix)
	// Hints reports the run options requested by the device.
	Hints() Hints
}
