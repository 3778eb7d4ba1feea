// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfdoc

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sassoftware/viya-pdf-view/logger"
)

// A Font represent a font in a PDF file.
// The methods interpret a Font dictionary stored in V.
type Font struct {
	V Value

	subtype   string
	composite bool
	vertical  bool
	enc       *encodingTable // simple fonts
	encCMap   *cmap          // composite fonts with an embedded CMap
	toUnicode *cmap

	firstChar   int
	widths      []float64 // simple fonts, glyph units
	cidWidths   map[int]float64
	defaultW    float64
	missingW    float64
	unitsPerEm  float64 // glyph units per em: 1000, or 1/FontMatrix[0] for Type3
	monospace   bool
	symbolic    bool
	baseFontRaw string
}

// A charCode is one decoded character of a shown string.
type charCode struct {
	code    int
	runes   []rune
	advance float64 // ems
	single  bool    // one-byte code 32, subject to word spacing
}

// Font returns the font with the given name associated with the page.
func (p Page) Font(name string) *Font {
	return newFont(p.Resources().Key("Font").Key(name))
}

func newFont(v Value) *Font {
	f := &Font{V: v, unitsPerEm: 1000, defaultW: 1000}
	f.subtype = v.Key("Subtype").Name()
	f.baseFontRaw = v.Key("BaseFont").Name()
	if i := strings.Index(f.baseFontRaw, "+"); i >= 0 {
		f.baseFontRaw = f.baseFontRaw[i+1:]
	}
	f.monospace = strings.Contains(f.baseFontRaw, "Courier")

	if tu := v.Key("ToUnicode"); tu.Kind() == Stream {
		f.toUnicode = readCmap(tu)
	}

	if f.subtype == "Type0" {
		f.initComposite()
	} else {
		f.initSimple()
	}
	logger.Debug(fmt.Sprintf("font: obj %d %s subtype=%s composite=%v toUnicode=%v",
		v.ptr.id, f.baseFontRaw, f.subtype, f.composite, f.toUnicode != nil))
	return f
}

// BaseFont returns the font's name without a subset prefix.
func (f *Font) BaseFont() string {
	return f.baseFontRaw
}

func (f *Font) initSimple() {
	desc := f.V.Key("FontDescriptor")
	flags := desc.Key("Flags").Int64()
	f.symbolic = flags&4 != 0 && flags&32 == 0
	f.missingW = desc.Key("MissingWidth").Float64()

	if f.subtype == "Type3" {
		if fm := f.V.Key("FontMatrix"); fm.Len() == 6 && fm.Index(0).Float64() != 0 {
			f.unitsPerEm = 1 / fm.Index(0).Float64()
		}
	}

	f.firstChar = int(f.V.Key("FirstChar").Int64())
	w := f.V.Key("Widths")
	for i := 0; i < w.Len(); i++ {
		f.widths = append(f.widths, w.Index(i).Float64())
	}

	base := &standardEncoding
	if f.symbolic || f.subtype == "Type3" || strings.HasPrefix(f.baseFontRaw, "Symbol") || strings.HasPrefix(f.baseFontRaw, "ZapfDingbats") {
		base = &latin1Encoding
	}
	enc := f.V.Key("Encoding")
	switch enc.Kind() {
	case Name:
		if t, ok := namedEncoding(enc.Name()); ok {
			base = t
		}
	case Dict:
		if t, ok := namedEncoding(enc.Key("BaseEncoding").Name()); ok {
			base = t
		}
	}
	table := *base
	if enc.Kind() == Dict {
		applyDifferences(&table, enc.Key("Differences"))
	}
	f.enc = &table
}

// applyDifferences overlays a /Differences array: an integer sets the next
// code, each following name is assigned to successive codes.
func applyDifferences(t *encodingTable, diff Value) {
	code := -1
	for i := 0; i < diff.Len(); i++ {
		x := diff.Index(i)
		switch x.Kind() {
		case Integer:
			code = int(x.Int64())
		case Name:
			if code >= 0 && code < len(t) {
				if r, ok := glyphRune(x.Name()); ok {
					t[code] = r
				} else {
					t[code] = utf8.RuneError
				}
			}
			code++
		}
	}
}

func (f *Font) initComposite() {
	f.composite = true
	enc := f.V.Key("Encoding")
	switch enc.Kind() {
	case Name:
		f.vertical = strings.HasSuffix(enc.Name(), "-V")
	case Stream:
		f.encCMap = readCmap(enc)
		f.vertical = enc.Key("WMode").Int64() == 1
	}

	desc := f.V.Key("DescendantFonts").Index(0)
	if dw := desc.Key("DW"); dw.Kind() == Integer || dw.Kind() == Real {
		f.defaultW = dw.Float64()
	}
	f.cidWidths = map[int]float64{}
	w := desc.Key("W")
	for i := 0; i < w.Len(); {
		first := int(w.Index(i).Int64())
		next := w.Index(i + 1)
		if next.Kind() == Array {
			for j := 0; j < next.Len(); j++ {
				f.cidWidths[first+j] = next.Index(j).Float64()
			}
			i += 2
			continue
		}
		if i+2 >= w.Len() {
			break
		}
		last := int(next.Int64())
		width := w.Index(i + 2).Float64()
		for c := first; c <= last && c-first < 1<<16; c++ {
			f.cidWidths[c] = width
		}
		i += 3
	}
}

// decode splits raw into character codes with their Unicode text and advance.
func (f *Font) decode(raw string) []charCode {
	var out []charCode
	for len(raw) > 0 {
		var cc charCode
		var code string
		if f.composite {
			code = f.nextCompositeCode(raw)
		} else {
			code = raw[:1]
		}
		raw = raw[len(code):]
		cc.code = codeInt(code)
		cc.single = len(code) == 1 && code[0] == ' '
		cc.runes = f.runes(code)
		cc.advance = f.width(code) / f.unitsPerEm
		out = append(out, cc)
	}
	return out
}

func (f *Font) nextCompositeCode(raw string) string {
	if f.encCMap != nil && f.encCMap.hasCodespace() {
		code, _ := f.encCMap.nextCode(raw)
		return code
	}
	if len(raw) < 2 {
		return raw
	}
	return raw[:2]
}

func (f *Font) runes(code string) []rune {
	if f.toUnicode != nil {
		if r, ok := f.toUnicode.lookup(code); ok && len(r) > 0 {
			return r
		}
	}
	if f.composite {
		return []rune{utf8.RuneError}
	}
	return []rune{f.enc[code[0]]}
}

func (f *Font) cid(code string) int {
	if f.encCMap != nil {
		if c, ok := f.encCMap.cid(code); ok {
			return c
		}
	}
	return codeInt(code)
}

// width returns the advance of code in glyph units.
func (f *Font) width(code string) float64 {
	if f.composite {
		if w, ok := f.cidWidths[f.cid(code)]; ok {
			return w
		}
		return f.defaultW
	}
	c := int(code[0])
	if i := c - f.firstChar; i >= 0 && i < len(f.widths) {
		return f.widths[i]
	}
	if f.missingW > 0 {
		return f.missingW
	}
	// standard 14 fonts carry no /Widths
	switch {
	case f.monospace:
		return 600
	case c == ' ':
		return 250
	}
	return 500
}
