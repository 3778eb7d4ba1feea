// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfdoc

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// An encodingTable maps single-byte character codes to Unicode.
// Unmapped codes hold utf8.RuneError.
type encodingTable [256]rune

var (
	winAnsiEncoding   = tableFromCharmap(charmap.Windows1252)
	macRomanEncoding  = tableFromCharmap(charmap.Macintosh)
	latin1Encoding    = tableFromCharmap(charmap.ISO8859_1)
	nameToRune        = buildNameToRune()
	standardEncoding  = buildStandardEncoding()
	standardUpperHalf = map[byte]string{
		0xa1: "exclamdown", 0xa2: "cent", 0xa3: "sterling", 0xa4: "fraction",
		0xa5: "yen", 0xa6: "florin", 0xa7: "section", 0xa8: "currency",
		0xa9: "quotesingle", 0xaa: "quotedblleft", 0xab: "guillemotleft", 0xac: "guilsinglleft",
		0xad: "guilsinglright", 0xae: "fi", 0xaf: "fl", 0xb1: "endash",
		0xb2: "dagger", 0xb3: "daggerdbl", 0xb4: "periodcentered", 0xb6: "paragraph",
		0xb7: "bullet", 0xb8: "quotesinglbase", 0xb9: "quotedblbase", 0xba: "quotedblright",
		0xbb: "guillemotright", 0xbc: "ellipsis", 0xbd: "perthousand", 0xbf: "questiondown",
		0xc1: "grave", 0xc2: "acute", 0xc3: "circumflex", 0xc4: "tilde",
		0xc5: "macron", 0xc6: "breve", 0xc7: "dotaccent", 0xc8: "dieresis",
		0xca: "ring", 0xcb: "cedilla", 0xcd: "hungarumlaut", 0xce: "ogonek",
		0xcf: "caron", 0xd0: "emdash", 0xe1: "AE", 0xe3: "ordfeminine",
		0xe8: "Lslash", 0xe9: "Oslash", 0xea: "OE", 0xeb: "ordmasculine",
		0xf1: "ae", 0xf5: "dotlessi", 0xf8: "lslash", 0xf9: "oslash",
		0xfa: "oe", 0xfb: "germandbls",
	}
)

// glyph names of the Windows-1252 code points from 0x20 on, in code order
const winAnsiNames = "space exclam quotedbl numbersign dollar percent ampersand quotesingle " +
	"parenleft parenright asterisk plus comma hyphen period slash " +
	"zero one two three four five six seven eight nine colon semicolon less equal greater question " +
	"at A B C D E F G H I J K L M N O P Q R S T U V W X Y Z bracketleft backslash bracketright asciicircum underscore " +
	"grave a b c d e f g h i j k l m n o p q r s t u v w x y z braceleft bar braceright asciitilde .notdef " +
	"Euro .notdef quotesinglbase florin quotedblbase ellipsis dagger daggerdbl " +
	"circumflex perthousand Scaron guilsinglleft OE .notdef Zcaron .notdef " +
	".notdef quoteleft quoteright quotedblleft quotedblright bullet endash emdash " +
	"tilde trademark scaron guilsinglright oe .notdef zcaron Ydieresis " +
	"nbspace exclamdown cent sterling currency yen brokenbar section " +
	"dieresis copyright ordfeminine guillemotleft logicalnot sfthyphen registered macron " +
	"degree plusminus twosuperior threesuperior acute mu paragraph periodcentered " +
	"cedilla onesuperior ordmasculine guillemotright onequarter onehalf threequarters questiondown " +
	"Agrave Aacute Acircumflex Atilde Adieresis Aring AE Ccedilla " +
	"Egrave Eacute Ecircumflex Edieresis Igrave Iacute Icircumflex Idieresis " +
	"Eth Ntilde Ograve Oacute Ocircumflex Otilde Odieresis multiply " +
	"Oslash Ugrave Uacute Ucircumflex Udieresis Yacute Thorn germandbls " +
	"agrave aacute acircumflex atilde adieresis aring ae ccedilla " +
	"egrave eacute ecircumflex edieresis igrave iacute icircumflex idieresis " +
	"eth ntilde ograve oacute ocircumflex otilde odieresis divide " +
	"oslash ugrave uacute ucircumflex udieresis yacute thorn ydieresis"

var extraGlyphNames = map[string]rune{
	"fi": 0xfb01, "fl": 0xfb02, "ff": 0xfb00, "ffi": 0xfb03, "ffl": 0xfb04,
	"minus": 0x2212, "fraction": 0x2044, "dotlessi": 0x0131,
	"Lslash": 0x0141, "lslash": 0x0142, "breve": 0x02d8, "caron": 0x02c7,
	"dotaccent": 0x02d9, "ring": 0x02da, "ogonek": 0x02db, "hungarumlaut": 0x02dd,
	"middot": 0x00b7, "nbspace": 0x00a0, "sfthyphen": 0x00ad, "space": 0x20,
	"hyphen": 0x2d, "quotesingle": 0x27, "grave": 0x60,
}

func buildNameToRune() map[string]rune {
	m := map[string]rune{}
	for i, n := range strings.Fields(winAnsiNames) {
		if n == ".notdef" {
			continue
		}
		if _, ok := m[n]; !ok {
			m[n] = winAnsiEncoding[0x20+i]
		}
	}
	for n, r := range extraGlyphNames {
		m[n] = r
	}
	return m
}

func buildStandardEncoding() encodingTable {
	var t encodingTable
	for i := range t {
		t[i] = utf8.RuneError
	}
	for c := 0x20; c < 0x7f; c++ {
		t[c] = rune(c)
	}
	t[0x27] = nameToRune["quoteright"]
	t[0x60] = nameToRune["quoteleft"]
	for c, n := range standardUpperHalf {
		t[c] = nameToRune[n]
	}
	return t
}

func tableFromCharmap(cm *charmap.Charmap) encodingTable {
	var t encodingTable
	for i := range t {
		t[i] = cm.DecodeByte(byte(i))
	}
	return t
}

// glyphRune maps a glyph name to Unicode: the standard names, then the
// uniXXXX and uXXXX[XX] forms, then a single-letter name.
func glyphRune(glyph string) (rune, bool) {
	if r, ok := nameToRune[glyph]; ok {
		return r, true
	}
	if i := strings.IndexByte(glyph, '.'); i > 0 {
		return glyphRune(glyph[:i])
	}
	switch {
	case strings.HasPrefix(glyph, "uni") && len(glyph) >= 7:
		if x, err := strconv.ParseUint(glyph[3:7], 16, 32); err == nil {
			return rune(x), true
		}
	case strings.HasPrefix(glyph, "u") && len(glyph) >= 5 && len(glyph) <= 7:
		if x, err := strconv.ParseUint(glyph[1:], 16, 32); err == nil && x <= utf8.MaxRune {
			return rune(x), true
		}
	}
	if utf8.RuneCountInString(glyph) == 1 {
		r, _ := utf8.DecodeRuneInString(glyph)
		return r, true
	}
	return 0, false
}

func namedEncoding(n string) (*encodingTable, bool) {
	switch n {
	case "WinAnsiEncoding":
		return &winAnsiEncoding, true
	case "MacRomanEncoding":
		return &macRomanEncoding, true
	case "StandardEncoding":
		return &standardEncoding, true
	case "PDFDocEncoding":
		t := latin1Encoding
		for c, r := range pdfDocOverrides {
			t[c] = r
		}
		return &t, true
	}
	return nil, false
}
