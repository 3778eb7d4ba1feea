// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfdoc

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestPdfDocDecode(t *testing.T) {
	assert.Equal(t, "Hello!", pdfDocDecode("Hello!"))
	assert.Equal(t, "•", pdfDocDecode("\x80"), "bullet")
	assert.Equal(t, "€", pdfDocDecode("\xa0"), "euro")
	assert.Equal(t, "é", pdfDocDecode("\xe9"), "Latin-1 range")
}

func TestIsUTF16(t *testing.T) {
	assert.True(t, isUTF16("\xfe\xff\x00\x41"))
	assert.False(t, isUTF16("Hello"))
	assert.False(t, isUTF16("\xfe"))
}

func TestTextString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"utf16", "\xfe\xff\x00H\x00i\x20\x22", "Hi•"},
		{"utf16 surrogate pair", "\xfe\xff\xd8\x3d\xde\x00", "\U0001F600"},
		{"utf8 bom", "\xef\xbb\xbfnaïve", "naïve"},
		{"pdfdoc", "Caf\xe9 \x84", "Café —"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, textString(tt.in))
		})
	}
}

func TestGlyphRune(t *testing.T) {
	tests := []struct {
		glyph string
		want  rune
		ok    bool
	}{
		{"A", 'A', true},
		{"eacute", 'é', true},
		{"quoteright", '’', true},
		{"fi", 'ﬁ', true},
		{"uni20AC", '€', true},
		{"u1F600", '\U0001F600', true},
		{"a.sc", 'a', true},
		{"germandbls", 'ß', true},
		{"nosuchglyph", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.glyph, func(t *testing.T) {
			r, ok := glyphRune(tt.glyph)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, r)
			}
		})
	}
}

func TestNamedEncoding(t *testing.T) {
	win, ok := namedEncoding("WinAnsiEncoding")
	assert.True(t, ok)
	assert.Equal(t, '€', win[0x80])

	mac, ok := namedEncoding("MacRomanEncoding")
	assert.True(t, ok)
	assert.Equal(t, 'é', mac[0x8e])

	std, ok := namedEncoding("StandardEncoding")
	assert.True(t, ok)
	assert.Equal(t, 'A', std['A'])
	assert.Equal(t, '’', std[0x27])
	assert.Equal(t, 'ﬁ', std[0xae])
	assert.Equal(t, utf8.RuneError, std[0xff])

	doc, ok := namedEncoding("PDFDocEncoding")
	assert.True(t, ok)
	assert.Equal(t, '•', doc[0x80])
	assert.Equal(t, 'A', latin1Encoding['A'], "the shared Latin-1 table is untouched")
	assert.Equal(t, rune(0x80), latin1Encoding[0x80])

	_, ok = namedEncoding("Identity-H")
	assert.False(t, ok)
}

func TestApplyDifferences(t *testing.T) {
	table := standardEncoding
	diff := Value{data: array{int64(65), name("Aring"), name("bullet"), int64(200), name("nosuchglyph")}}
	applyDifferences(&table, diff)
	assert.Equal(t, 'Å', table[65])
	assert.Equal(t, '•', table[66])
	assert.Equal(t, 'C', table[67])
	assert.Equal(t, utf8.RuneError, table[200])
}
