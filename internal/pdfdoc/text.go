// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfdoc

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// pdfDocOverrides lists the PDFDocEncoding code points that differ from
// ISO 8859-1.
var pdfDocOverrides = map[byte]rune{
	0x18: '˘', 0x19: 'ˇ', 0x1a: 'ˆ', 0x1b: '˙',
	0x1c: '˝', 0x1d: '˛', 0x1e: '˚', 0x1f: '˜',
	0x80: '•', 0x81: '†', 0x82: '‡', 0x83: '…',
	0x84: '—', 0x85: '–', 0x86: 'ƒ', 0x87: '⁄',
	0x88: '‹', 0x89: '›', 0x8a: '−', 0x8b: '‰',
	0x8c: '„', 0x8d: '“', 0x8e: '”', 0x8f: '‘',
	0x90: '’', 0x91: '‚', 0x92: '™', 0x93: 'ﬁ',
	0x94: 'ﬂ', 0x95: 'Ł', 0x96: 'Œ', 0x97: 'Š',
	0x98: 'Ÿ', 0x99: 'Ž', 0x9a: 'ı', 0x9b: 'ł',
	0x9c: 'œ', 0x9d: 'š', 0x9e: 'ž', 0x9f: '�',
	0xa0: '€', 0xad: '�',
}

func pdfDocDecode(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if r, ok := pdfDocOverrides[s[i]]; ok {
			sb.WriteRune(r)
			continue
		}
		sb.WriteRune(charmap.ISO8859_1.DecodeByte(s[i]))
	}
	return sb.String()
}

func isUTF16(s string) bool {
	return len(s) >= 2 && s[0] == 0xfe && s[1] == 0xff
}

// utf16Decode decodes big-endian UTF-16 without a byte order mark.
func utf16Decode(s string) string {
	out, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().String(s)
	if err != nil {
		return ""
	}
	return out
}

// textString converts a PDF text string to UTF-8.
func textString(s string) string {
	switch {
	case isUTF16(s):
		return utf16Decode(s[2:])
	case strings.HasPrefix(s, "\xef\xbb\xbf"):
		return s[3:]
	}
	return pdfDocDecode(s)
}
