// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfdoc

import (
	"fmt"

	"github.com/sassoftware/viya-pdf-view/logger"
)

type byteRange struct {
	low  string
	high string
}

type bfchar struct {
	orig string
	repl string
}

type bfrange struct {
	lo  string
	hi  string
	dst Value
}

type cidrange struct {
	lo, hi string
	cid    int
}

// A cmap is either a ToUnicode map (bfchar/bfrange) or an encoding CMap
// (cidchar/cidrange). Both share the codespace ranges that split a string
// into character codes.
type cmap struct {
	space   [4][]byteRange // codespace ranges by code length
	bfrange []bfrange
	bfchar  []bfchar
	cids    []cidrange
}

// nextCode returns the next character code in raw according to the
// codespace ranges. When no range matches, the first byte is returned as a
// one-byte code.
func (m *cmap) nextCode(raw string) (string, bool) {
	for n := 1; n <= 4 && n <= len(raw); n++ {
		for _, space := range m.space[n-1] {
			if space.low <= raw[:n] && raw[:n] <= space.high {
				return raw[:n], true
			}
		}
	}
	return raw[:1], false
}

func (m *cmap) hasCodespace() bool {
	for _, s := range m.space {
		if len(s) > 0 {
			return true
		}
	}
	return false
}

// lookup maps one character code to its Unicode text.
func (m *cmap) lookup(code string) ([]rune, bool) {
	for _, bf := range m.bfchar {
		if bf.orig == code {
			return []rune(utf16Decode(bf.repl)), true
		}
	}
	for _, br := range m.bfrange {
		if len(br.lo) != len(code) || code < br.lo || br.hi < code {
			continue
		}
		off := codeInt(code) - codeInt(br.lo)
		switch br.dst.Kind() {
		case String:
			return bfrangeString(br.dst.RawString(), off), true
		case Array:
			if v := br.dst.Index(off); v.Kind() == String {
				return []rune(utf16Decode(v.RawString())), true
			}
		}
	}
	return nil, false
}

// cid maps a character code through cidchar/cidrange entries.
func (m *cmap) cid(code string) (int, bool) {
	for _, c := range m.cids {
		if len(c.lo) == len(code) && c.lo <= code && code <= c.hi {
			return c.cid + codeInt(code) - codeInt(c.lo), true
		}
	}
	return 0, false
}

func codeInt(s string) int {
	x := 0
	for i := 0; i < len(s); i++ {
		x = x<<8 | int(s[i])
	}
	return x
}

// bfrangeString offsets the last UTF-16 unit of dst by off.
func bfrangeString(dst string, off int) []rune {
	b := []byte(dst)
	if len(b) < 2 {
		if len(b) == 1 {
			return []rune{rune(int(b[0]) + off)}
		}
		return nil
	}
	n := len(b)
	v := (int(b[n-2])<<8 | int(b[n-1])) + off
	b[n-2], b[n-1] = byte(v>>8), byte(v)
	return []rune(utf16Decode(string(b)))
}

func readCmap(strm Value) *cmap {
	n := -1
	var m cmap
	ok := true
	err := Interpret(strm, func(stk *Stack, op string) {
		if !ok {
			return
		}
		switch op {
		case "findresource":
			stk.Pop() // category
			stk.Pop() // key
			stk.Push(Value{strm.r, objptr{}, make(dict)})
		case "begincmap":
			stk.Push(Value{strm.r, objptr{}, make(dict)})
		case "endcmap":
			stk.Pop()
		case "begincodespacerange", "beginbfchar", "beginbfrange", "begincidchar", "begincidrange":
			n = int(stk.Pop().Int64())
			if n < 0 || n > maxOperands/3 {
				ok = false
			}
		case "endcodespacerange":
			if n < 0 {
				ok = false
				return
			}
			for i := 0; i < n; i++ {
				hi, lo := stk.Pop().RawString(), stk.Pop().RawString()
				if len(lo) == 0 || len(lo) > 4 || len(lo) != len(hi) {
					ok = false
					return
				}
				m.space[len(lo)-1] = append(m.space[len(lo)-1], byteRange{lo, hi})
			}
			n = -1
		case "endbfchar":
			for i := 0; i < n; i++ {
				repl, orig := stk.Pop().RawString(), stk.Pop().RawString()
				m.bfchar = append(m.bfchar, bfchar{orig, repl})
			}
			n = -1
		case "endbfrange":
			for i := 0; i < n; i++ {
				dst, srcHi, srcLo := stk.Pop(), stk.Pop().RawString(), stk.Pop().RawString()
				m.bfrange = append(m.bfrange, bfrange{srcLo, srcHi, dst})
			}
			n = -1
		case "endcidchar":
			for i := 0; i < n; i++ {
				cid, code := stk.Pop().Int64(), stk.Pop().RawString()
				m.cids = append(m.cids, cidrange{code, code, int(cid)})
			}
			n = -1
		case "endcidrange":
			for i := 0; i < n; i++ {
				cid, hi, lo := stk.Pop().Int64(), stk.Pop().RawString(), stk.Pop().RawString()
				m.cids = append(m.cids, cidrange{lo, hi, int(cid)})
			}
			n = -1
		case "defineresource":
			stk.Pop() // category
			value := stk.Pop()
			stk.Pop() // key
			stk.Push(value)
		}
	})
	if err != nil {
		logger.Debug(fmt.Sprintf("cmap: obj %d: %v", strm.ptr.id, err))
	}
	if !ok {
		logger.Debug(fmt.Sprintf("cmap: obj %d: malformed", strm.ptr.id))
		return nil
	}
	return &m
}
