// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfdoc

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexObject(s string) object {
	b := newBuffer(strings.NewReader(s), 0)
	b.allowEOF = true
	return b.readObject()
}

func TestBuffer_readObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want object
	}{
		{"integer", "42", int64(42)},
		{"negative", "-7", int64(-7)},
		{"real", "3.25", 3.25},
		{"leading dot", "-.5", -0.5},
		{"bool", "true", true},
		{"null", "null", nil},
		{"name", "/Type", name("Type")},
		{"name escape", "/A#20B", name("A B")},
		{"hex string", "<48 69>", "Hi"},
		{"odd hex string", "<414>", "A@"},
		{"literal", "(a (nested) string)", "a (nested) string"},
		{"escapes", `(\(\)\\\n\101\0)`, "()\\\nA\x00"},
		{"continuation", "(ab\\\ncd)", "abcd"},
		{"reference", "12 0 R", objptr{12, 0}},
		{"array", "[1 /N (s) [2]]", array{int64(1), name("N"), "s", array{int64(2)}}},
		{"dict", "<< /A 1 /B [true] >>", dict{"A": int64(1), "B": array{true}}},
		{"comment", "% hello\n7", int64(7)},
		{"keyword", "BT", keyword("BT")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lexObject(tt.in))
		})
	}
}

func TestBuffer_readObjectDef(t *testing.T) {
	obj := lexObject("3 0 obj\n<< /Length 5 >>\nstream\r\nhello\nendstream\nendobj")
	def, ok := obj.(objdef)
	require.True(t, ok)
	assert.Equal(t, objptr{3, 0}, def.ptr)
	strm, ok := def.obj.(stream)
	require.True(t, ok)
	assert.Equal(t, int64(5), strm.hdr["Length"])
	assert.Equal(t, objptr{3, 0}, strm.ptr)
	assert.Equal(t, int64(len("3 0 obj\n<< /Length 5 >>\nstream\r\n")), strm.offset)
}

func TestBuffer_DamagedDict(t *testing.T) {
	b := newBuffer(strings.NewReader("<< /A 1 2 >> 9"), 0)
	b.allowEOF = true
	assert.Equal(t, dict{"A": int64(1)}, b.readObject())
	assert.Equal(t, int64(2), b.readObject(), "parsing resumes at the stray token")
}

func TestBuffer_EOF(t *testing.T) {
	b := newBuffer(strings.NewReader("  "), 0)
	b.allowEOF = true
	assert.Equal(t, io.EOF, b.readToken())
	assert.NoError(t, b.err)

	b = newBuffer(strings.NewReader(""), 0)
	b.readToken()
	assert.Error(t, b.err, "EOF is an error unless allowed")
}

func TestBuffer_seekForward(t *testing.T) {
	b := newBuffer(strings.NewReader("hello world"), 0)
	b.allowEOF = true
	b.seekForward(6)
	assert.Equal(t, int64(6), b.readOffset())
	assert.Equal(t, keyword("world"), b.readToken())
}

func TestIsIntegerIsReal(t *testing.T) {
	for _, s := range []string{"0", "+1", "-20"} {
		assert.True(t, isInteger(s), s)
	}
	for _, s := range []string{"", "-", "1.0", "1e3"} {
		assert.False(t, isInteger(s), s)
	}
	for _, s := range []string{"1.0", ".5", "-3.", "+0.25"} {
		assert.True(t, isReal(s), s)
	}
	for _, s := range []string{"1..0", "1.2.3", "abc"} {
		assert.False(t, isReal(s), s)
	}
}
