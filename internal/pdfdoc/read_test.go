// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfdoc

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassoftware/viya-pdf-view/geom"
	"github.com/sassoftware/viya-pdf-view/internal/pdftest"
)

func newTestReader(t *testing.T, data []byte) *Reader {
	t.Helper()
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return r
}

func twoPages() pdftest.Document {
	return pdftest.Document{
		Pages: []pdftest.Page{
			{Content: pdftest.TextPage(72, 700, "Hello")},
			{Content: pdftest.TextPage(72, 700, "World")},
		},
	}
}

func readAll(t *testing.T, v Value) string {
	t.Helper()
	rc := v.Reader()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestNewReader_EmptyFile(t *testing.T) {
	_, err := NewReader(bytes.NewReader(nil), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Contains(t, err.Error(), "empty")
}

func TestNewReader_Layouts(t *testing.T) {
	tests := []struct {
		name     string
		compress bool
		xrefStrm bool
	}{
		{"xref table", false, false},
		{"xref stream", false, true},
		{"flate content", true, false},
		{"flate content with xref stream", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := twoPages()
			doc.Compress = tt.compress
			doc.XrefStream = tt.xrefStrm
			r := newTestReader(t, doc.Bytes())

			n, err := r.NumPage()
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			p, err := r.Page(1)
			require.NoError(t, err)
			assert.Equal(t, 1, p.Index)
			contents := p.Contents()
			require.Len(t, contents, 1)
			assert.Contains(t, readAll(t, contents[0]), "(World) Tj")
			assert.False(t, r.NeedsPassword())
			assert.True(t, r.Authenticated())
		})
	}
}

func TestOpen_File(t *testing.T) {
	path := twoPages().WriteFile(t)
	r, err := Open(path)
	require.NoError(t, err)
	n, err := r.NumPage()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, r.Close())
	// second close is a no-op
	require.NoError(t, r.Close())
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCheckHeader(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"1.4", "%PDF-1.4\n", false},
		{"2.0", "%PDF-2.0\r\n", false},
		{"leading garbage", "\xef\xbb\xbf%PDF-1.7\n", false},
		{"missing", "hello world", true},
		{"bad version", "%PDF-3.1\n", true},
		{"not a number", "%PDF-x.y\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckHeader(strings.NewReader(tt.data))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformed)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateEOFMarker(t *testing.T) {
	ok := "%PDF-1.4\n...\n%%EOF\r\n\n"
	assert.NoError(t, ValidateEOFMarker(strings.NewReader(ok), int64(len(ok))))

	bad := "%PDF-1.4\n...\n"
	assert.ErrorIs(t, ValidateEOFMarker(strings.NewReader(bad), int64(len(bad))), ErrMalformed)
}

func TestFindStartXref(t *testing.T) {
	data := "%PDF-1.4\nstartxref\n12\n%%EOF\nstartxref\n345\n%%EOF\n"
	off, err := FindStartXref(strings.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, int64(345), off, "the last startxref wins")
}

func TestFindStartXref_ErrorCases(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing", "%PDF-1.4\n%%EOF\n"},
		{"not an integer", "%PDF-1.4\nstartxref\nfoo\n%%EOF\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FindStartXref(strings.NewReader(tt.data), int64(len(tt.data)))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestNewReader_StartxrefOutsideFile(t *testing.T) {
	data := "%PDF-1.4\n1 0 obj\n<<>>\nendobj\nstartxref\n99999\n%%EOF\n"
	_, err := NewReader(strings.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestNewReader_RepairsShiftedOffsets(t *testing.T) {
	data := twoPages().Bytes()
	// Insert a comment after the header: every xref offset is now 10 bytes short.
	i := bytes.IndexByte(data, '\n') + 1
	shifted := append(append(append([]byte{}, data[:i]...), []byte("% padding\n")...), data[i:]...)
	// startxref must still point at the table.
	s := bytes.LastIndex(shifted, []byte("startxref\n"))
	require.Positive(t, s)
	var start int
	for _, c := range shifted[s+len("startxref\n"):] {
		if c < '0' || c > '9' {
			break
		}
		start = start*10 + int(c-'0')
	}
	fixed := append(append([]byte{}, shifted[:s]...), []byte("startxref\n")...)
	fixed = append(fixed, []byte(strconv.Itoa(start+10)+"\n%%EOF\n")...)

	r := newTestReader(t, fixed)
	n, err := r.NumPage()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	p, err := r.Page(0)
	require.NoError(t, err)
	assert.Contains(t, readAll(t, p.Contents()[0]), "(Hello) Tj")
}

func TestPage_OutOfRange(t *testing.T) {
	r := newTestReader(t, twoPages().Bytes())
	for _, i := range []int{-1, 2, 100} {
		_, err := r.Page(i)
		assert.ErrorIs(t, err, ErrPageRange, "index %d", i)
	}
}

func TestPage_Geometry(t *testing.T) {
	doc := pdftest.Document{
		MediaBox: []float64{0, 0, 300, 400},
		Rotate:   90,
		Pages: []pdftest.Page{
			{Content: "q Q"},
			{Content: "q Q", MediaBox: []float64{200, 100, 0, 0}, CropBox: []float64{10, 10, 190, 90}, Rotate: 180},
		},
	}
	r := newTestReader(t, doc.Bytes())

	p0, err := r.Page(0)
	require.NoError(t, err)
	mb, ok := p0.Box("MediaBox")
	require.True(t, ok)
	assert.Equal(t, geom.Rect{X0: 0, Y0: 0, X1: 300, Y1: 400}, mb, "inherited from the page tree")
	cb, ok := p0.Box("CropBox")
	assert.False(t, ok)
	assert.Equal(t, geom.Rect{}, cb)
	assert.Equal(t, 90, p0.Rotate())

	p1, err := r.Page(1)
	require.NoError(t, err)
	mb, ok = p1.Box("MediaBox")
	require.True(t, ok)
	assert.Equal(t, geom.Rect{X0: 0, Y0: 0, X1: 200, Y1: 100}, mb, "normalized")
	cb, ok = p1.Box("CropBox")
	require.True(t, ok)
	assert.Equal(t, geom.Rect{X0: 10, Y0: 10, X1: 190, Y1: 90}, cb)
	_, ok = p1.Box("TrimBox")
	assert.False(t, ok)
	assert.Equal(t, 180, p1.Rotate())
	assert.Equal(t, []string{"F1"}, p1.Fonts())
}

func TestReader_AgeStore(t *testing.T) {
	r := newTestReader(t, twoPages().Bytes())
	p, err := r.Page(0)
	require.NoError(t, err)
	readAll(t, p.Contents()[0])
	require.Positive(t, r.StoreLen())

	r.AgeStore(4)
	assert.Positive(t, r.StoreLen(), "one generation is within maxAge 4")

	r.AgeStore(0)
	assert.Equal(t, 0, r.StoreLen())
}

func TestDecodeInt(t *testing.T) {
	assert.Equal(t, 0, decodeInt(nil))
	assert.Equal(t, 1, decodeInt([]byte{1}))
	assert.Equal(t, 0x0102, decodeInt([]byte{1, 2}))
	assert.Equal(t, 0x010203, decodeInt([]byte{1, 2, 3}))
}

func TestEnsureLenAndSetIfEmpty(t *testing.T) {
	s := ensureLen([]xref{}, 3)
	assert.Len(t, s, 3)

	table := make([]xref, 2)
	setIfEmpty(&table, 1, xref{ptr: objptr{1, 0}, offset: 10})
	setIfEmpty(&table, 1, xref{ptr: objptr{1, 0}, offset: 20})
	assert.Equal(t, int64(10), table[1].offset, "an existing entry is kept")
}

func TestMergeXrefTables(t *testing.T) {
	dst := []xref{{}, {ptr: objptr{1, 0}, offset: 5}}
	src := []xref{{}, {ptr: objptr{1, 0}, offset: 9}, {ptr: objptr{2, 0}, offset: 7}}
	out := mergeXrefTables(dst, src)
	require.Len(t, out, 3)
	assert.Equal(t, int64(9), out[1].offset, "the later section wins when both are in use")
	assert.Equal(t, int64(7), out[2].offset)
}

func TestFindLastLine(t *testing.T) {
	buf := []byte("xstartxref\nstartxref\n12\n")
	assert.Equal(t, 11, findLastLine(buf, "startxref"))
	assert.Equal(t, -1, findLastLine([]byte("nothing here"), "startxref"))
}
