// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package pdftest builds small, valid PDF files in memory for tests.
//
// Builder works at the object level and computes the cross-reference
// offsets. Document is a convenience layer that lays out a page tree with a
// Helvetica font resource on every page.
package pdftest

import (
	"bytes"
	"compress/zlib"
	"crypto/md5"
	"crypto/rc4"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

var passwordPad = []byte{
	0x28, 0xbf, 0x4e, 0x5e, 0x4e, 0x75, 0x8a, 0x41, 0x64, 0x00, 0x4e, 0x56, 0xff, 0xfa, 0x01, 0x08,
	0x2e, 0x2e, 0x00, 0xb6, 0xd0, 0x68, 0x3e, 0x80, 0x2f, 0x0c, 0xa9, 0xfe, 0x64, 0x53, 0x69, 0x7a,
}

// fileID is the first /ID entry of every built file.
var fileID = []byte("viya-pdf-view-id")

// Builder accumulates numbered objects. Object numbers start at 1.
type Builder struct {
	objs    map[int][]byte
	next    int
	encrypt *encryption
}

type encryption struct {
	key []byte
	o   []byte
	u   []byte
	p   int32
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{objs: map[int][]byte{}, next: 1}
}

// Reserve allocates an object number whose body is set later with Set.
func (b *Builder) Reserve() int {
	id := b.next
	b.next++
	return id
}

// Set stores the body of object id.
func (b *Builder) Set(id int, body string) {
	b.objs[id] = []byte(body)
}

// Add stores a new object and returns its number.
func (b *Builder) Add(body string) int {
	id := b.Reserve()
	b.Set(id, body)
	return id
}

// AddStream stores a stream object. dict holds the entries without the
// enclosing << >> and without /Length. When the builder encrypts, data is
// encrypted with the object key.
func (b *Builder) AddStream(dict string, data []byte) int {
	id := b.Reserve()
	b.SetStream(id, dict, data)
	return id
}

// SetStream is AddStream for a reserved object number.
func (b *Builder) SetStream(id int, dict string, data []byte) {
	if b.encrypt != nil {
		data = b.encrypt.rc4(id, data)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<< %s /Length %d >>\nstream\n", dict, len(data))
	buf.Write(data)
	buf.WriteString("\nendstream")
	b.objs[id] = buf.Bytes()
}

// Str returns a hex string literal for s as it must appear inside object id.
func (b *Builder) Str(id int, s string) string {
	data := []byte(s)
	if b.encrypt != nil {
		data = b.encrypt.rc4(id, data)
	}
	return "<" + hex.EncodeToString(data) + ">"
}

// Encrypt switches the builder to the Standard security handler, RC4 with
// a 128-bit key (V2, R3). It must be called before any object is added.
func (b *Builder) Encrypt(userPassword, ownerPassword string) {
	if ownerPassword == "" {
		ownerPassword = userPassword
	}
	e := &encryption{p: -4}
	e.o = ownerHash(ownerPassword, userPassword)
	e.key = fileKey(userPassword, e.o, e.p)
	e.u = userHash(e.key)
	b.encrypt = e
}

// Bytes serializes the file with root as /Root and info as /Info (0 for
// none). With xrefStream the cross-reference section is written as a
// compressed /XRef stream instead of a table.
func (b *Builder) Bytes(root, info int, xrefStream bool) []byte {
	var encID int
	if b.encrypt != nil {
		encID = b.Reserve()
		b.objs[encID] = []byte(fmt.Sprintf(
			"<< /Filter /Standard /V 2 /R 3 /Length 128 /P %d /O <%x> /U <%x> >>",
			b.encrypt.p, b.encrypt.o, b.encrypt.u))
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	ids := make([]int, 0, len(b.objs))
	for id := range b.objs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	size := b.next
	if xrefStream {
		size++
	}
	offsets := make([]int, size)
	for _, id := range ids {
		offsets[id] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n", id)
		out.Write(b.objs[id])
		out.WriteString("\nendobj\n")
	}

	trailer := fmt.Sprintf("/Size %d /Root %d 0 R", size, root)
	if info > 0 {
		trailer += fmt.Sprintf(" /Info %d 0 R", info)
	}
	trailer += fmt.Sprintf(" /ID [<%x> <%x>]", fileID, fileID)
	if encID > 0 {
		trailer += fmt.Sprintf(" /Encrypt %d 0 R", encID)
	}

	start := out.Len()
	if xrefStream {
		xid := size - 1
		offsets[xid] = start
		var rows bytes.Buffer
		for id := 0; id < size; id++ {
			switch {
			case id == 0:
				rows.Write([]byte{0, 0, 0, 0, 0, 0xff, 0xff})
			case offsets[id] == 0:
				rows.Write([]byte{0, 0, 0, 0, 0, 0, 0})
			default:
				o := offsets[id]
				rows.Write([]byte{1, byte(o >> 24), byte(o >> 16), byte(o >> 8), byte(o), 0, 0})
			}
		}
		data := Deflate(rows.Bytes())
		fmt.Fprintf(&out, "%d 0 obj\n<< /Type /XRef %s /W [1 4 2] /Filter /FlateDecode /Length %d >>\nstream\n",
			xid, trailer, len(data))
		out.Write(data)
		out.WriteString("\nendstream\nendobj\n")
	} else {
		fmt.Fprintf(&out, "xref\n0 %d\n0000000000 65535 f \n", size)
		for id := 1; id < size; id++ {
			if offsets[id] == 0 {
				out.WriteString("0000000000 00001 f \n")
				continue
			}
			fmt.Fprintf(&out, "%010d 00000 n \n", offsets[id])
		}
		fmt.Fprintf(&out, "trailer\n<< %s >>\n", trailer)
	}
	fmt.Fprintf(&out, "startxref\n%d\n%%%%EOF\n", start)
	return out.Bytes()
}

// Deflate compresses data for /FlateDecode streams.
func Deflate(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

func (e *encryption) rc4(id int, data []byte) []byte {
	m := md5.New()
	m.Write(e.key)
	m.Write([]byte{byte(id), byte(id >> 8), byte(id >> 16), 0, 0})
	c, _ := rc4.NewCipher(m.Sum(nil))
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out
}

func pad(pw string) []byte {
	out := make([]byte, 32)
	n := copy(out, pw)
	copy(out[n:], passwordPad)
	return out
}

func rounds(key, data []byte) {
	k := make([]byte, len(key))
	for i := 0; i < 20; i++ {
		for j := range key {
			k[j] = key[j] ^ byte(i)
		}
		c, _ := rc4.NewCipher(k)
		c.XORKeyStream(data, data)
	}
}

func ownerHash(owner, user string) []byte {
	sum := md5.Sum(pad(owner))
	key := sum[:]
	for i := 0; i < 50; i++ {
		s := md5.Sum(key)
		key = s[:]
	}
	o := pad(user)
	rounds(key, o)
	return o
}

func fileKey(user string, o []byte, p int32) []byte {
	m := md5.New()
	m.Write(pad(user))
	m.Write(o)
	m.Write([]byte{byte(p), byte(p >> 8), byte(p >> 16), byte(p >> 24)})
	m.Write(fileID)
	key := m.Sum(nil)
	for i := 0; i < 50; i++ {
		s := md5.Sum(key)
		key = s[:]
	}
	return key
}

func userHash(key []byte) []byte {
	m := md5.New()
	m.Write(passwordPad)
	m.Write(fileID)
	u := m.Sum(nil)
	rounds(key, u)
	return append(u, make([]byte, 16)...)
}

// Page describes one page of a Document.
type Page struct {
	// MediaBox falls back to Document.MediaBox, which is then inherited
	// from the page tree root.
	MediaBox []float64
	CropBox  []float64
	Rotate   int
	// Content is the page content stream.
	Content string
}

// Document describes a whole file.
type Document struct {
	Pages []Page
	// MediaBox and Rotate are stored on the page tree root and inherited.
	MediaBox []float64
	Rotate   int

	Title  string
	Author string
	XMP    string

	Encrypt       bool
	UserPassword  string
	OwnerPassword string

	Compress   bool
	XrefStream bool
}

func box(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = fmt.Sprintf("%g", f)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Bytes builds the file.
func (d Document) Bytes() []byte {
	b := NewBuilder()
	if d.Encrypt {
		b.Encrypt(d.UserPassword, d.OwnerPassword)
	}
	catalog := b.Reserve()
	pages := b.Reserve()
	font := b.Add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	kids := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		dict := ""
		data := []byte(p.Content)
		if d.Compress {
			dict = "/Filter /FlateDecode"
			data = Deflate(data)
		}
		content := b.AddStream(dict, data)

		page := fmt.Sprintf("<< /Type /Page /Parent %d 0 R /Contents %d 0 R /Resources << /Font << /F1 %d 0 R >> >>",
			pages, content, font)
		if p.MediaBox != nil {
			page += " /MediaBox " + box(p.MediaBox)
		}
		if p.CropBox != nil {
			page += " /CropBox " + box(p.CropBox)
		}
		if p.Rotate != 0 {
			page += fmt.Sprintf(" /Rotate %d", p.Rotate)
		}
		kids = append(kids, fmt.Sprintf("%d 0 R", b.Add(page+" >>")))
	}

	mediaBox := d.MediaBox
	if mediaBox == nil {
		mediaBox = []float64{0, 0, 612, 792}
	}
	root := fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox %s",
		strings.Join(kids, " "), len(kids), box(mediaBox))
	if d.Rotate != 0 {
		root += fmt.Sprintf(" /Rotate %d", d.Rotate)
	}
	b.Set(pages, root+" >>")

	cat := fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R", pages)
	if d.XMP != "" {
		md := b.AddStream("/Type /Metadata /Subtype /XML", []byte(d.XMP))
		cat += fmt.Sprintf(" /Metadata %d 0 R", md)
	}
	b.Set(catalog, cat+" >>")

	info := 0
	if d.Title != "" || d.Author != "" {
		info = b.Reserve()
		b.Set(info, fmt.Sprintf("<< /Title %s /Author %s >>", b.Str(info, d.Title), b.Str(info, d.Author)))
	}
	return b.Bytes(catalog, info, d.XrefStream)
}

// WriteFile writes the document into a fresh file under t.TempDir and
// returns its path.
func (d Document) WriteFile(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, d.Bytes(), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// TextPage returns a content stream that shows each line with Helvetica
// 12pt, starting at (x, y) and moving down 14pt per line.
func TextPage(x, y float64, lines ...string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "BT /F1 12 Tf 14 TL %g %g Td\n", x, y)
	for i, l := range lines {
		if i > 0 {
			sb.WriteString("T*\n")
		}
		fmt.Fprintf(&sb, "(%s) Tj\n", escape(l))
	}
	sb.WriteString("ET\n")
	return sb.String()
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
