// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package pdfdoc implements reading of PDF files for the viewer.
//
// # Overview
//
// A PDF is a data structure built from Values, each of which has one of the
// following Kinds: Null, Integer, Real, Bool, Name, String, Dict, Array and
// Stream. The accessors on Value return a zero result when there is no
// appropriate view, which keeps traversal of the object graph free of error
// checks. Failures that matter to the viewer (a broken cross-reference table,
// a wrong password, an unreadable page) are reported as errors by the Reader,
// Page and Run entry points.
//
// On top of the object graph the package provides the flattened page tree
// with inherited geometry, font decoding, and a content stream interpreter
// that drives a device.Device.
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sassoftware/viya-pdf-view/logger"
)

// ErrMalformed wraps structural failures while reading the file.
var ErrMalformed = errors.New("malformed PDF")

// A Reader is a single PDF file open for reading.
type Reader struct {
	f          io.ReaderAt
	end        int64
	closer     io.Closer
	xref       []xref
	trailer    dict
	trailerptr objptr

	security      *securityHandler
	dec           *decrypter
	needsPassword bool

	store *objectStore

	pagesOnce sync.Once
	pages     []Page
	pagesErr  error

	loaded atomic.Int64 // LoadedPages not yet closed
}

type xref struct {
	ptr      objptr
	inStream bool
	stream   objptr
	offset   int64
}

// Open opens the named file. The returned Reader owns the file and closes it
// in Close.
func Open(file string) (*Reader, error) {
	logger.Debug(fmt.Sprintf("document: open file=%s", file), true)
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	r, err := OpenFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// OpenFile reads from an already open file. The Reader takes ownership of f.
func OpenFile(f *os.File) (*Reader, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	logger.Debug(fmt.Sprintf("document: file=%s opened (size=%d)", f.Name(), fi.Size()), true)
	r, err := NewReader(f, fi.Size())
	if err != nil {
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewReader opens a file for reading, using the data in f with the given total size.
// Encrypted files are tried with the empty password; when that fails
// NeedsPassword reports true and Authenticate must succeed before any page
// content can be read.
func NewReader(f io.ReaderAt, size int64) (*Reader, error) {
	logger.Debug("Checking Header", true)
	if err := CheckHeader(f); err != nil {
		return nil, err
	}

	logger.Debug("Checking End of file Marker", true)
	if err := ValidateEOFMarker(f, size); err != nil {
		return nil, err
	}

	logger.Debug("Checking Startxref", true)
	startxref, err := FindStartXref(f, size)
	if err != nil {
		return nil, err
	}
	if startxref < 0 || startxref >= size {
		return nil, fmt.Errorf("%w: startxref %d outside file", ErrMalformed, startxref)
	}

	logger.Debug("Checking xref table + trailer", true)
	r := &Reader{f: f, end: size, store: newObjectStore()}
	b := newBuffer(io.NewSectionReader(r.f, startxref, r.end-startxref), startxref)
	xref, trailerptr, trailer, err := readXref(r, b)
	if err != nil {
		return nil, err
	}
	r.xref = xref
	r.trailer = trailer
	r.trailerptr = trailerptr

	if trailer["Encrypt"] != nil {
		if err := r.initEncrypt(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Reader) initEncrypt() error {
	encrypt, ok := r.resolve(objptr{}, r.trailer["Encrypt"]).data.(dict)
	if !ok {
		return fmt.Errorf("%w: cannot resolve Encrypt dictionary", ErrMalformed)
	}
	h, err := newSecurityHandler(encrypt, r.trailer)
	if err != nil {
		return err
	}
	r.security = h
	if !r.Authenticate("") {
		r.needsPassword = true
		logger.Debug("document: encrypted, password required", true)
	}
	return nil
}

// NeedsPassword reports whether the document is encrypted and the empty
// password did not unlock it.
func (r *Reader) NeedsPassword() bool {
	return r.needsPassword
}

// Authenticate tries password as the user and then as the owner password.
// On success the object store is flushed so objects read before
// authentication are decrypted on their next use.
func (r *Reader) Authenticate(password string) (ok bool) {
	if r.security == nil {
		return true
	}
	defer func() {
		if e := recover(); e != nil {
			logger.Error(fmt.Sprintf("authenticate: %v", e))
			ok = false
		}
	}()
	dec, err := r.security.authenticate(password)
	if err != nil {
		return false
	}
	r.dec = dec
	r.store.flush()
	return true
}

// Authenticated reports whether the document can be read.
func (r *Reader) Authenticated() bool {
	return r.security == nil || r.dec != nil
}

// Close releases the file when the Reader owns it and drops the object store.
func (r *Reader) Close() error {
	r.store.flush()
	if r.closer != nil {
		c := r.closer
		r.closer = nil
		return c.Close()
	}
	return nil
}

// AgeStore ages every cached object by one generation and evicts those
// older than maxAge.
func (r *Reader) AgeStore(maxAge int) {
	n := r.store.age(maxAge)
	logger.Debug(fmt.Sprintf("store: aged maxAge=%d evicted=%d resident=%d", maxAge, n, r.store.len()))
}

// StoreLen reports the number of cached objects.
func (r *Reader) StoreLen() int {
	return r.store.len()
}

// CheckHeader validates the PDF header at the beginning of the file.
// It ensures the file starts with "%PDF-x.y" and the version is within 1.0–1.7 or 2.0.
func CheckHeader(f io.ReaderAt) error {
	buf := make([]byte, 1024)
	n, err := f.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		logger.Error(fmt.Sprintf("Failed to read initial bytes for header check: %v", err))
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: not a PDF file: empty", ErrMalformed)
	}
	buf = buf[:n]
	// "%PDF-" may follow a BOM or other garbage
	p := bytes.Index(buf, []byte("%PDF-"))
	if p < 0 {
		return fmt.Errorf("%w: not a PDF file: missing %%PDF- header", ErrMalformed)
	}
	line := buf[p:]
	if end := bytes.IndexAny(line, "\r\n"); end >= 0 {
		line = line[:end]
	}
	line = bytes.TrimRight(line, " \t\x00")

	var major, minor int
	if _, err := fmt.Sscanf(string(line), "%%PDF-%d.%d", &major, &minor); err != nil {
		return fmt.Errorf("%w: not a PDF file: malformed version", ErrMalformed)
	}
	if !((major == 1 && minor >= 0 && minor <= 7) || (major == 2 && minor == 0)) {
		return fmt.Errorf("%w: unsupported PDF version %d.%d", ErrMalformed, major, minor)
	}
	logger.Debug(fmt.Sprintf("header: PDF-%d.%d", major, minor), true)
	return nil
}

// ValidateEOFMarker checks the last chunk of the file for the "%%EOF" marker.
func ValidateEOFMarker(f io.ReaderAt, size int64) error {
	const endChunk = 1024
	off := size - endChunk
	if off < 0 {
		off = 0
	}
	buf := make([]byte, size-off)
	n, err := f.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return err
	}
	buf = bytes.TrimRight(buf[:n], "\r\n\t \x00")
	if !bytes.HasSuffix(buf, []byte("%%EOF")) {
		return fmt.Errorf("%w: missing %%%%EOF", ErrMalformed)
	}
	return nil
}

// FindStartXref locates and parses the "startxref" pointer near the end of the file.
// Returns the byte offset where the cross-reference table/stream begins.
func FindStartXref(f io.ReaderAt, size int64) (int64, error) {
	const endChunk = 1024
	base := size - endChunk
	if base < 0 {
		base = 0
	}
	buf := make([]byte, size-base)
	if _, err := f.ReadAt(buf, base); err != nil && err != io.EOF {
		return 0, err
	}
	i := findLastLine(buf, "startxref")
	if i < 0 {
		return 0, fmt.Errorf("%w: missing final startxref", ErrMalformed)
	}
	pos := base + int64(i)
	b := newBuffer(io.NewSectionReader(f, pos, size-pos), pos)
	b.allowEOF = true

	if tok := b.readToken(); tok != keyword("startxref") {
		return 0, fmt.Errorf("%w: missing startxref: %v", ErrMalformed, tok)
	}
	startxref, ok := b.readToken().(int64)
	if !ok {
		return 0, fmt.Errorf("%w: startxref not followed by integer", ErrMalformed)
	}
	logger.Debug(fmt.Sprintf("xref: FindStartXref -- startxref=%d", startxref), true)
	return startxref, nil
}

// Trailer returns the file's Trailer value.
func (r *Reader) Trailer() Value {
	return Value{r, r.trailerptr, r.trailer}
}

func readXref(r *Reader, b *buffer) ([]xref, objptr, dict, error) {
	tok := b.readToken()
	if tok == keyword("xref") {
		logger.Debug("Found Xref Table", true)
		return readXrefTable(r, b)
	}
	if _, ok := tok.(int64); ok {
		b.unreadToken(tok)
		logger.Debug("Found Xref Stream", true)
		return readXrefStream(r, b)
	}
	return nil, objptr{}, nil, fmt.Errorf("%w: cross-reference table nor stream found: %v", ErrMalformed, tok)
}

func readXrefStream(r *Reader, b *buffer) ([]xref, objptr, dict, error) {
	strmptr, strm, err := parseXrefStreamObject(b)
	if err != nil {
		return nil, objptr{}, nil, err
	}
	size, err := xrefSize(strm)
	if err != nil {
		return nil, objptr{}, nil, err
	}
	table := make([]xref, size)
	table, err = readXrefStreamData(r, strm, table, size)
	if err != nil {
		return nil, objptr{}, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	table, err = mergePrevXrefStreams(r, strm, table, size)
	if err != nil {
		return nil, objptr{}, nil, err
	}
	return table, strmptr, strm.hdr, nil
}

// parseXrefStreamObject reads one object from b and checks that it is an
// /XRef stream.
func parseXrefStreamObject(b *buffer) (objptr, stream, error) {
	obj1 := b.readObject()
	od, ok := obj1.(objdef)
	if !ok {
		return objptr{}, stream{}, fmt.Errorf("%w: objdef not found: %v", ErrMalformed, objfmt(obj1))
	}
	strm, ok := od.obj.(stream)
	if !ok {
		return objptr{}, stream{}, fmt.Errorf("%w: cross-reference stream not found: %v", ErrMalformed, objfmt(od))
	}
	if strm.hdr["Type"] != name("XRef") {
		return objptr{}, stream{}, fmt.Errorf("%w: xref stream does not have type XRef", ErrMalformed)
	}
	return od.ptr, strm, nil
}

func xrefSize(strm stream) (int64, error) {
	if size, ok := strm.hdr["Size"].(int64); ok && size >= 0 && size < 1<<24 {
		return size, nil
	}
	return 0, fmt.Errorf("%w: xref stream missing Size", ErrMalformed)
}

// mergePrevXrefStreams follows the /Prev chain, merging each older stream.
func mergePrevXrefStreams(r *Reader, cur stream, table []xref, maxSize int64) ([]xref, error) {
	seen := map[int64]bool{}
	for prevoff := cur.hdr["Prev"]; prevoff != nil; {
		off, ok := prevoff.(int64)
		if !ok || off < 0 || off >= r.end {
			return nil, fmt.Errorf("%w: xref Prev is not a valid offset: %v", ErrMalformed, prevoff)
		}
		if seen[off] {
			logger.Error(fmt.Sprintf("xref: Prev loop at offset %d", off))
			break
		}
		seen[off] = true
		logger.Debug(fmt.Sprintf("xref: Prev stream offset=%d", off), true)
		b := newBuffer(io.NewSectionReader(r.f, off, r.end-off), off)
		_, prevStrm, err := parseXrefStreamObject(b)
		if err != nil {
			return nil, err
		}
		prevoff = prevStrm.hdr["Prev"]
		psize, _ := prevStrm.hdr["Size"].(int64)
		if psize > maxSize {
			return nil, fmt.Errorf("%w: xref prev stream larger than last stream", ErrMalformed)
		}
		table, err = readXrefStreamData(r, prevStrm, table, psize)
		if err != nil {
			return nil, fmt.Errorf("%w: reading xref prev stream: %v", ErrMalformed, err)
		}
	}
	return table, nil
}

func readXrefStreamData(r *Reader, strm stream, table []xref, size int64) ([]xref, error) {
	index, _ := strm.hdr["Index"].(array)
	if index == nil {
		index = array{int64(0), size}
	}
	if len(index)%2 != 0 {
		return nil, fmt.Errorf("invalid Index array %v", objfmt(index))
	}

	ww, ok := strm.hdr["W"].(array)
	if !ok {
		return nil, errors.New("xref stream missing W array")
	}
	var w []int
	for _, x := range ww {
		i, ok := x.(int64)
		if !ok || i < 0 || i > 8 {
			return nil, fmt.Errorf("invalid W array %v", objfmt(ww))
		}
		w = append(w, int(i))
	}
	if len(w) < 3 {
		return nil, fmt.Errorf("invalid W array %v", objfmt(ww))
	}

	v := Value{r, objptr{}, strm}
	buf := make([]byte, w[0]+w[1]+w[2])
	data := v.Reader()
	defer data.Close()
	for len(index) > 0 {
		start, ok1 := index[0].(int64)
		n, ok2 := index[1].(int64)
		if !ok1 || !ok2 || start < 0 || n < 0 || start+n > 1<<24 {
			return nil, fmt.Errorf("malformed Index pair %v %v", objfmt(index[0]), objfmt(index[1]))
		}
		index = index[2:]
		for i := 0; i < int(n); i++ {
			if _, err := io.ReadFull(data, buf); err != nil {
				return nil, fmt.Errorf("error reading xref stream: %v", err)
			}
			v1 := decodeInt(buf[0:w[0]])
			if w[0] == 0 {
				v1 = 1
			}
			v2 := decodeInt(buf[w[0] : w[0]+w[1]])
			v3 := decodeInt(buf[w[0]+w[1] : w[0]+w[1]+w[2]])
			x := int(start) + i
			table = ensureLen(table, x+1)
			if table[x].ptr != (objptr{}) {
				continue
			}
			switch v1 {
			case 0:
				table[x] = xref{ptr: objptr{0, 65535}}
			case 1:
				table[x] = xref{ptr: objptr{uint32(x), uint16(v3)}, offset: int64(v2)}
			case 2:
				table[x] = xref{ptr: objptr{uint32(x), 0}, inStream: true, stream: objptr{uint32(v2), 0}, offset: int64(v3)}
			default:
				logger.Debug(fmt.Sprintf("xref: invalid stream entry type %d: %x", v1, buf))
			}
		}
	}
	return table, nil
}

func decodeInt(b []byte) int {
	x := 0
	for _, c := range b {
		x = x<<8 | int(c)
	}
	return x
}

func readXrefTable(r *Reader, b *buffer) ([]xref, objptr, dict, error) {
	table, trailer, err := parseXrefTableAndTrailer(b, nil)
	if err != nil {
		return nil, objptr{}, nil, err
	}

	// hybrid files: merge the stream pointed to by /XRefStm
	table, trailer, err = r.handleTrailerXRefStm(table, trailer)
	if err != nil {
		logger.Error(fmt.Sprintf("readXrefTable: XRefStm handling error: %v. Falling back to Prev chain.", err))
	}

	table, err = resolvePrevXrefTables(r, trailer, table)
	if err != nil {
		return nil, objptr{}, nil, err
	}

	if err := validateTrailerSize(&table, trailer); err != nil {
		return nil, objptr{}, nil, err
	}
	return table, objptr{}, trailer, nil
}

// parseXrefTableAndTrailer parses a single xref table section
// and the trailer dictionary that follows it.
func parseXrefTableAndTrailer(b *buffer, table []xref) ([]xref, dict, error) {
	table, err := readXrefTableData(b, table)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	trailer, ok := b.readObject().(dict)
	if !ok {
		return nil, nil, fmt.Errorf("%w: xref table not followed by trailer dictionary", ErrMalformed)
	}
	return table, trailer, nil
}

// resolvePrevXrefTables walks the /Prev chain of classic tables. The newest
// trailer stays authoritative; older sections only fill empty slots.
func resolvePrevXrefTables(r *Reader, trailer dict, table []xref) ([]xref, error) {
	seen := map[int64]bool{}
	for prevoff := trailer[name("Prev")]; prevoff != nil; {
		off, ok := prevoff.(int64)
		if !ok || off < 0 || off >= r.end {
			return nil, fmt.Errorf("%w: xref Prev is not a valid offset: %v", ErrMalformed, prevoff)
		}
		if seen[off] {
			logger.Error(fmt.Sprintf("xref: Prev loop at offset %d", off))
			break
		}
		seen[off] = true
		b := newBuffer(io.NewSectionReader(r.f, off, r.end-off), off)
		if tok := b.readToken(); tok != keyword("xref") {
			return nil, fmt.Errorf("%w: xref Prev does not point to xref", ErrMalformed)
		}
		var prev dict
		var err error
		table, prev, err = parseXrefTableAndTrailer(b, table)
		if err != nil {
			return nil, err
		}
		table, prev, err = r.handleTrailerXRefStm(table, prev)
		if err != nil {
			logger.Debug(fmt.Sprintf("warning: XRefStm handling error in Prev chain: %v; continuing", err))
		}
		prevoff = prev[name("Prev")]
	}
	return table, nil
}

// validateTrailerSize trims the xref table to the declared /Size in trailer.
func validateTrailerSize(table *[]xref, trailer dict) error {
	size, ok := trailer[name("Size")].(int64)
	if !ok {
		return fmt.Errorf("%w: trailer missing /Size entry", ErrMalformed)
	}
	if size >= 0 && size < int64(len(*table)) {
		*table = (*table)[:size]
	}
	return nil
}

// ensureLen makes sure s has length at least n (growing capacity if needed)
// and returns the possibly-reallocated slice.
func ensureLen[T any](s []T, n int) []T {
	if n <= len(s) {
		return s
	}
	if cap(s) < n {
		ns := make([]T, n)
		copy(ns, s)
		return ns
	}
	return s[:n]
}

// setIfEmpty sets table[x] to val only if the slot is currently empty.
func setIfEmpty(table *[]xref, x int, val xref) {
	if x < 0 {
		return
	}
	*table = ensureLen(*table, x+1)
	if (*table)[x].ptr == (objptr{}) {
		(*table)[x] = val
	}
}

func readXrefTableData(b *buffer, table []xref) ([]xref, error) {
	for {
		tok := b.readToken()
		if tok == keyword("trailer") {
			break
		}
		start, ok1 := tok.(int64)
		count, ok2 := b.readToken().(int64)
		if !ok1 || !ok2 || start < 0 || count < 0 || start+count > 1<<24 {
			return nil, errors.New("malformed xref table subsection header")
		}
		for i := 0; i < int(count); i++ {
			off, okOff := b.readToken().(int64)
			gen, okGen := b.readToken().(int64)
			alloc, okAlloc := b.readToken().(keyword)
			if !okOff || !okGen || !okAlloc {
				return nil, fmt.Errorf("malformed xref entry at subsection starting %d", start)
			}
			idx := int(start) + i
			switch alloc {
			case keyword("n"):
				setIfEmpty(&table, idx, xref{ptr: objptr{uint32(idx), uint16(gen)}, offset: off})
			case keyword("f"):
				table = ensureLen(table, idx+1)
			default:
				return nil, fmt.Errorf("malformed xref table: unexpected alloc token %v", alloc)
			}
		}
	}
	return table, nil
}

// mergeXrefTables merges src into dest: empty or free dest slots take the
// src entry and, when both are in use, the stream entry wins.
func mergeXrefTables(dest []xref, src []xref) []xref {
	dest = ensureLen(dest, len(src))
	for i, s := range src {
		if s.ptr == (objptr{}) {
			continue
		}
		d := dest[i]
		if d.ptr == (objptr{}) || d.ptr.gen == 65535 || s.ptr.gen != 65535 {
			dest[i] = s
		}
	}
	return dest
}

var objHeader = regexp.MustCompile(`^\d+\s+\d+\s+obj\b`)

// isLikelyObjectAt performs a lightweight check whether an object header begins at off.
func (r *Reader) isLikelyObjectAt(off int64) bool {
	if off < 0 || off >= r.end {
		return false
	}
	buf := make([]byte, 64)
	n, err := r.f.ReadAt(buf, off)
	if err != nil && err != io.EOF || n == 0 {
		return false
	}
	return objHeader.MatchString(strings.TrimLeft(string(buf[:n]), " \t\r\n"))
}

// scanForObjectAt searches a ±window around approx for "<id> <gen> obj" and
// returns the offset found or -1.
func (r *Reader) scanForObjectAt(id uint32, gen uint16, approx int64, window int64) int64 {
	start := approx - window
	if start < 0 {
		start = 0
	}
	end := approx + window
	if end > r.end {
		end = r.end
	}
	if end <= start {
		return -1
	}
	buf := make([]byte, end-start)
	n, err := r.f.ReadAt(buf, start)
	if err != nil && err != io.EOF {
		return -1
	}
	re := regexp.MustCompile(fmt.Sprintf(`(^|[^0-9])%d\s+%d\s+obj\b`, id, gen))
	loc := re.FindSubmatchIndex(buf[:n])
	if loc == nil {
		return -1
	}
	return start + int64(loc[3])
}

// validateAndRepairXrefEntries checks offsets in table and tries to repair
// them with a small-window scan. It returns the repaired and invalid counts.
func (r *Reader) validateAndRepairXrefEntries(table []xref) (repaired int, invalid int) {
	for i := range table {
		ent := table[i]
		if ent.ptr == (objptr{}) || ent.inStream || ent.offset == 0 {
			continue
		}
		if r.isLikelyObjectAt(ent.offset) {
			continue
		}
		if found := r.scanForObjectAt(ent.ptr.id, ent.ptr.gen, ent.offset, 1024); found >= 0 {
			table[i].offset = found
			repaired++
			continue
		}
		invalid++
	}
	return
}

// handleTrailerXRefStm parses the stream named by a trailer's /XRefStm and
// merges it into table.
func (r *Reader) handleTrailerXRefStm(table []xref, trailer dict) ([]xref, dict, error) {
	xrefstm := trailer[name("XRefStm")]
	if xrefstm == nil {
		return table, trailer, nil
	}
	off, ok := xrefstm.(int64)
	if !ok || off < 0 || off >= r.end {
		return table, trailer, fmt.Errorf("%w: XRefStm not a valid offset: %v", ErrMalformed, xrefstm)
	}
	b := newBuffer(io.NewSectionReader(r.f, off, r.end-off), off)
	srcTable, _, _, err := readXrefStream(r, b)
	if err != nil {
		return table, trailer, err
	}
	repaired, invalid := r.validateAndRepairXrefEntries(srcTable)
	total := 0
	for _, e := range srcTable {
		if e.ptr != (objptr{}) {
			total++
		}
	}
	if total > 0 && float64(invalid)/float64(total) > 0.30 {
		return table, trailer, fmt.Errorf("%w: xref stream at %d: %d/%d invalid entries", ErrMalformed, off, invalid, total)
	}
	logger.Debug(fmt.Sprintf("xref: XRefStm offset=%d entries=%d repaired=%d", off, total, repaired), true)
	return mergeXrefTables(table, srcTable), trailer, nil
}

// findLastLine searches backwards in buf for the last occurrence of the
// keyword s that is followed by PDF whitespace ending in an EOL. Producers
// often put spaces, tabs or NULs between "startxref" and the newline.
func findLastLine(buf []byte, s string) int {
	bs := []byte(s)
	for end := len(buf); end > 0; {
		i := bytes.LastIndex(buf[:end], bs)
		if i < 0 {
			return -1
		}
		j := SkipWhitespace(buf, i+len(bs))
		if EndsWithEOL(buf, i+len(bs), j) {
			return i
		}
		end = i
	}
	return -1
}

// SkipWhitespace advances j past all PDF whitespace.
func SkipWhitespace(buf []byte, j int) int {
	for j < len(buf) && isSpace(buf[j]) {
		j++
	}
	return j
}

// EndsWithEOL checks if the last skipped char is CR or LF.
func EndsWithEOL(buf []byte, start, end int) bool {
	if end > start {
		last := buf[end-1]
		return last == '\n' || last == '\r'
	}
	return false
}
