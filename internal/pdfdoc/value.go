// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/sassoftware/viya-pdf-view/logger"
)

// A Value is a single PDF value, such as an integer, dictionary, or array.
// The zero Value is a PDF null (Kind() == Null, IsNull() = true).
type Value struct {
	r    *Reader
	ptr  objptr
	data interface{}
}

// IsNull reports whether the value is a null. It is equivalent to Kind() == Null.
func (v Value) IsNull() bool {
	return v.data == nil
}

// A ValueKind specifies the kind of data underlying a Value.
type ValueKind int

// The PDF value kinds.
const (
	Null ValueKind = iota
	Bool
	Integer
	Real
	String
	Name
	Dict
	Array
	Stream
)

// Kind reports the kind of value underlying v.
func (v Value) Kind() ValueKind {
	switch v.data.(type) {
	default:
		return Null
	case bool:
		return Bool
	case int64:
		return Integer
	case float64:
		return Real
	case string:
		return String
	case name:
		return Name
	case dict:
		return Dict
	case array:
		return Array
	case stream:
		return Stream
	}
}

// String returns a textual representation of the value v.
// Note that String is not the accessor for values with Kind() == String.
// To access such values, see RawString and Text.
func (v Value) String() string {
	return objfmt(v.data)
}

func objfmt(x interface{}) string {
	switch x := x.(type) {
	default:
		return fmt.Sprint(x)
	case nil:
		return "null"
	case string:
		return strconv.Quote(textString(x))
	case name:
		return "/" + string(x)
	case dict:
		var keys []string
		for k := range x {
			keys = append(keys, string(k))
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteString("<<")
		for i, k := range keys {
			if i > 0 {
				buf.WriteString(" ")
			}
			buf.WriteString("/")
			buf.WriteString(k)
			buf.WriteString(" ")
			buf.WriteString(objfmt(x[name(k)]))
		}
		buf.WriteString(">>")
		return buf.String()

	case array:
		var buf bytes.Buffer
		buf.WriteString("[")
		for i, elem := range x {
			if i > 0 {
				buf.WriteString(" ")
			}
			buf.WriteString(objfmt(elem))
		}
		buf.WriteString("]")
		return buf.String()

	case stream:
		return fmt.Sprintf("%v@%d", objfmt(x.hdr), x.offset)

	case objptr:
		return fmt.Sprintf("%d %d R", x.id, x.gen)

	case objdef:
		return fmt.Sprintf("{%d %d obj}%v", x.ptr.id, x.ptr.gen, objfmt(x.obj))
	}
}

// Bool returns v's boolean value.
// If v.Kind() != Bool, Bool returns false.
func (v Value) Bool() bool {
	x, _ := v.data.(bool)
	return x
}

// Int64 returns v's int64 value.
// If v.Kind() != Integer, Int64 returns 0.
func (v Value) Int64() int64 {
	x, _ := v.data.(int64)
	return x
}

// Float64 returns v's float64 value, converting from integer if necessary.
// If v.Kind() != Real and v.Kind() != Integer, Float64 returns 0.
func (v Value) Float64() float64 {
	switch x := v.data.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	}
	return 0
}

// RawString returns v's string value.
// If v.Kind() != String, RawString returns the empty string.
func (v Value) RawString() string {
	x, _ := v.data.(string)
	return x
}

// Text returns v's string value interpreted as a “text string” (PDFDocEncoding
// or UTF-16BE with a byte order mark) and converted to UTF-8.
// If v.Kind() != String, Text returns the empty string.
func (v Value) Text() string {
	x, ok := v.data.(string)
	if !ok {
		return ""
	}
	return textString(x)
}

// Name returns v's name value, without the leading slash.
// If v.Kind() != Name, Name returns the empty string.
func (v Value) Name() string {
	x, _ := v.data.(name)
	return string(x)
}

// Key returns the value associated with the given name key in the dictionary v.
// If v is a stream, Key applies to the stream's header dictionary.
// If v.Kind() != Dict and v.Kind() != Stream, Key returns a null Value.
func (v Value) Key(key string) Value {
	x, ok := v.data.(dict)
	if !ok {
		strm, ok := v.data.(stream)
		if !ok {
			return Value{}
		}
		x = strm.hdr
	}
	return v.r.resolve(v.ptr, x[name(key)])
}

// Keys returns a sorted list of the keys in the dictionary v.
// If v is a stream, Keys applies to the stream's header dictionary.
// If v.Kind() != Dict and v.Kind() != Stream, Keys returns nil.
func (v Value) Keys() []string {
	x, ok := v.data.(dict)
	if !ok {
		strm, ok := v.data.(stream)
		if !ok {
			return nil
		}
		x = strm.hdr
	}
	keys := []string{} // not nil
	for k := range x {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}

// Index returns the i'th element in the array v.
// If v.Kind() != Array or if i is outside the array bounds,
// Index returns a null Value.
func (v Value) Index(i int) Value {
	x, ok := v.data.(array)
	if !ok || i < 0 || i >= len(x) {
		return Value{}
	}
	return v.r.resolve(v.ptr, x[i])
}

// Len returns the length of the array v.
// If v.Kind() != Array, Len returns 0.
func (v Value) Len() int {
	x, _ := v.data.(array)
	return len(x)
}

// Ref returns the object number v was loaded from, or 0 for direct objects.
func (v Value) Ref() uint32 {
	return v.ptr.id
}

func (r *Reader) resolve(parent objptr, x interface{}) Value {
	if ptr, ok := x.(objptr); ok {
		if r == nil {
			return Value{}
		}
		obj, err := r.load(ptr)
		if err != nil {
			logger.Debug(fmt.Sprintf("resolve: object %d %d: %v", ptr.id, ptr.gen, err))
			return Value{}
		}
		x = obj
		parent = ptr
	}

	switch x := x.(type) {
	case nil, bool, int64, float64, name, dict, array, stream, string:
		return Value{r, parent, x}
	default:
		logger.Debug(fmt.Sprintf("resolve: unexpected value type %T", x))
		return Value{}
	}
}

func (r *Reader) load(ptr objptr) (object, error) {
	if obj, ok := r.store.get(ptr); ok {
		return obj, nil
	}
	obj, err := r.loadUncached(ptr)
	if err != nil {
		return nil, err
	}
	r.store.put(ptr, obj)
	return obj, nil
}

func (r *Reader) loadUncached(ptr objptr) (object, error) {
	if ptr.id >= uint32(len(r.xref)) {
		return nil, fmt.Errorf("object %d outside xref table", ptr.id)
	}
	xr := r.xref[ptr.id]
	if xr.ptr != ptr || !xr.inStream && xr.offset == 0 {
		return nil, errors.New("object not in use")
	}
	if xr.inStream {
		return r.loadFromObjectStream(ptr, xr.stream)
	}

	obj, err := r.readObjectAt(ptr, xr.offset)
	if err != nil {
		// offsets written by broken producers are often off by a few bytes
		found := r.scanForObjectAt(ptr.id, ptr.gen, xr.offset, 1024)
		if found < 0 {
			return nil, err
		}
		logger.Debug(fmt.Sprintf("resolve: object %d %d repaired offset %d -> %d", ptr.id, ptr.gen, xr.offset, found))
		r.xref[ptr.id].offset = found
		return r.readObjectAt(ptr, found)
	}
	return obj, nil
}

func (r *Reader) readObjectAt(ptr objptr, offset int64) (object, error) {
	if offset < 0 || offset >= r.end {
		return nil, fmt.Errorf("offset %d outside file", offset)
	}
	b := newBuffer(io.NewSectionReader(r.f, offset, r.end-offset), offset)
	b.dec = r.dec
	obj := b.readObject()
	def, ok := obj.(objdef)
	if !ok {
		return nil, fmt.Errorf("found %T instead of objdef", obj)
	}
	if def.ptr != ptr {
		return nil, fmt.Errorf("found %v", objfmt(def.ptr))
	}
	return def.obj, nil
}

func (r *Reader) loadFromObjectStream(ptr objptr, container objptr) (object, error) {
	for hops := 0; hops < 16; hops++ {
		if container.id >= uint32(len(r.xref)) || r.xref[container.id].inStream {
			return nil, errors.New("invalid object stream reference")
		}
		strm := r.resolve(objptr{}, container)
		if strm.Kind() != Stream || strm.Key("Type").Name() != "ObjStm" {
			return nil, errors.New("not an object stream")
		}
		n := int(strm.Key("N").Int64())
		first := strm.Key("First").Int64()
		if first <= 0 {
			return nil, errors.New("object stream missing First")
		}
		rd := strm.Reader()
		b := newBuffer(rd, 0)
		b.allowEOF = true
		for i := 0; i < n; i++ {
			id, ok1 := b.readToken().(int64)
			off, ok2 := b.readToken().(int64)
			if !ok1 || !ok2 {
				break
			}
			if uint32(id) == ptr.id {
				b.unread = b.unread[:0]
				b.seekForward(first + off)
				obj := b.readObject()
				rd.Close()
				return obj, nil
			}
		}
		rd.Close()
		ext, ok := strm.data.(stream).hdr["Extends"].(objptr)
		if !ok {
			break
		}
		container = ext
	}
	return nil, errors.New("cannot find object in stream")
}

type errorReadCloser struct {
	err error
}

func (e *errorReadCloser) Read([]byte) (int, error) {
	return 0, e.err
}

func (e *errorReadCloser) Close() error {
	return e.err
}

// Reader returns the decoded data contained in the stream v.
// If v.Kind() != Stream, or a filter cannot be applied, Reader returns a
// ReadCloser that responds to all reads with the error.
func (v Value) Reader() io.ReadCloser {
	x, ok := v.data.(stream)
	if !ok {
		return &errorReadCloser{errors.New("stream not present")}
	}
	var rd io.Reader = io.NewSectionReader(v.r.f, x.offset, v.r.streamLength(v, x))
	if v.r.dec != nil && x.hdr["Type"] != name("XRef") {
		rd = v.r.dec.decryptStream(x.ptr, rd)
	}
	filter := v.Key("Filter")
	param := v.Key("DecodeParms")
	var err error
	switch filter.Kind() {
	default:
		err = fmt.Errorf("unsupported filter %v", filter)
	case Null:
		// ok
	case Name:
		rd, err = applyFilter(rd, filter.Name(), param)
	case Array:
		for i := 0; i < filter.Len() && err == nil; i++ {
			rd, err = applyFilter(rd, filter.Index(i).Name(), param.Index(i))
		}
	}
	if err != nil {
		logger.Debug(fmt.Sprintf("stream: obj %d %d: %v", x.ptr.id, x.ptr.gen, err))
		return &errorReadCloser{err}
	}
	return io.NopCloser(rd)
}

// streamLength returns /Length, or scans for "endstream" when the length is
// missing or points outside the file.
func (r *Reader) streamLength(v Value, x stream) int64 {
	length := v.Key("Length").Int64()
	if length > 0 && x.offset+length <= r.end {
		return length
	}
	const chunk = 4096
	buf := make([]byte, chunk+16)
	for off := x.offset; off < r.end; off += chunk {
		n, _ := r.f.ReadAt(buf, off)
		if n <= 0 {
			break
		}
		if i := bytes.Index(buf[:n], []byte("endstream")); i >= 0 {
			l := off + int64(i) - x.offset
			for l > 0 {
				c, _ := r.byteAt(x.offset + l - 1)
				if c != '\r' && c != '\n' {
					break
				}
				l--
			}
			return l
		}
	}
	return r.end - x.offset
}

func (r *Reader) byteAt(off int64) (byte, error) {
	var b [1]byte
	_, err := r.f.ReadAt(b[:], off)
	return b[0], err
}
