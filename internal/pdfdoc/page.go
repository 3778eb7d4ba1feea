// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/sassoftware/viya-pdf-view/geom"
	"github.com/sassoftware/viya-pdf-view/logger"
)

var (
	// ErrPageRange is returned for page indexes outside the document.
	ErrPageRange = errors.New("page index out of range")

	// ErrPageClosed is returned when a closed LoadedPage is run.
	ErrPageClosed = errors.New("page is closed")
)

// BoxNames are the page boundaries a page dictionary may define.
var BoxNames = [...]string{"ArtBox", "BleedBox", "CropBox", "MediaBox", "TrimBox"}

// maxTreeDepth bounds walks up and down the page tree.
const maxTreeDepth = 64

// A Page represent a single page in a PDF file.
// The methods interpret a Page dictionary stored in V.
type Page struct {
	V     Value
	Index int // 0-based position in the document
}

// NumPage returns the number of pages in the PDF file, counting the leaves
// of the page tree rather than trusting /Count.
func (r *Reader) NumPage() (int, error) {
	if err := r.loadPages(); err != nil {
		return 0, err
	}
	return len(r.pages), nil
}

// Page returns the page at the 0-based index i.
func (r *Reader) Page(i int) (Page, error) {
	if err := r.loadPages(); err != nil {
		return Page{}, err
	}
	if i < 0 || i >= len(r.pages) {
		return Page{}, fmt.Errorf("%w: %d of %d", ErrPageRange, i, len(r.pages))
	}
	return r.pages[i], nil
}

func (r *Reader) loadPages() error {
	r.pagesOnce.Do(func() {
		root := r.Trailer().Key("Root").Key("Pages")
		if root.Kind() != Dict {
			r.pagesErr = fmt.Errorf("%w: missing page tree", ErrMalformed)
			return
		}
		seen := map[uint32]bool{}
		r.walkPages(root, 0, seen)
		logger.Debug(fmt.Sprintf("pages: flattened count=%d declared=%d", len(r.pages), root.Key("Count").Int64()), true)
	})
	return r.pagesErr
}

func (r *Reader) walkPages(node Value, depth int, seen map[uint32]bool) {
	if depth > maxTreeDepth {
		logger.Error("pages: tree too deep")
		return
	}
	if id := node.Ref(); id != 0 {
		if seen[id] {
			logger.Error(fmt.Sprintf("pages: cycle at object %d", id))
			return
		}
		seen[id] = true
	}
	kids := node.Key("Kids")
	if node.Key("Type").Name() == "Page" || kids.Kind() != Array {
		r.pages = append(r.pages, Page{V: node, Index: len(r.pages)})
		return
	}
	for i := 0; i < kids.Len(); i++ {
		if kid := kids.Index(i); kid.Kind() == Dict {
			r.walkPages(kid, depth+1, seen)
		}
	}
}

func (p Page) findInherited(key string) Value {
	v := p.V
	for depth := 0; depth < maxTreeDepth && !v.IsNull(); depth++ {
		if r := v.Key(key); !r.IsNull() {
			return r
		}
		v = v.Key("Parent")
	}
	return Value{}
}

// Box returns the named page boundary (MediaBox, CropBox, BleedBox, TrimBox
// or ArtBox) normalized so X0 <= X1 and Y0 <= Y1. MediaBox and CropBox are
// inherited from the page tree; the others are read from the page itself.
func (p Page) Box(boxName string) (geom.Rect, bool) {
	var v Value
	switch boxName {
	case "MediaBox", "CropBox":
		v = p.findInherited(boxName)
	default:
		v = p.V.Key(boxName)
	}
	return rectFromArray(v)
}

func rectFromArray(v Value) (geom.Rect, bool) {
	if v.Kind() != Array || v.Len() != 4 {
		return geom.Rect{}, false
	}
	var f [4]float64
	for i := range f {
		x := v.Index(i)
		if x.Kind() != Integer && x.Kind() != Real {
			return geom.Rect{}, false
		}
		f[i] = x.Float64()
	}
	r := geom.Rect{X0: f[0], Y0: f[1], X1: f[2], Y1: f[3]}.Normalize()
	if r.IsEmpty() {
		return geom.Rect{}, false
	}
	return r, true
}

// Rotate returns the inherited /Rotate value as written in the file.
func (p Page) Rotate() int {
	return int(p.findInherited("Rotate").Int64())
}

// Resources returns the resources dictionary associated with the page.
func (p Page) Resources() Value {
	return p.findInherited("Resources")
}

// Fonts returns a list of the fonts associated with the page.
func (p Page) Fonts() []string {
	return p.Resources().Key("Font").Keys()
}

// Contents returns the page's content streams in drawing order.
func (p Page) Contents() []Value {
	c := p.V.Key("Contents")
	switch c.Kind() {
	case Stream:
		return []Value{c}
	case Array:
		var out []Value
		for i := 0; i < c.Len(); i++ {
			if s := c.Index(i); s.Kind() == Stream {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// A LoadedPage is a page prepared for repeated runs. Its boxes, rotation,
// resources and decoded content are resolved once by LoadPage and held
// until Close.
type LoadedPage struct {
	r       *Reader
	index   int
	boxes   map[string]geom.Rect
	rotate  int
	res     Value
	content []byte
	fonts   map[string]*Font
	closed  bool
}

// LoadPage resolves the page at the 0-based index i and reads its content
// streams into memory.
func (r *Reader) LoadPage(i int) (*LoadedPage, error) {
	p, err := r.Page(i)
	if err != nil {
		return nil, err
	}
	if p.V.Kind() != Dict {
		return nil, fmt.Errorf("%w: page %d is not a dictionary", ErrMalformed, i+1)
	}

	var buf bytes.Buffer
	for _, s := range p.Contents() {
		rd := s.Reader()
		_, err := io.Copy(&buf, rd)
		rd.Close()
		if err != nil {
			return nil, fmt.Errorf("page %d content: %w", i+1, err)
		}
		buf.WriteByte('\n')
	}

	lp := &LoadedPage{
		r:       r,
		index:   i,
		boxes:   make(map[string]geom.Rect, len(BoxNames)),
		rotate:  p.Rotate(),
		res:     p.Resources(),
		content: buf.Bytes(),
		fonts:   map[string]*Font{},
	}
	for _, name := range BoxNames {
		if b, ok := p.Box(name); ok {
			lp.boxes[name] = b
		}
	}
	r.loaded.Add(1)
	logger.Debug(fmt.Sprintf("pages: loaded page=%d content=%d loaded=%d", i+1, len(lp.content), r.loaded.Load()))
	return lp, nil
}

// LoadedPages reports how many pages are loaded and not yet closed.
func (r *Reader) LoadedPages() int {
	return int(r.loaded.Load())
}

// Index is the 0-based position of the page in the document.
func (lp *LoadedPage) Index() int { return lp.index }

// Box returns the named boundary resolved at load time.
func (lp *LoadedPage) Box(boxName string) (geom.Rect, bool) {
	b, ok := lp.boxes[boxName]
	return b, ok
}

// Rotate returns the page's /Rotate value resolved at load time.
func (lp *LoadedPage) Rotate() int { return lp.rotate }

// ContentLen is the size of the decoded content held by the page.
func (lp *LoadedPage) ContentLen() int { return len(lp.content) }

// Close drops the content, resources and fonts held by the page. Closing
// twice does nothing.
func (lp *LoadedPage) Close() {
	if lp.closed {
		return
	}
	lp.closed = true
	lp.boxes = nil
	lp.res = Value{}
	lp.content = nil
	lp.fonts = nil
	lp.r.loaded.Add(-1)
}
