// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package raster

import (
	"container/list"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/sassoftware/viya-pdf-view/geom"
	"github.com/sassoftware/viya-pdf-view/logger"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// ErrGlyphCache is returned when a glyph cache cannot be created.
var ErrGlyphCache = errors.New("raster: glyph cache")

// Masks larger than this are rendered but not kept.
const maxCachedMaskPixels = 256 * 256

var parseFallbackFace = sync.OnceValues(func() (*sfnt.Font, error) {
	return sfnt.Parse(goregular.TTF)
})

// glyphKey identifies a rendered mask: the rune, the linear part of the
// text rendering matrix in 1/64 device pixels and the subpixel origin in
// quarter pixels.
type glyphKey struct {
	r          rune
	a, b, c, d int32
	fx, fy     uint8
}

type glyphEntry struct {
	key  glyphKey
	mask *image.Alpha // nil for glyphs without ink
	off  image.Point  // mask origin relative to the integer glyph origin
}

// A GlyphCache renders glyph coverage masks and keeps the most recently
// used ones. Every glyph is drawn with the Go Regular face; embedded font
// programs are not rasterized.
//
// A GlyphCache belongs to one document handle but is safe for concurrent use.
type GlyphCache struct {
	mu     sync.Mutex
	font   *sfnt.Font
	buf    sfnt.Buffer
	upem   float64
	max    int
	ll     *list.List
	items  map[glyphKey]*list.Element
	closed bool
}

// NewGlyphCache returns a cache holding at most size masks.
func NewGlyphCache(size int) (*GlyphCache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %d", ErrGlyphCache, size)
	}
	f, err := parseFallbackFace()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGlyphCache, err)
	}
	return &GlyphCache{
		font:  f,
		upem:  float64(f.UnitsPerEm()),
		max:   size,
		ll:    list.New(),
		items: make(map[glyphKey]*list.Element),
	}, nil
}

// Len is the number of cached masks.
func (c *GlyphCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Close drops every mask. Mask reports no glyph afterwards.
func (c *GlyphCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[glyphKey]*list.Element)
	c.closed = true
}

func quantize(v float64, steps float64) int32 {
	return int32(math.Round(v * steps))
}

// Mask returns the coverage mask of r drawn through trm, and the device
// position of the mask's top-left pixel. ok is false for glyphs without ink
// and for runes the face does not cover.
func (c *GlyphCache) Mask(r rune, trm geom.Matrix) (mask *image.Alpha, at image.Point, ok bool) {
	ox, oy := math.Floor(trm[4]), math.Floor(trm[5])
	if math.IsNaN(ox) || math.IsNaN(oy) || math.IsInf(ox, 0) || math.IsInf(oy, 0) {
		return nil, image.Point{}, false
	}
	key := glyphKey{
		r: r,
		a: quantize(trm[0], 64), b: quantize(trm[1], 64),
		c: quantize(trm[2], 64), d: quantize(trm[3], 64),
		fx: uint8(math.Min(3, (trm[4]-ox)*4)),
		fy: uint8(math.Min(3, (trm[5]-oy)*4)),
	}
	origin := image.Pt(int(ox), int(oy))

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, image.Point{}, false
	}
	if el, hit := c.items[key]; hit {
		c.ll.MoveToFront(el)
		e := el.Value.(*glyphEntry)
		if e.mask == nil {
			return nil, image.Point{}, false
		}
		return e.mask, origin.Add(e.off), true
	}

	e, err := c.render(key)
	if err != nil {
		logger.Debug(fmt.Sprintf("glyphcache: rune %q: %v", r, err))
		return nil, image.Point{}, false
	}
	if e.mask == nil || e.mask.Rect.Dx()*e.mask.Rect.Dy() <= maxCachedMaskPixels {
		c.items[key] = c.ll.PushFront(e)
		for c.ll.Len() > c.max {
			last := c.ll.Back()
			delete(c.items, last.Value.(*glyphEntry).key)
			c.ll.Remove(last)
		}
	}
	if e.mask == nil {
		return nil, image.Point{}, false
	}
	return e.mask, origin.Add(e.off), true
}

// render draws the glyph outline through the quantized matrix. Outline
// coordinates come back from sfnt in font units with y pointing down.
func (c *GlyphCache) render(key glyphKey) (*glyphEntry, error) {
	e := &glyphEntry{key: key}
	idx, err := c.font.GlyphIndex(&c.buf, key.r)
	if err != nil {
		return nil, err
	}
	if idx == 0 {
		return e, nil
	}
	segs, err := c.font.LoadGlyph(&c.buf, idx, fixed.Int26_6(int(c.upem)<<6), nil)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return e, nil
	}

	m := geom.Matrix{
		float64(key.a) / 64, float64(key.b) / 64,
		float64(key.c) / 64, float64(key.d) / 64,
		float64(key.fx) / 4, float64(key.fy) / 4,
	}
	pt := func(p fixed.Point26_6) geom.Point {
		return m.Transform(geom.Point{
			X: float64(p.X) / 64 / c.upem,
			Y: -float64(p.Y) / 64 / c.upem,
		})
	}

	bounds := geom.Rect{X0: math.Inf(1), Y0: math.Inf(1), X1: math.Inf(-1), Y1: math.Inf(-1)}
	for _, s := range segs {
		n := 1
		switch s.Op {
		case sfnt.SegmentOpQuadTo:
			n = 2
		case sfnt.SegmentOpCubeTo:
			n = 3
		}
		for _, a := range s.Args[:n] {
			q := pt(a)
			bounds.X0 = math.Min(bounds.X0, q.X)
			bounds.Y0 = math.Min(bounds.Y0, q.Y)
			bounds.X1 = math.Max(bounds.X1, q.X)
			bounds.Y1 = math.Max(bounds.Y1, q.Y)
		}
	}
	ir := image.Rect(int(math.Floor(bounds.X0)), int(math.Floor(bounds.Y0)),
		int(math.Ceil(bounds.X1)), int(math.Ceil(bounds.Y1)))
	if ir.Empty() {
		return e, nil
	}

	z := vector.NewRasterizer(ir.Dx(), ir.Dy())
	dx, dy := float32(ir.Min.X), float32(ir.Min.Y)
	f := func(p fixed.Point26_6) (float32, float32) {
		q := pt(p)
		return float32(q.X) - dx, float32(q.Y) - dy
	}
	started := false
	for _, s := range segs {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			if started {
				z.ClosePath()
			}
			started = true
			z.MoveTo(f(s.Args[0]))
		case sfnt.SegmentOpLineTo:
			z.LineTo(f(s.Args[0]))
		case sfnt.SegmentOpQuadTo:
			x1, y1 := f(s.Args[0])
			x2, y2 := f(s.Args[1])
			z.QuadTo(x1, y1, x2, y2)
		case sfnt.SegmentOpCubeTo:
			x1, y1 := f(s.Args[0])
			x2, y2 := f(s.Args[1])
			x3, y3 := f(s.Args[2])
			z.CubeTo(x1, y1, x2, y2, x3, y3)
		}
	}
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, ir.Dx(), ir.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	e.mask = mask
	e.off = ir.Min
	return e, nil
}
