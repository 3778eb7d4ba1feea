// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfdoc

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"strings"

	"github.com/sassoftware/viya-pdf-view/device"
	"github.com/sassoftware/viya-pdf-view/geom"
	"github.com/sassoftware/viya-pdf-view/logger"
)

// maxFormDepth bounds nested form XObjects.
const maxFormDepth = 16

type gstate struct {
	ctm       geom.Matrix
	lineWidth float64
	fill      color.NRGBA
	stroke    color.NRGBA
	fillCS    *colorSpace
	strokeCS  *colorSpace

	Tc    float64
	Tw    float64
	Th    float64
	Tl    float64
	Tf    *Font
	Tfs   float64
	Tmode int
	Trise float64
}

type interpreter struct {
	r      *Reader
	dev    device.Device
	hints  device.Hints
	fonts  map[string]*Font
	active map[uint32]bool // form XObjects being run
	depth  int

	g      gstate
	gstack []gstate
	path   device.Path
	tm     geom.Matrix
	tlm    geom.Matrix
}

var (
	deviceGray = &colorSpace{n: 1, gray: true}
	black      = color.NRGBA{A: 0xff}
)

// Run interprets the page's content streams and sends the painting
// operations to dev. ctm maps default user space to the device's space.
// Malformed content is logged and skipped where possible; a failure that
// stops interpretation is returned as an error.
func (p Page) Run(ctm geom.Matrix, dev device.Device) (err error) {
	defer recoverRun(p.Index, &err)
	if p.V.Kind() != Dict {
		return fmt.Errorf("run page %d: %w", p.Index+1, ErrMalformed)
	}

	var readers []io.Reader
	for _, s := range p.Contents() {
		rd := s.Reader()
		defer rd.Close()
		readers = append(readers, rd, strings.NewReader("\n"))
	}
	if len(readers) == 0 {
		return nil
	}
	return newInterpreter(p.V.r, ctm, dev, map[string]*Font{}).run(io.MultiReader(readers...), p.Resources())
}

// Run interprets the content held by the page. Fonts parsed by one run are
// kept for the next.
func (lp *LoadedPage) Run(ctm geom.Matrix, dev device.Device) (err error) {
	defer recoverRun(lp.index, &err)
	if lp.closed {
		return fmt.Errorf("run page %d: %w", lp.index+1, ErrPageClosed)
	}
	if len(lp.content) == 0 {
		return nil
	}
	return newInterpreter(lp.r, ctm, dev, lp.fonts).run(bytes.NewReader(lp.content), lp.res)
}

func recoverRun(index int, err *error) {
	if e := recover(); e != nil {
		*err = fmt.Errorf("run page %d: %v", index+1, e)
	}
}

func newInterpreter(r *Reader, ctm geom.Matrix, dev device.Device, fonts map[string]*Font) *interpreter {
	in := &interpreter{
		r:      r,
		dev:    dev,
		hints:  dev.Hints(),
		fonts:  fonts,
		active: map[uint32]bool{},
	}
	in.g = gstate{ctm: ctm, lineWidth: 1, fill: black, stroke: black, fillCS: deviceGray, strokeCS: deviceGray, Th: 1}
	return in
}

func (in *interpreter) run(rd io.Reader, res Value) error {
	return interpret(in.r, rd, func(stk *Stack, op string) {
		n := stk.Len()
		args := make([]Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}
		in.do(op, args, res)
	})
}

func nums(args []Value, n int) ([]float64, bool) {
	if len(args) < n {
		return nil, false
	}
	args = args[len(args)-n:]
	out := make([]float64, n)
	for i, a := range args {
		if a.Kind() != Integer && a.Kind() != Real {
			return nil, false
		}
		out[i] = a.Float64()
	}
	return out, true
}

func (in *interpreter) do(op string, args []Value, res Value) {
	need := func(n int) []float64 {
		f, ok := nums(args, n)
		if !ok {
			logger.Debug(fmt.Sprintf("run: bad operands for %s: %d", op, len(args)))
		}
		return f
	}
	g := &in.g
	switch op {
	default:
		return

	// graphics state
	case "q":
		in.gstack = append(in.gstack, in.g)
	case "Q":
		if n := len(in.gstack); n > 0 {
			in.g = in.gstack[n-1]
			in.gstack = in.gstack[:n-1]
		}
	case "cm":
		if m := need(6); m != nil {
			g.ctm = geom.Matrix{m[0], m[1], m[2], m[3], m[4], m[5]}.Concat(g.ctm)
		}
	case "w":
		if f := need(1); f != nil {
			g.lineWidth = f[0]
		}
	case "gs":
		if len(args) == 1 {
			in.extGState(res.Key("ExtGState").Key(args[0].Name()))
		}

	// color
	case "g", "G", "rg", "RG", "k", "K":
		n := map[string]int{"g": 1, "G": 1, "rg": 3, "RG": 3, "k": 4, "K": 4}[op]
		if f := need(n); f != nil {
			c := componentsToRGB(f)
			if op == strings.ToUpper(op) {
				g.stroke, g.strokeCS = c, &colorSpace{n: n}
			} else {
				g.fill, g.fillCS = c, &colorSpace{n: n}
			}
		}
	case "cs", "CS":
		if len(args) != 1 {
			return
		}
		cs, err := parseColorSpace(args[0], res)
		if err != nil {
			cs = deviceGray
		}
		if op == "CS" {
			g.strokeCS, g.stroke = cs, black
		} else {
			g.fillCS, g.fill = cs, black
		}
	case "sc", "scn", "SC", "SCN":
		cs := g.fillCS
		if op == "SC" || op == "SCN" {
			cs = g.strokeCS
		}
		var comps []float64
		for _, a := range args {
			if a.Kind() == Integer || a.Kind() == Real {
				comps = append(comps, a.Float64())
			}
		}
		if len(comps) == 0 {
			return // pattern
		}
		c := componentsToRGB(comps)
		if cs != nil && len(comps) == cs.n {
			c = cs.rgb(comps)
		}
		if op == "SC" || op == "SCN" {
			g.stroke = c
		} else {
			g.fill = c
		}

	// path construction
	case "m":
		if f := need(2); f != nil {
			in.path.MoveTo(f[0], f[1])
		}
	case "l":
		if f := need(2); f != nil {
			in.path.LineTo(f[0], f[1])
		}
	case "c":
		if f := need(6); f != nil {
			in.path.CurveTo(f[0], f[1], f[2], f[3], f[4], f[5])
		}
	case "v":
		if f := need(4); f != nil {
			cur := in.path.Current()
			in.path.CurveTo(cur.X, cur.Y, f[0], f[1], f[2], f[3])
		}
	case "y":
		if f := need(4); f != nil {
			in.path.CurveTo(f[0], f[1], f[2], f[3], f[2], f[3])
		}
	case "h":
		in.path.Close()
	case "re":
		if f := need(4); f != nil {
			in.path.Rect(f[0], f[1], f[2], f[3])
		}

	// path painting; clipping is not applied
	case "f", "F", "f*":
		in.fill(op == "f*")
	case "S":
		in.stroke()
	case "s":
		in.path.Close()
		in.stroke()
	case "B", "B*", "b", "b*":
		if op == "b" || op == "b*" {
			in.path.Close()
		}
		in.fillStroke(strings.HasSuffix(op, "*"))
	case "n":
		in.path.Reset()

	// text objects and state
	case "BT":
		in.tm = geom.Identity
		in.tlm = geom.Identity
	case "ET":
	case "Tc":
		if f := need(1); f != nil {
			g.Tc = f[0]
		}
	case "Tw":
		if f := need(1); f != nil {
			g.Tw = f[0]
		}
	case "Tz":
		if f := need(1); f != nil {
			g.Th = f[0] / 100
		}
	case "TL":
		if f := need(1); f != nil {
			g.Tl = f[0]
		}
	case "Ts":
		if f := need(1); f != nil {
			g.Trise = f[0]
		}
	case "Tr":
		if f := need(1); f != nil {
			g.Tmode = int(f[0])
		}
	case "Tf":
		if len(args) != 2 {
			return
		}
		g.Tf = in.font(res, args[0].Name())
		g.Tfs = args[1].Float64()
	case "TD":
		if f := need(2); f != nil {
			g.Tl = -f[1]
			in.moveText(f[0], f[1])
		}
	case "Td":
		if f := need(2); f != nil {
			in.moveText(f[0], f[1])
		}
	case "Tm":
		if m := need(6); m != nil {
			in.tm = geom.Matrix{m[0], m[1], m[2], m[3], m[4], m[5]}
			in.tlm = in.tm
		}
	case "T*":
		in.moveText(0, -g.Tl)

	// text showing
	case "Tj":
		if len(args) == 1 {
			in.showText(args[0].RawString())
		}
	case "'":
		if len(args) == 1 {
			in.moveText(0, -g.Tl)
			in.showText(args[0].RawString())
		}
	case "\"":
		if len(args) == 3 {
			g.Tw = args[0].Float64()
			g.Tc = args[1].Float64()
			in.moveText(0, -g.Tl)
			in.showText(args[2].RawString())
		}
	case "TJ":
		if len(args) != 1 {
			return
		}
		v := args[0]
		for i := 0; i < v.Len(); i++ {
			x := v.Index(i)
			if x.Kind() == String {
				in.showText(x.RawString())
				continue
			}
			tx := -x.Float64() / 1000 * g.Tfs * g.Th
			in.tm = geom.Translate(tx, 0).Concat(in.tm)
		}

	// external objects
	case "Do":
		if len(args) == 1 {
			in.doXObject(res, args[0].Name())
		}
	}
}

func (in *interpreter) extGState(gs Value) {
	if lw := gs.Key("LW"); lw.Kind() == Integer || lw.Kind() == Real {
		in.g.lineWidth = lw.Float64()
	}
	if ca := gs.Key("ca"); ca.Kind() == Integer || ca.Kind() == Real {
		in.g.fill.A = alpha(ca.Float64())
	}
	if ca := gs.Key("CA"); ca.Kind() == Integer || ca.Kind() == Real {
		in.g.stroke.A = alpha(ca.Float64())
	}
}

func alpha(a float64) uint8 {
	switch {
	case a <= 0:
		return 0
	case a >= 1:
		return 0xff
	}
	return uint8(a*255 + 0.5)
}

func (in *interpreter) fill(evenOdd bool) {
	if !in.path.Empty() {
		in.dev.FillPath(&in.path, evenOdd, in.g.ctm, in.g.fill)
	}
	in.path.Reset()
}

func (in *interpreter) stroke() {
	if !in.path.Empty() {
		in.dev.StrokePath(&in.path, in.g.lineWidth, in.g.ctm, in.g.stroke)
	}
	in.path.Reset()
}

func (in *interpreter) fillStroke(evenOdd bool) {
	if !in.path.Empty() {
		in.dev.FillPath(&in.path, evenOdd, in.g.ctm, in.g.fill)
		in.dev.StrokePath(&in.path, in.g.lineWidth, in.g.ctm, in.g.stroke)
	}
	in.path.Reset()
}

func (in *interpreter) moveText(tx, ty float64) {
	in.tlm = geom.Translate(tx, ty).Concat(in.tlm)
	in.tm = in.tlm
}

var fallbackFont = newFont(Value{})

func (in *interpreter) font(res Value, fontName string) *Font {
	v := res.Key("Font").Key(fontName)
	key := fmt.Sprintf("%d/%s", v.Ref(), fontName)
	if v.Ref() != 0 {
		key = fmt.Sprintf("%d", v.Ref())
	}
	if f, ok := in.fonts[key]; ok {
		return f
	}
	if v.Kind() != Dict {
		logger.Debug(fmt.Sprintf("run: font %s not found", fontName))
		return fallbackFont
	}
	f := newFont(v)
	in.fonts[key] = f
	return f
}

func (in *interpreter) showText(raw string) {
	g := &in.g
	f := g.Tf
	if f == nil {
		f = fallbackFont
	}
	invisible := g.Tmode == 3 || g.Tmode == 7
	for _, cc := range f.decode(raw) {
		trm := geom.Matrix{g.Tfs * g.Th, 0, 0, g.Tfs, 0, g.Trise}.Concat(in.tm).Concat(g.ctm)
		n := float64(len(cc.runes))
		for i, r := range cc.runes {
			in.dev.ShowGlyph(device.Glyph{
				Rune:      r,
				Code:      cc.code,
				Trm:       geom.Translate(cc.advance*float64(i)/n, 0).Concat(trm),
				Advance:   cc.advance / n,
				Invisible: invisible,
			}, g.fill)
		}
		spacing := g.Tc
		if cc.single {
			spacing += g.Tw
		}
		if f.vertical {
			in.tm = geom.Translate(0, -(g.Tfs + spacing)).Concat(in.tm)
			continue
		}
		tx := (cc.advance*g.Tfs + spacing) * g.Th
		in.tm = geom.Translate(tx, 0).Concat(in.tm)
	}
}

func (in *interpreter) doXObject(res Value, xname string) {
	x := res.Key("XObject").Key(xname)
	if x.Kind() != Stream {
		logger.Debug(fmt.Sprintf("run: XObject %s not found", xname))
		return
	}
	switch x.Key("Subtype").Name() {
	case "Image":
		if in.hints&device.IgnoreImages != 0 {
			return
		}
		img, err := decodeImage(x, res, in.g.fill)
		if err != nil {
			logger.Debug(fmt.Sprintf("run: image %s: %v", xname, err))
			return
		}
		in.dev.FillImage(img, in.g.ctm)
	case "Form":
		in.runForm(x, res)
	}
}

func (in *interpreter) runForm(x Value, parentRes Value) {
	id := x.Ref()
	if id != 0 && in.active[id] || in.depth >= maxFormDepth {
		logger.Debug(fmt.Sprintf("run: skipping recursive form %d", id))
		return
	}
	in.active[id] = true
	in.depth++
	saved, savedStack, savedPath := in.g, in.gstack, in.path
	savedTm, savedTlm := in.tm, in.tlm
	defer func() {
		in.g, in.gstack, in.path = saved, savedStack, savedPath
		in.tm, in.tlm = savedTm, savedTlm
		in.depth--
		delete(in.active, id)
	}()

	in.gstack = nil
	in.path = device.Path{}
	if m := x.Key("Matrix"); m.Len() == 6 {
		var f [6]float64
		for i := range f {
			f[i] = m.Index(i).Float64()
		}
		in.g.ctm = geom.Matrix(f).Concat(in.g.ctm)
	}
	res := x.Key("Resources")
	if res.Kind() != Dict {
		res = parentRes
	}
	rd := x.Reader()
	defer rd.Close()
	if err := in.run(rd, res); err != nil {
		logger.Debug(fmt.Sprintf("run: form %d: %v", id, err))
	}
}
