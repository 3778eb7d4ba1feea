// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfdoc

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
)

// maxImagePixels bounds the sample buffers allocated for one image.
const maxImagePixels = 1 << 26

// colorSpace describes how image samples become colors.
type colorSpace struct {
	n      int // components per sample
	cmyk   bool
	gray   bool
	tint   bool // Separation/DeviceN: 1 is full ink
	lookup []byte // Indexed palette in the base space
	base   *colorSpace
}

func parseColorSpace(v Value, res Value) (*colorSpace, error) {
	if v.Kind() == Name {
		if named := res.Key("ColorSpace").Key(v.Name()); !named.IsNull() {
			v = named
		}
	}
	switch v.Kind() {
	case Name:
		switch v.Name() {
		case "DeviceGray", "G", "CalGray":
			return &colorSpace{n: 1, gray: true}, nil
		case "DeviceRGB", "RGB", "CalRGB":
			return &colorSpace{n: 3}, nil
		case "DeviceCMYK", "CMYK":
			return &colorSpace{n: 4, cmyk: true}, nil
		}
		return nil, fmt.Errorf("unsupported color space %s", v.Name())
	case Array:
		switch v.Index(0).Name() {
		case "CalGray":
			return &colorSpace{n: 1, gray: true}, nil
		case "CalRGB", "Lab":
			return &colorSpace{n: 3}, nil
		case "ICCBased":
			switch v.Index(1).Key("N").Int64() {
			case 1:
				return &colorSpace{n: 1, gray: true}, nil
			case 4:
				return &colorSpace{n: 4, cmyk: true}, nil
			}
			return &colorSpace{n: 3}, nil
		case "Indexed", "I":
			base, err := parseColorSpace(v.Index(1), res)
			if err != nil {
				return nil, err
			}
			var lookup []byte
			switch l := v.Index(3); l.Kind() {
			case String:
				lookup = []byte(l.RawString())
			case Stream:
				rd := l.Reader()
				lookup, err = io.ReadAll(rd)
				rd.Close()
				if err != nil {
					return nil, err
				}
			}
			return &colorSpace{n: 1, lookup: lookup, base: base}, nil
		case "Separation", "DeviceN":
			// tints are shown as gray levels
			return &colorSpace{n: 1, gray: true, tint: true}, nil
		}
		return nil, fmt.Errorf("unsupported color space %v", v.Index(0))
	}
	return nil, fmt.Errorf("missing color space")
}

// rgb converts components in 0..1 to a color. For Indexed spaces the
// single component is the palette index.
func (cs *colorSpace) rgb(c []float64) color.NRGBA {
	if cs.lookup != nil && cs.base != nil {
		return cs.index(int(c[0] + 0.5))
	}
	if cs.tint && len(c) > 0 {
		return componentsToRGB([]float64{1 - c[0]})
	}
	return componentsToRGB(c)
}

func (cs *colorSpace) index(i int) color.NRGBA {
	off := i * cs.base.n
	if i < 0 || off+cs.base.n > len(cs.lookup) {
		return color.NRGBA{A: 0xff}
	}
	comps := make([]float64, cs.base.n)
	for k := range comps {
		comps[k] = float64(cs.lookup[off+k]) / 255
	}
	return cs.base.rgb(comps)
}

// componentsToRGB converts 1, 3 or 4 components to RGB.
func componentsToRGB(c []float64) color.NRGBA {
	u := func(x float64) uint8 {
		switch {
		case x <= 0:
			return 0
		case x >= 1:
			return 255
		}
		return uint8(x*255 + 0.5)
	}
	switch len(c) {
	case 1:
		g := u(c[0])
		return color.NRGBA{g, g, g, 0xff}
	case 3:
		return color.NRGBA{u(c[0]), u(c[1]), u(c[2]), 0xff}
	case 4:
		k := c[3]
		return color.NRGBA{u((1 - c[0]) * (1 - k)), u((1 - c[1]) * (1 - k)), u((1 - c[2]) * (1 - k)), 0xff}
	}
	return color.NRGBA{A: 0xff}
}

// decodeImage decodes an image XObject. Stencil masks are painted with fill.
func decodeImage(v Value, res Value, fill color.NRGBA) (image.Image, error) {
	w := int(v.Key("Width").Int64())
	h := int(v.Key("Height").Int64())
	if w <= 0 || h <= 0 || w*h > maxImagePixels {
		return nil, fmt.Errorf("bad image size %dx%d", w, h)
	}

	if lastFilter(v) == "DCTDecode" || lastFilter(v) == "DCT" {
		rd := v.Reader()
		defer rd.Close()
		img, err := jpeg.Decode(rd)
		if err != nil {
			return nil, fmt.Errorf("DCTDecode: %w", err)
		}
		return img, nil
	}

	bpc := int(v.Key("BitsPerComponent").Int64())
	if v.Key("ImageMask").Bool() {
		bpc = 1
	}
	switch bpc {
	case 1, 2, 4, 8, 16:
	default:
		return nil, fmt.Errorf("unsupported BitsPerComponent %d", bpc)
	}

	var cs *colorSpace
	if !v.Key("ImageMask").Bool() {
		var err error
		if cs, err = parseColorSpace(v.Key("ColorSpace"), res); err != nil {
			return nil, err
		}
	}
	ncomp := 1
	if cs != nil {
		ncomp = cs.n
	}
	stride := (w*ncomp*bpc + 7) / 8

	rd := v.Reader()
	defer rd.Close()
	data := make([]byte, stride*h)
	if _, err := io.ReadFull(rd, data); err != nil && err != io.ErrUnexpectedEOF {
		return nil, err
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	maxv := float64(int(1)<<bpc - 1)
	decode := decodeArray(v.Key("Decode"), ncomp)
	comps := make([]float64, ncomp)
	for y := 0; y < h; y++ {
		row := data[y*stride : (y+1)*stride]
		for x := 0; x < w; x++ {
			if cs != nil && cs.lookup != nil {
				dst.SetNRGBA(x, y, cs.index(sample(row, x, bpc)))
				continue
			}
			for k := 0; k < ncomp; k++ {
				s := float64(sample(row, x*ncomp+k, bpc)) / maxv
				lo, hi := decode[2*k], decode[2*k+1]
				comps[k] = lo + s*(hi-lo)
			}
			if cs == nil {
				// stencil: 0 paints
				if comps[0] < 0.5 {
					dst.SetNRGBA(x, y, fill)
				}
				continue
			}
			dst.SetNRGBA(x, y, cs.rgb(comps))
		}
	}

	if sm := v.Key("SMask"); sm.Kind() == Stream {
		applySoftMask(dst, sm)
	}
	return dst, nil
}

func lastFilter(v Value) string {
	f := v.Key("Filter")
	if f.Kind() == Array {
		return f.Index(f.Len() - 1).Name()
	}
	return f.Name()
}

func decodeArray(d Value, n int) []float64 {
	out := make([]float64, 2*n)
	for k := 0; k < n; k++ {
		out[2*k], out[2*k+1] = 0, 1
	}
	if d.Len() == 2*n {
		for i := range out {
			out[i] = d.Index(i).Float64()
		}
	}
	return out
}

// sample returns the i'th bpc-bit sample of row.
func sample(row []byte, i, bpc int) int {
	switch bpc {
	case 8:
		return int(row[i])
	case 16:
		return int(row[2*i])<<8 | int(row[2*i+1])
	}
	bit := i * bpc
	b := row[bit/8]
	shift := 8 - bpc - bit%8
	return int(b>>uint(shift)) & (1<<bpc - 1)
}

// applySoftMask uses an 8-bit gray soft mask of the same size as alpha.
func applySoftMask(dst *image.NRGBA, sm Value) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	if int(sm.Key("Width").Int64()) != w || int(sm.Key("Height").Int64()) != h || sm.Key("BitsPerComponent").Int64() != 8 {
		return
	}
	rd := sm.Reader()
	defer rd.Close()
	mask := make([]byte, w*h)
	if _, err := io.ReadFull(rd, mask); err != nil {
		return
	}
	for i, a := range mask {
		dst.Pix[4*i+3] = uint8(int(dst.Pix[4*i+3]) * int(a) / 255)
	}
}
