// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package raster paints pages into pixel buffers. A Pixmap is a rectangle of
// device space; DrawDevice implements device.Device on top of it using the
// golang.org/x/image rasterizer, font and draw packages.
package raster

import (
	"errors"
	"fmt"
	"image"

	"github.com/sassoftware/viya-pdf-view/geom"
)

// ErrEmptyPixmap is returned for a pixmap with no pixels.
var ErrEmptyPixmap = errors.New("raster: empty pixmap")

// A Pixmap covers the device-space rectangle (X, Y)-(X+W, Y+H).
//
// Pixels are kept premultiplied in an RGBA buffer whose origin is the
// pixmap's top-left corner. A gray pixmap is painted in color and reduced
// to gray+alpha when its samples are read.
type Pixmap struct {
	X, Y int
	W, H int
	Gray bool

	img *image.RGBA
}

// NewPixmap allocates a pixmap for r.
func NewPixmap(r geom.IRect, gray bool) (*Pixmap, error) {
	w, h := r.Width(), r.Height()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrEmptyPixmap, r)
	}
	return &Pixmap{
		X: r.X0, Y: r.Y0, W: w, H: h,
		Gray: gray,
		img:  image.NewRGBA(image.Rect(0, 0, w, h)),
	}, nil
}

// Rect is the device-space rectangle covered by p.
func (p *Pixmap) Rect() geom.IRect {
	return geom.IRect{X0: p.X, Y0: p.Y, X1: p.X + p.W, Y1: p.Y + p.H}
}

// Clear sets every byte of every pixel to v: 0 is transparent black,
// 0xff opaque white.
func (p *Pixmap) Clear(v uint8) {
	for i := range p.img.Pix {
		p.img.Pix[i] = v
	}
}

// Components is the number of bytes per pixel returned by Samples.
func (p *Pixmap) Components() int {
	if p.Gray {
		return 2
	}
	return 4
}

// Samples returns the pixels row by row with no padding. Color pixmaps
// yield premultiplied BGRA; gray pixmaps yield premultiplied (gray, alpha).
func (p *Pixmap) Samples() []byte {
	n := p.W * p.H
	out := make([]byte, n*p.Components())
	for y := 0; y < p.H; y++ {
		row := p.img.Pix[y*p.img.Stride : y*p.img.Stride+4*p.W]
		for x := 0; x < p.W; x++ {
			r, g, b, a := row[4*x], row[4*x+1], row[4*x+2], row[4*x+3]
			i := y*p.W + x
			if p.Gray {
				out[2*i] = luma(r, g, b)
				out[2*i+1] = a
				continue
			}
			out[4*i] = b
			out[4*i+1] = g
			out[4*i+2] = r
			out[4*i+3] = a
		}
	}
	return out
}

// Image exposes the backing buffer. Its bounds start at (0, 0), which is
// device point (p.X, p.Y).
func (p *Pixmap) Image() *image.RGBA { return p.img }

// luma uses the Rec. 601 weights, matching image/color.GrayModel.
func luma(r, g, b uint8) uint8 {
	y := (19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16
	return uint8(y)
}
