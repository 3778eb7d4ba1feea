// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfdoc

import (
	"bufio"
	"compress/lzw"
	"compress/zlib"
	"encoding/ascii85"
	"errors"
	"fmt"
	"io"

	tifflzw "golang.org/x/image/tiff/lzw"
)

// ErrUnsupportedFilter is returned for stream filters the reader cannot decode.
var ErrUnsupportedFilter = errors.New("unsupported filter")

func applyFilter(rd io.Reader, filter string, param Value) (io.Reader, error) {
	switch filter {
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFilter, filter)
	case "Crypt":
		return rd, nil
	case "DCTDecode", "DCT":
		// decoded by the image loader
		return rd, nil
	case "FlateDecode", "Fl":
		zr, err := zlib.NewReader(rd)
		if err != nil {
			return nil, fmt.Errorf("FlateDecode: %w", err)
		}
		return applyPredictor(zr, param)
	case "LZWDecode", "LZW":
		var lr io.Reader
		if early := param.Key("EarlyChange"); early.Kind() == Integer && early.Int64() == 0 {
			lr = lzw.NewReader(rd, lzw.MSB, 8)
		} else {
			lr = tifflzw.NewReader(rd, tifflzw.MSB, 8)
		}
		return applyPredictor(lr, param)
	case "ASCII85Decode", "A85":
		return ascii85.NewDecoder(newAlphaReader(rd)), nil
	case "ASCIIHexDecode", "AHx":
		return &asciiHexReader{r: bufio.NewReader(rd)}, nil
	case "RunLengthDecode", "RL":
		return &runLengthReader{r: bufio.NewReader(rd)}, nil
	}
}

func applyPredictor(rd io.Reader, param Value) (io.Reader, error) {
	pred := param.Key("Predictor").Int64()
	if pred <= 1 {
		return rd, nil
	}
	colors := int(param.Key("Colors").Int64())
	if colors <= 0 {
		colors = 1
	}
	bpc := int(param.Key("BitsPerComponent").Int64())
	if bpc <= 0 {
		bpc = 8
	}
	columns := int(param.Key("Columns").Int64())
	if columns <= 0 {
		columns = 1
	}
	bpp := (colors*bpc + 7) / 8
	rowLen := (colors*bpc*columns + 7) / 8
	switch {
	case pred == 2:
		if bpc != 8 {
			return nil, fmt.Errorf("%w: TIFF predictor with %d bits per component", ErrUnsupportedFilter, bpc)
		}
		return &predictorReader{r: rd, tiff: true, bpp: bpp, cur: make([]byte, rowLen), prev: make([]byte, rowLen)}, nil
	case pred >= 10 && pred <= 15:
		return &predictorReader{r: rd, bpp: bpp, cur: make([]byte, rowLen+1), prev: make([]byte, rowLen)}, nil
	}
	return nil, fmt.Errorf("%w: predictor %d", ErrUnsupportedFilter, pred)
}

// predictorReader undoes PNG row filters (predictors 10..15, one filter
// type byte per row) and the TIFF horizontal predictor.
type predictorReader struct {
	r    io.Reader
	tiff bool
	bpp  int
	cur  []byte
	prev []byte
	pend []byte
}

func (p *predictorReader) Read(b []byte) (int, error) {
	n := 0
	for len(b) > 0 {
		if len(p.pend) > 0 {
			m := copy(b, p.pend)
			n += m
			b = b[m:]
			p.pend = p.pend[m:]
			continue
		}
		if _, err := io.ReadFull(p.r, p.cur); err != nil {
			if err == io.ErrUnexpectedEOF {
				err = io.EOF
			}
			return n, err
		}
		if err := p.decodeRow(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (p *predictorReader) decodeRow() error {
	if p.tiff {
		row := p.cur
		for i := p.bpp; i < len(row); i++ {
			row[i] += row[i-p.bpp]
		}
		p.pend = row
		return nil
	}
	typ, row := p.cur[0], p.cur[1:]
	bpp := p.bpp
	switch typ {
	case 0:
	case 1: // Sub
		for i := bpp; i < len(row); i++ {
			row[i] += row[i-bpp]
		}
	case 2: // Up
		for i := range row {
			row[i] += p.prev[i]
		}
	case 3: // Average
		for i := range row {
			var left byte
			if i >= bpp {
				left = row[i-bpp]
			}
			row[i] += byte((int(left) + int(p.prev[i])) / 2)
		}
	case 4: // Paeth
		for i := range row {
			var a, c byte
			if i >= bpp {
				a = row[i-bpp]
				c = p.prev[i-bpp]
			}
			row[i] += paeth(a, p.prev[i], c)
		}
	default:
		return fmt.Errorf("malformed PNG predictor row type %d", typ)
	}
	copy(p.prev, row)
	p.pend = p.prev
	return nil
}

func paeth(a, b, c byte) byte {
	pa := absInt(int(b) - int(c))
	pb := absInt(int(a) - int(c))
	pc := absInt(int(a) + int(b) - 2*int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// alphaReader feeds ascii85.Decoder: it blanks the optional "<~" prefix and
// any byte outside the ASCII85 alphabet, and ends the stream at "~>".
type alphaReader struct {
	r    io.Reader
	seen int
	lead bool
	done bool
}

func newAlphaReader(r io.Reader) *alphaReader {
	return &alphaReader{r: r}
}

func (a *alphaReader) Read(p []byte) (int, error) {
	if a.done {
		return 0, io.EOF
	}
	n, err := a.r.Read(p)
	for i := 0; i < n; i++ {
		c := p[i]
		switch {
		case c == '<' && a.seen == 0:
			p[i] = ' '
			a.lead = true
		case c == '~' && a.lead && a.seen == 0:
			p[i] = ' '
			a.lead = false
		case c == '~':
			a.done = true
			return i, nil
		case c >= '!' && c <= 'u' || c == 'z':
			a.seen++
		default:
			p[i] = ' '
		}
	}
	return n, err
}

type asciiHexReader struct {
	r    *bufio.Reader
	done bool
}

func (h *asciiHexReader) nextDigit() (int, bool) {
	for !h.done {
		c, err := h.r.ReadByte()
		if err != nil || c == '>' {
			h.done = true
			break
		}
		if d := unhex(c); d >= 0 {
			return d, true
		}
	}
	return 0, false
}

func (h *asciiHexReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		hi, ok := h.nextDigit()
		if !ok {
			break
		}
		lo, ok := h.nextDigit()
		p[n] = byte(hi<<4 | lo) // lo is 0 when the digit count is odd
		n++
		if !ok {
			break
		}
	}
	if n == 0 && h.done {
		return 0, io.EOF
	}
	return n, nil
}

type runLengthReader struct {
	r    *bufio.Reader
	pend []byte
	buf  [128]byte
	done bool
}

func (rl *runLengthReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(rl.pend) > 0 {
			m := copy(p[n:], rl.pend)
			n += m
			rl.pend = rl.pend[m:]
			continue
		}
		if rl.done {
			break
		}
		length, err := rl.r.ReadByte()
		if err != nil || length == 128 {
			rl.done = true
			break
		}
		if length < 128 {
			k := int(length) + 1
			m, _ := io.ReadFull(rl.r, rl.buf[:k])
			rl.pend = rl.buf[:m]
			continue
		}
		c, err := rl.r.ReadByte()
		if err != nil {
			rl.done = true
			break
		}
		k := 257 - int(length)
		for i := 0; i < k; i++ {
			rl.buf[i] = c
		}
		rl.pend = rl.buf[:k]
	}
	if n == 0 && rl.done {
		return 0, io.EOF
	}
	return n, nil
}
