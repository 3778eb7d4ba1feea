// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfdoc

import (
	"errors"
	"fmt"
	"io"
)

// A Stack represents a stack of values.
type Stack struct {
	stack []Value
}

func (stk *Stack) Len() int {
	return len(stk.stack)
}

func (stk *Stack) Push(v Value) {
	stk.stack = append(stk.stack, v)
}

// Pop returns the top value, or a null Value when the stack is empty.
func (stk *Stack) Pop() Value {
	n := len(stk.stack)
	if n == 0 {
		return Value{}
	}
	v := stk.stack[n-1]
	stk.stack[n-1] = Value{}
	stk.stack = stk.stack[:n-1]
	return v
}

// Clear drops every operand.
func (stk *Stack) Clear() {
	clear(stk.stack)
	stk.stack = stk.stack[:0]
}

// maxOperands bounds the operand stack of damaged content streams.
const maxOperands = 4096

// Interpret interprets the content in a stream as a basic PostScript program,
// pushing values onto a stack and then calling the do function to execute
// operators. The do function may push or pop values from the stack as needed
// to implement op.
//
// Interpret handles the operators "dict", "currentdict", "begin", "end",
// "def", and "pop" itself. Inline image data between "ID" and "EI" is
// skipped.
//
// A panic raised while interpreting, including one raised by do, is recovered
// and returned as an error, as is any error decoding the stream.
func Interpret(strm Value, do func(stk *Stack, op string)) error {
	rd := strm.Reader()
	defer rd.Close()
	return interpret(strm.r, rd, do)
}

func interpret(r *Reader, rd io.Reader, do func(stk *Stack, op string)) (err error) {
	b := newBuffer(rd, 0)
	b.allowEOF = true
	b.allowObjptr = false
	b.allowStream = false

	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("interpret: %v", e)
		}
	}()

	var stk Stack
	var dicts []dict
Reading:
	for {
		tok := b.readToken()
		if tok == io.EOF {
			break
		}
		if kw, ok := tok.(keyword); ok {
			switch kw {
			case "null", "[", "]", "<<", ">>":
				// parsed as objects below
			default:
				for i := len(dicts) - 1; i >= 0; i-- {
					if v, ok := dicts[i][name(kw)]; ok {
						stk.Push(Value{r, objptr{}, v})
						continue Reading
					}
				}
				do(&stk, string(kw))
				continue
			case "dict":
				stk.Pop()
				stk.Push(Value{r, objptr{}, make(dict)})
				continue
			case "currentdict":
				if len(dicts) == 0 {
					return errors.New("interpret: no current dictionary")
				}
				stk.Push(Value{r, objptr{}, dicts[len(dicts)-1]})
				continue
			case "begin":
				d, ok := stk.Pop().data.(dict)
				if !ok {
					return errors.New("interpret: cannot begin non-dict")
				}
				dicts = append(dicts, d)
				continue
			case "end":
				if len(dicts) == 0 {
					return errors.New("interpret: mismatched begin/end")
				}
				dicts = dicts[:len(dicts)-1]
				continue
			case "def":
				if len(dicts) == 0 {
					return errors.New("interpret: def without open dict")
				}
				val := stk.Pop()
				key, ok := stk.Pop().data.(name)
				if !ok {
					return errors.New("interpret: def of non-name")
				}
				dicts[len(dicts)-1][key] = val.data
				continue
			case "pop":
				stk.Pop()
				continue
			case "ID":
				b.skipInlineImage()
				stk.Clear()
				continue
			}
		}
		if stk.Len() >= maxOperands {
			return errors.New("interpret: operand stack overflow")
		}
		b.unreadToken(tok)
		obj := b.readObject()
		stk.Push(Value{r, objptr{}, obj})
	}
	if b.err != nil {
		return b.err
	}
	return nil
}

// skipInlineImage advances past inline image data up to and including the
// "EI" operator, which must be preceded by whitespace and followed by
// whitespace, a delimiter or the end of data.
func (b *buffer) skipInlineImage() {
	b.readByte() // single whitespace after ID
	prev := byte(' ')
	for !(b.eof && b.pos >= len(b.buf)) {
		c := b.readByte()
		if c == 'E' && isSpace(prev) {
			if b.readByte() == 'I' {
				next := b.readByte()
				if isSpace(next) || isDelim(next) || b.eof {
					b.unreadByte()
					return
				}
				b.unreadByte()
			}
			b.unreadByte()
		}
		prev = c
	}
}
