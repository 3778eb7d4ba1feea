// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfdoc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	op   string
	args []string
}

func record(t *testing.T, content string) ([]call, error) {
	t.Helper()
	var calls []call
	err := interpret(nil, strings.NewReader(content), func(stk *Stack, op string) {
		args := make([]string, stk.Len())
		for i := len(args) - 1; i >= 0; i-- {
			args[i] = stk.Pop().String()
		}
		calls = append(calls, call{op, args})
	})
	return calls, err
}

func TestStack(t *testing.T) {
	var stk Stack
	v1 := Value{data: int64(1)}
	v2 := Value{data: int64(2)}

	stk.Push(v1)
	stk.Push(v2)
	assert.Equal(t, 2, stk.Len())
	assert.Equal(t, v2, stk.Pop())
	assert.Equal(t, v1, stk.Pop())
	assert.Equal(t, Value{}, stk.Pop(), "popping an empty stack returns null")

	stk.Push(v1)
	stk.Clear()
	assert.Equal(t, 0, stk.Len())
}

func TestInterpret_Operators(t *testing.T) {
	calls, err := record(t, "1 0 0 1 72 700 cm\nBT /F1 12 Tf (Hi) Tj [(a) -20 (b)] TJ ET")
	require.NoError(t, err)
	require.Len(t, calls, 6)
	assert.Equal(t, call{"cm", []string{"1", "0", "0", "1", "72", "700"}}, calls[0])
	assert.Equal(t, call{"BT", []string{}}, calls[1])
	assert.Equal(t, call{"Tf", []string{"/F1", "12"}}, calls[2])
	assert.Equal(t, "Tj", calls[3].op)
	assert.Equal(t, "TJ", calls[4].op)
	assert.Len(t, calls[4].args, 1)
	assert.Equal(t, "ET", calls[5].op)
}

func TestInterpret_Dictionaries(t *testing.T) {
	var ops []string
	var shown Value
	err := interpret(nil, strings.NewReader("/CIDInit /ProcSet findresource begin 12 dict begin /x 5 def x show end end"),
		func(stk *Stack, op string) {
			ops = append(ops, op)
			switch op {
			case "findresource":
				stk.Pop()
				stk.Pop()
				stk.Push(Value{data: dict{}})
			case "show":
				shown = stk.Pop()
			}
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"findresource", "show"}, ops)
	assert.Equal(t, int64(5), shown.Int64(), "x resolves through the dictionary stack")
}

func TestInterpret_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"end without begin", "end"},
		{"def without dict", "/x 1 def"},
		{"begin non-dict", "1 begin"},
		{"currentdict without dict", "currentdict"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := record(t, tt.content)
			assert.Error(t, err)
		})
	}
}

func TestInterpret_OperandOverflow(t *testing.T) {
	_, err := record(t, strings.Repeat("1 ", maxOperands+1))
	assert.ErrorContains(t, err, "overflow")
}

func TestInterpret_RecoversPanic(t *testing.T) {
	err := interpret(nil, strings.NewReader("boom"), func(stk *Stack, op string) {
		panic("bad operator " + op)
	})
	assert.ErrorContains(t, err, "bad operator boom")
}

func TestInterpret_SkipsInlineImage(t *testing.T) {
	calls, err := record(t, "q BI /W 2 /H 1 /BPC 8 /CS /G ID \x00EI\xff\nEI Q")
	require.NoError(t, err)
	var ops []string
	for _, c := range calls {
		ops = append(ops, c.op)
	}
	assert.Equal(t, []string{"q", "BI", "Q"}, ops)
}
