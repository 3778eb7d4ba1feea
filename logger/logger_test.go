// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package logger

import (
	"testing"

	"github.com/sassoftware/viya-pdf-view/tracer"
	"github.com/stretchr/testify/assert"
)

type entry struct {
	level   LogLevel
	msg     string
	keyvals []interface{}
}

func TestDebugTraceFlag(t *testing.T) {
	var got []entry
	SetLogger(func(level LogLevel, msg string, keyvals ...interface{}) {
		got = append(got, entry{level, msg, keyvals})
	})
	defer SetLogger(func(LogLevel, string, ...interface{}) {})
	tracer.Reset()

	Debug("plain", "page", 3)
	Debug("traced", true)
	Error("broken", "page", 4)

	if assert.Len(t, got, 3) {
		assert.Equal(t, DebugLevel, got[0].level)
		assert.Equal(t, []interface{}{"page", 3}, got[0].keyvals)
		assert.Empty(t, got[1].keyvals, "trace flag must be stripped from keyvals")
		assert.Equal(t, ErrorLevel, got[2].level)
	}
	assert.Equal(t, []string{"traced"}, tracer.Messages())
	tracer.Reset()
}

func TestSetLoggerIgnoresNil(t *testing.T) {
	called := false
	SetLogger(func(LogLevel, string, ...interface{}) { called = true })
	SetLogger(nil)
	Error("still routed")
	assert.True(t, called)
	SetLogger(func(LogLevel, string, ...interface{}) {})
}
