// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(cfg *Config)
		shouldErr bool
	}{
		{
			name:      "default config is valid",
			mutate:    func(cfg *Config) {},
			shouldErr: false,
		},
		{
			name:      "strict mode with more workers",
			mutate:    func(cfg *Config) { cfg.ParsingMode = Strict; cfg.MaxWorkersPerDoc = 4 },
			shouldErr: false,
		},
		{
			name:      "zero store ages are allowed",
			mutate:    func(cfg *Config) { cfg.RenderStoreMaxAge = 0; cfg.SearchStoreMaxAge = 0 },
			shouldErr: false,
		},
		{
			name:      "invalid MaxResidentPages (too low)",
			mutate:    func(cfg *Config) { cfg.MaxResidentPages = 0 },
			shouldErr: true,
		},
		{
			name:      "invalid TextStoreMaxAge (negative)",
			mutate:    func(cfg *Config) { cfg.TextStoreMaxAge = -1 },
			shouldErr: true,
		},
		{
			name:      "invalid MarkerMargin (too high)",
			mutate:    func(cfg *Config) { cfg.MarkerMargin = 100 },
			shouldErr: true,
		},
		{
			name:      "invalid GlyphCacheSize",
			mutate:    func(cfg *Config) { cfg.GlyphCacheSize = 0 },
			shouldErr: true,
		},
		{
			name:      "invalid MaxTilePixels",
			mutate:    func(cfg *Config) { cfg.MaxTilePixels = 0 },
			shouldErr: true,
		},
		{
			name:      "invalid MaxConcurrentDocs (too low)",
			mutate:    func(cfg *Config) { cfg.MaxConcurrentDocs = 0 },
			shouldErr: true,
		},
		{
			name:      "invalid MaxWorkersPerDoc (too high)",
			mutate:    func(cfg *Config) { cfg.MaxWorkersPerDoc = 11 },
			shouldErr: true,
		},
		{
			name:      "missing WorkerTimeout",
			mutate:    func(cfg *Config) { cfg.WorkerTimeout = 0 },
			shouldErr: true,
		},
		{
			name:      "invalid ParsingMode",
			mutate:    func(cfg *Config) { cfg.ParsingMode = "invalid-mode" },
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.shouldErr {
				assert.Error(t, err, "expected validation error")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, 16, cfg.MaxResidentPages)
	assert.Equal(t, 1, cfg.RenderStoreMaxAge)
	assert.Equal(t, 4, cfg.SearchStoreMaxAge)
	assert.Equal(t, 4, cfg.TextStoreMaxAge)
	assert.True(t, cfg.FlushStoreAfterSearch)
	assert.Equal(t, 2, cfg.MarkerMargin)
	assert.Equal(t, 5*time.Second, cfg.WorkerTimeout)
	assert.Equal(t, BestEffort, cfg.ParsingMode)
}
