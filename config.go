// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfview

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sassoftware/viya-pdf-view/logger"
)

type ParsingMode string

const (
	Strict     ParsingMode = "strict"
	BestEffort ParsingMode = "best-effort"
)

type Config struct {
	// Page cache and object store aging.
	MaxResidentPages      int  `validate:"min=1,max=1024"`
	RenderStoreMaxAge     int  `validate:"min=0,max=64"`
	SearchStoreMaxAge     int  `validate:"min=0,max=64"`
	TextStoreMaxAge       int  `validate:"min=0,max=64"`
	FlushStoreAfterSearch bool

	// Rendering and search output.
	MarkerMargin   int `validate:"min=0,max=64"`
	GlyphCacheSize int `validate:"min=1"`
	MaxTilePixels  int `validate:"min=1"`

	// Batch processing.
	MaxConcurrentDocs int           `validate:"min=1,max=10"`
	MaxWorkersPerDoc  int           `validate:"min=1,max=10"`
	WorkerTimeout     time.Duration `validate:"required"`
	ParsingMode       ParsingMode   `validate:"oneof=strict best-effort"`

	DebugOn bool
	Logger  logger.LogFunc
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxResidentPages:      16,
		RenderStoreMaxAge:     1,
		SearchStoreMaxAge:     4,
		TextStoreMaxAge:       4,
		FlushStoreAfterSearch: true,
		MarkerMargin:          2,
		GlyphCacheSize:        512,
		MaxTilePixels:         64 << 20,
		MaxConcurrentDocs:     5,
		MaxWorkersPerDoc:      1,
		WorkerTimeout:         5 * time.Second,
		ParsingMode:           BestEffort,
		DebugOn:               false,
	}
}

func (cfg *Config) Validate() error {
	logger.Debug("Validating Config Object")
	validate := validator.New()
	return validate.Struct(cfg)
}

// installLogger routes package logging to cfg.Logger. With DebugOn and no
// Logger, debug output goes to stderr.
func (cfg *Config) installLogger() {
	switch {
	case cfg.Logger != nil:
		logger.SetLogger(cfg.Logger)
	case cfg.DebugOn:
		logger.SetLogger(func(level logger.LogLevel, msg string, keyvals ...interface{}) {
			fmt.Fprintln(os.Stderr, append([]interface{}{level, msg}, keyvals...)...)
		})
	}
}
