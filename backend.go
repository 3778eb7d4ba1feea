// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfview

import (
	"os"

	"github.com/sassoftware/viya-pdf-view/geom"
	"github.com/sassoftware/viya-pdf-view/internal/pdfdoc"
	"github.com/sassoftware/viya-pdf-view/raster"
	"github.com/sassoftware/viya-pdf-view/stext"
)

// Metadata is the document information returned by Document.Metadata.
type Metadata = pdfdoc.Metadata

// Permissions are the access bits granted by the document's security handler.
type Permissions = pdfdoc.Permissions

// Source names the document to open. File takes precedence over Path.
// A File is duplicated by Open; the caller keeps ownership of the original.
type Source struct {
	Path string
	File *os.File
}

func (s Source) name() string {
	if s.File != nil {
		return s.File.Name()
	}
	return s.Path
}

// Backend parses documents. PDFBackend is the default.
type Backend interface {
	// OpenDocument opens src and, when the document is encrypted, tries
	// password. An authentication failure is not an error: it is reported
	// through OpenResult with Authenticated false and Doc nil.
	OpenDocument(src Source, password string) (OpenResult, error)
}

// OpenResult is what a Backend reports for an opened source.
type OpenResult struct {
	Doc           BackendDocument
	PageCount     int
	NeedsPassword bool
	Authenticated bool
}

// BackendPage is a loaded page owned by the page cache. Its geometry is
// resolved at load time; Close releases what the page holds.
type BackendPage interface {
	PageDict
	Close()
}

// PageDict exposes the geometry entries of a page dictionary.
type PageDict interface {
	// Box returns the named box: ArtBox, BleedBox, CropBox, MediaBox or TrimBox.
	Box(name string) (geom.Rect, bool)
	// Rotate is the page's /Rotate entry in degrees, 0 when absent.
	Rotate() int
}

// BackendDocument is one opened document. The Document handle serializes
// all calls.
type BackendDocument interface {
	LoadPage(index int) (BackendPage, error)
	PageDict(index int) (PageDict, error)
	NewGlyphCache(size int) (*raster.GlyphCache, error)
	RunPageRaster(page BackendPage, ctm geom.Matrix, pix *raster.Pixmap, cache *raster.GlyphCache, ignoreImages bool) error
	RunPageText(page BackendPage, ctm geom.Matrix) ([]stext.Span, error)
	// AgeStore hints that cached objects unused for more than maxAge
	// generations can be dropped.
	AgeStore(maxAge int)
	Close() error
}

// MetadataSource is implemented by backend documents that can report
// document information.
type MetadataSource interface {
	Metadata() (Metadata, error)
}
