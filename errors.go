// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfview

import (
	"errors"
	"fmt"
)

// Failure classes. Every error returned by this package matches exactly one
// of them with errors.Is.
var (
	// ErrAuthentication means the password was wrong or missing. The
	// returned handle is inert and reports InvalidPassword.
	ErrAuthentication = errors.New("wrong or missing password")

	// ErrDocumentOpen means the source could not be opened or parsed.
	ErrDocumentOpen = errors.New("cannot open document")

	// ErrPageLoad means one page could not be parsed. Other pages stay usable.
	ErrPageLoad = errors.New("cannot load page")

	// ErrRender means the glyph cache or the raster run failed.
	ErrRender = errors.New("render failed")

	// ErrTextExtraction means the text run failed.
	ErrTextExtraction = errors.New("text extraction failed")

	// ErrInvalidHandle is returned by every operation on a closed or inert handle.
	ErrInvalidHandle = errors.New("invalid document handle")

	// ErrGeometry means the page index is out of range or the page has no usable box.
	ErrGeometry = errors.New("page geometry unavailable")

	// ErrInvalidArgument reports a bad request: tile size, zoom, config.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupported means the backend does not provide the operation.
	ErrUnsupported = errors.New("not supported by backend")
)

// ViewError carries the context of a failed operation. It unwraps to both
// its failure class and the underlying cause.
type ViewError struct {
	Op   string // operation that failed, e.g. "render", "search"
	Page int    // 1-based page number, 0 when not page specific
	Path string // source path, when known
	Kind error  // one of the Err* classes
	Err  error  // underlying cause, may be nil
}

func (e *ViewError) Error() string {
	msg := e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	where := e.Op
	if e.Path != "" {
		where += " (" + e.Path + ")"
	}
	if e.Page > 0 {
		where += fmt.Sprintf(" page %d", e.Page)
	}
	return fmt.Sprintf("pdfview: %s: %s", where, msg)
}

func (e *ViewError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// pageError wraps cause for the 0-based page index.
func pageError(op string, index int, kind, cause error) error {
	return &ViewError{Op: op, Page: index + 1, Kind: kind, Err: cause}
}

func opError(op string, kind, cause error) error {
	return &ViewError{Op: op, Kind: kind, Err: cause}
}
