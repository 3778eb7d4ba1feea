// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

//go:build !unix

package pdfview

import "os"

// dupFile reopens f by name where descriptors cannot be duplicated.
func dupFile(f *os.File) (*os.File, error) {
	return os.Open(f.Name())
}
