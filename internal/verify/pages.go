// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PageCount returns the number of pages in the PDF at path. The parser
// panics on some malformed files; that is reported as an error.
func PageCount(path string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return r.NumPage(), nil
}
