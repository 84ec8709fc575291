// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// DefaultPDFTemplate turns an OpenReview id into its PDF URL.
const DefaultPDFTemplate = "https://openreview.net/pdf?id=%s"

// ErrMalformedReference means a reference link could not be turned into
// a PDF URL.
var ErrMalformedReference = errors.New("malformed reference link")

// ReferenceToPDF maps a direct reference link to a PDF URL. Forum links
// of the form .../forum?id=<ID>&... become template with <ID> substituted;
// links that already address a PDF are returned unchanged.
func ReferenceToPDF(ref, template string) (string, error) {
	if template == "" {
		template = DefaultPDFTemplate
	}
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrMalformedReference, ref)
	}
	id := u.Query().Get("id")
	path := strings.TrimRight(u.Path, "/")

	switch {
	case strings.HasSuffix(path, "/forum"):
		if id == "" {
			return "", fmt.Errorf("%w: %q has no id", ErrMalformedReference, ref)
		}
		return fmt.Sprintf(template, url.QueryEscape(id)), nil
	case strings.HasSuffix(strings.ToLower(path), ".pdf"):
		return u.String(), nil
	case strings.HasSuffix(path, "/pdf") && id != "":
		return u.String(), nil
	}
	return "", fmt.Errorf("%w: %q", ErrMalformedReference, ref)
}

const maxFilenameRunes = 150

// SafeFilename keeps letters, digits, spaces, dots and underscores,
// replaces every other rune with an underscore, trims surrounding space
// and caps the result at 150 runes.
func SafeFilename(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '.' || r == '_' {
			return r
		}
		return '_'
	}, s)
	runes := []rune(strings.TrimSpace(mapped))
	if len(runes) > maxFilenameRunes {
		runes = runes[:maxFilenameRunes]
	}
	return string(runes)
}
