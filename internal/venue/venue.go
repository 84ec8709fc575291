// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package venue scrapes conference listing pages into paper records and
// finds each paper's direct reference link. One Adapter exists per site
// layout; adapters are looked up by short name in a registry.
package venue

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/pdiddy/confharvest/internal/httputil"
	"github.com/pdiddy/confharvest/pkg/types"
)

// ErrNoReference means the paper page carries no direct reference link.
var ErrNoReference = errors.New("no direct reference link")

// Adapter is the per-site capability set used by the harvester.
type Adapter interface {
	// Name is the registry short name stamped on every paper.
	Name() string

	// ListingURL is the page FetchListing reads for year and event type.
	ListingURL(year int, eventType string) string

	// FetchListing returns the papers listed for year and event type.
	// Cards that cannot be parsed are logged and skipped.
	FetchListing(ctx context.Context, year int, eventType string) ([]types.Paper, error)

	// DirectReference returns the paper's link on a review platform or
	// publisher, or ErrNoReference.
	DirectReference(ctx context.Context, p types.Paper) (string, error)
}

// Fetcher retrieves and parses HTML pages.
type Fetcher struct {
	HTTP      *http.Client
	Retry     httputil.Retry
	UserAgent string
	Logger    zerolog.Logger
}

// Document fetches pageURL and parses it as HTML.
func (f *Fetcher) Document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	resp, err := f.Retry.Get(ctx, f.HTTP, pageURL, f.UserAgent)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", pageURL, err)
	}
	return doc, nil
}

// resolveURL resolves href against base; absolute hrefs are returned as is.
func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}

// cleanText collapses runs of whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeAuthors rewrites middot-separated author lists as "; "
// separated ones.
func normalizeAuthors(s string) string {
	s = strings.ReplaceAll(s, "&middot;", "·")
	parts := strings.Split(s, "·")
	if len(parts) == 1 {
		return cleanText(s)
	}
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = cleanText(p); p != "" {
			names = append(names, p)
		}
	}
	return strings.Join(names, "; ")
}
