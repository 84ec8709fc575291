// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pdiddy/confharvest/internal/acquire"
	"github.com/pdiddy/confharvest/internal/httputil"
	"github.com/pdiddy/confharvest/internal/match"
	"github.com/pdiddy/confharvest/internal/ratelimit"
	"github.com/pdiddy/confharvest/internal/resolve"
	"github.com/pdiddy/confharvest/internal/search"
	"github.com/pdiddy/confharvest/internal/venue"
	"github.com/pdiddy/confharvest/internal/verify"
	"github.com/pdiddy/confharvest/pkg/types"
)

// components holds the collaborators shared by every paper of a run.
type components struct {
	fetcher  *venue.Fetcher
	search   *search.Client
	verifier *verify.Verifier
}

// newComponents builds the HTTP clients, the shared search rate limiter
// and the PDF verifier from c.
func newComponents(c types.Config, log zerolog.Logger) (*components, error) {
	pageHTTP, err := httputil.NewClient(c.HTTP.Timeout, c.HTTP.Proxy)
	if err != nil {
		return nil, err
	}
	downloadHTTP, err := httputil.NewClient(c.Download.Timeout, c.HTTP.Proxy)
	if err != nil {
		return nil, err
	}
	retry := httputil.Retry{Retries: c.HTTP.Retries, Backoff: c.HTTP.RetryBackoff, Logger: log}

	comp := &components{
		fetcher: &venue.Fetcher{HTTP: pageHTTP, Retry: retry, UserAgent: c.HTTP.UserAgent, Logger: log},
		verifier: &verify.Verifier{
			HTTP:      downloadHTTP,
			Retry:     retry,
			UserAgent: c.HTTP.UserAgent,
			MinSize:   c.Download.MinSize,
			Logger:    log,
		},
	}

	if c.Search.Enabled {
		searchHTTP, err := httputil.NewClient(c.Search.Timeout, c.HTTP.Proxy)
		if err != nil {
			return nil, err
		}
		comp.search = &search.Client{
			HTTP:       searchHTTP,
			Endpoint:   c.Search.Endpoint,
			MaxResults: c.Search.MaxResults,
			UserAgent:  c.HTTP.UserAgent,
			Limiter:    ratelimit.New(c.Search.Interval, c.Search.JitterMin, c.Search.JitterMax),
			Logger:     log,
		}
	}
	return comp, nil
}

// resolver builds a Resolver storing PDFs under dir. ref may be nil.
func (comp *components) resolver(c types.Config, ref resolve.Referencer, dir string, log zerolog.Logger) *resolve.Resolver {
	r := &resolve.Resolver{
		Reference:       ref,
		Selector:        match.NewSelector(c.Match),
		Downloader:      comp.verifier,
		PDFTemplate:     c.Reference.PDFTemplate,
		Dir:             acquire.PDFDir(dir),
		ExistingMinSize: c.Download.ExistingMinSize,
		Logger:          log,
	}
	// Leave the interface nil rather than holding a nil *search.Client.
	if comp.search != nil {
		r.Search = comp.search
	}
	return r
}

// openVenue looks up the venue adapter for name.
func (comp *components) openVenue(name string) (venue.Adapter, error) {
	a, err := venue.Open(name, comp.fetcher)
	if err != nil {
		return nil, fmt.Errorf("opening venue: %w", err)
	}
	return a, nil
}
