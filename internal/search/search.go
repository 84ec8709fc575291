// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries the arXiv Atom API for candidate versions of a
// paper and classifies each response. Requests are spaced out by a
// shared rate limiter and are never retried here: a failed query is
// reported as transient and the caller moves on to its next variant.
package search

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultEndpoint is the arXiv query API.
const DefaultEndpoint = "http://export.arxiv.org/api/query"

// Kind classifies a search response.
type Kind int

const (
	// KindEntries means the response carried at least one entry.
	KindEntries Kind = iota
	// KindBlocked means the endpoint served HTML instead of Atom.
	KindBlocked
	// KindEmpty means a well-formed response with no entries.
	KindEmpty
	// KindTransient covers timeouts, transport errors, non-200 statuses
	// and unparseable bodies.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindEntries:
		return "entries"
	case KindBlocked:
		return "blocked"
	case KindEmpty:
		return "empty"
	case KindTransient:
		return "transient"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Entry is one search hit.
type Entry struct {
	ID      string
	Title   string
	Authors []string

	// PDFLink is empty when the entry carries no PDF link; such entries
	// cannot be selected.
	PDFLink string
}

// Result is the classification of one search request.
type Result struct {
	Kind    Kind
	Entries []Entry

	// Err explains a KindTransient result.
	Err error
}

// Waiter gates outgoing requests. *ratelimit.Limiter implements it.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Client issues rate-limited search requests.
type Client struct {
	// HTTP should carry the per-request timeout (30 s by default).
	HTTP       *http.Client
	Endpoint   string
	MaxResults int
	UserAgent  string
	Limiter    Waiter
	Logger     zerolog.Logger
}

// Search waits for the rate limiter, issues one request for q and
// classifies the response. It never returns an error; failures are
// reported as KindTransient.
func (c *Client) Search(ctx context.Context, q string) Result {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return Result{Kind: KindTransient, Err: fmt.Errorf("waiting for rate limiter: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.queryURL(q), nil)
	if err != nil {
		return Result{Kind: KindTransient, Err: fmt.Errorf("creating request: %w", err)}
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Result{Kind: KindTransient, Err: fmt.Errorf("arXiv request: %w", err)}
	}
	defer resp.Body.Close()

	if isHTML(resp.Header.Get("Content-Type")) {
		c.Logger.Warn().Str("query", q).Int("status", resp.StatusCode).Msg("arXiv returned an HTML page, possibly blocked")
		return Result{Kind: KindBlocked}
	}
	if resp.StatusCode != http.StatusOK {
		return Result{Kind: KindTransient, Err: fmt.Errorf("arXiv returned HTTP %d", resp.StatusCode)}
	}

	entries, err := parseFeed(resp.Body)
	if err != nil {
		return Result{Kind: KindTransient, Err: err}
	}
	if len(entries) == 0 {
		return Result{Kind: KindEmpty}
	}
	return Result{Kind: KindEntries, Entries: entries}
}

func (c *Client) queryURL(q string) string {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	maxResults := c.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	v := url.Values{}
	v.Set("search_query", q)
	v.Set("start", "0")
	v.Set("max_results", strconv.Itoa(maxResults))
	return endpoint + "?" + v.Encode()
}

func isHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "html")
	}
	return strings.Contains(mt, "html")
}
