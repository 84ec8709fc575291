// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Retry describes a fixed-count, fixed-backoff retry policy for transient
// failures: transport errors, HTTP 429 and HTTP 5xx. Other statuses,
// including 404, are returned immediately.
type Retry struct {
	// Retries is the number of attempts after the first.
	Retries int

	// Backoff is the wait between attempts.
	Backoff time.Duration

	Logger zerolog.Logger
}

// Do executes req and retries transient failures. After exhausting
// retries the last transient response (or error) is returned so the
// caller can inspect it. If ctx ends during a backoff wait Do returns
// ctx.Err().
func (r Retry) Do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err == nil && !Transient(resp.StatusCode) {
			return resp, nil
		}
		if ctx.Err() != nil {
			if resp != nil {
				resp.Body.Close()
			}
			return nil, ctx.Err()
		}
		if attempt >= r.Retries {
			return resp, err
		}

		ev := r.Logger.Debug().Str("url", req.URL.String()).Int("attempt", attempt+1).Int("retries", r.Retries)
		if err != nil {
			ev = ev.Err(err)
		} else {
			ev = ev.Int("status", resp.StatusCode)
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		ev.Dur("backoff", r.Backoff).Msg("retrying request")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.Backoff):
		}
	}
}

// Get fetches url with the given User-Agent and returns the response
// when it is HTTP 200. Any other final status is a *StatusError and the
// body is closed.
func (r Retry) Get(ctx context.Context, client *http.Client, url, userAgent string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := r.Do(ctx, client, req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	return resp, nil
}

// Transient reports whether an HTTP status is worth retrying.
func Transient(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
