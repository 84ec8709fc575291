// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/confharvest/internal/httputil"
	"github.com/pdiddy/confharvest/internal/testutil"
)

func newVerifier(ts *httptest.Server) *Verifier {
	return &Verifier{
		HTTP:      ts.Client(),
		Retry:     httputil.Retry{Retries: 2, Backoff: time.Millisecond, Logger: zerolog.Nop()},
		UserAgent: "test/0.1",
		MinSize:   1024,
		Logger:    zerolog.Nop(),
	}
}

func serve(contentType string, body []byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write(body)
	}))
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestDownload_AcceptsPDF(t *testing.T) {
	body := testutil.PDF(3)
	ts := serve("application/pdf", body)
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "pdfs", "p1.pdf")
	n, err := newVerifier(ts).Download(context.Background(), ts.URL, dest)
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), n)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(got, []byte("%PDF")))
	assert.Equal(t, []string{"p1.pdf"}, dirEntries(t, filepath.Dir(dest)))

	pages, err := PageCount(dest)
	require.NoError(t, err)
	assert.Equal(t, 3, pages)
}

func TestDownload_HTMLRejectedWithoutWriting(t *testing.T) {
	ts := serve("text/html; charset=utf-8", []byte("<html>%PDF lookalike</html>"))
	defer ts.Close()

	dir := t.TempDir()
	_, err := newVerifier(ts).Download(context.Background(), ts.URL, filepath.Join(dir, "pdfs", "p1.pdf"))
	assert.ErrorIs(t, err, ErrBlockedHTML)
	assert.True(t, Rejected(err))
	assert.Empty(t, dirEntries(t, dir))
}

func TestDownload_NotPDF(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		captcha bool
	}{
		{"plain", strings.Repeat("x", 2000), false},
		{"captcha", "Please complete the CAPTCHA to continue" + strings.Repeat(" ", 2000), true},
		{"robot", "Are you a Robot?" + strings.Repeat(" ", 2000), true},
		{"short", "oops", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := serve("application/octet-stream", []byte(tt.body))
			defer ts.Close()

			dir := t.TempDir()
			_, err := newVerifier(ts).Download(context.Background(), ts.URL, filepath.Join(dir, "p.pdf"))
			var notPDF *NotPDFError
			require.ErrorAs(t, err, &notPDF)
			assert.Equal(t, tt.captcha, notPDF.Captcha)
			assert.True(t, Rejected(err))
			assert.Empty(t, dirEntries(t, dir))
		})
	}
}

func TestDownload_SignatureAfterPeekWindowRejected(t *testing.T) {
	ts := serve("application/pdf", append(bytes.Repeat([]byte(" "), 200), testutil.PDF(1)...))
	defer ts.Close()

	_, err := newVerifier(ts).Download(context.Background(), ts.URL, filepath.Join(t.TempDir(), "p.pdf"))
	var notPDF *NotPDFError
	assert.ErrorAs(t, err, &notPDF)
}

func TestDownload_TooSmallRemoved(t *testing.T) {
	ts := serve("application/pdf", []byte("%PDF-1.4\n%%EOF\n"))
	defer ts.Close()

	dir := t.TempDir()
	n, err := newVerifier(ts).Download(context.Background(), ts.URL, filepath.Join(dir, "p.pdf"))
	assert.ErrorIs(t, err, ErrTooSmall)
	assert.Equal(t, int64(15), n)
	assert.Empty(t, dirEntries(t, dir))
}

func TestDownload_UnwritableDirectoryIsNotRejection(t *testing.T) {
	ts := serve("application/pdf", testutil.PDF(1))
	defer ts.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blocker"), nil, 0o644))

	_, err := newVerifier(ts).Download(context.Background(), ts.URL, filepath.Join(dir, "blocker", "p.pdf"))
	require.Error(t, err)
	assert.False(t, Rejected(err))
	assert.Contains(t, err.Error(), "creating directory")
	assert.Equal(t, []string{"blocker"}, dirEntries(t, dir))
}

func TestDownload_NotFoundIsNotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, nil)
	}))
	defer ts.Close()

	_, err := newVerifier(ts).Download(context.Background(), ts.URL, filepath.Join(t.TempDir(), "p.pdf"))
	var se *httputil.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.False(t, Rejected(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDownload_RetriesServerError(t *testing.T) {
	var calls int32
	body := testutil.PDF(1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(body)
	}))
	defer ts.Close()

	_, err := newVerifier(ts).Download(context.Background(), ts.URL, filepath.Join(t.TempDir(), "p.pdf"))
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestVerify_StreamsToSink(t *testing.T) {
	body := testutil.PDF(2)
	ts := serve("application/pdf", body)
	defer ts.Close()

	var sink bytes.Buffer
	n, err := newVerifier(ts).Verify(context.Background(), ts.URL, &sink)
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), n)
	assert.Equal(t, body, sink.Bytes())
}

func TestVerify_HTMLWritesNothing(t *testing.T) {
	ts := serve("text/html", []byte("<html></html>"))
	defer ts.Close()

	var sink bytes.Buffer
	_, err := newVerifier(ts).Verify(context.Background(), ts.URL, &sink)
	assert.ErrorIs(t, err, ErrBlockedHTML)
	assert.Zero(t, sink.Len())
}

func TestPageCount_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 garbage"), 0o644))
	_, err := PageCount(path)
	assert.Error(t, err)
}
