// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify downloads candidate PDF URLs and accepts them only when
// the bytes are really a PDF. Anti-bot interstitials, captcha pages and
// tiny error bodies are rejected and nothing is left on disk.
package verify

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/pdiddy/confharvest/internal/httputil"
)

const peekSize = 100

var pdfMagic = []byte("%PDF")

// ErrBlockedHTML means the server answered with an HTML page.
var ErrBlockedHTML = errors.New("response is an HTML page")

// ErrTooSmall means the body was below the minimum plausible PDF size.
var ErrTooSmall = errors.New("downloaded file is too small")

// NotPDFError means the body does not start with the PDF signature.
type NotPDFError struct {
	ContentType string

	// Captcha is set when the body mentions a captcha or robot check.
	Captcha bool
}

func (e *NotPDFError) Error() string {
	if e.Captcha {
		return fmt.Sprintf("content is a captcha page, not a PDF (content type %q)", e.ContentType)
	}
	return fmt.Sprintf("content is not a PDF (content type %q)", e.ContentType)
}

// Rejected reports whether err is a content rejection rather than a
// transport or disk failure.
func Rejected(err error) bool {
	var notPDF *NotPDFError
	return errors.Is(err, ErrBlockedHTML) || errors.Is(err, ErrTooSmall) || errors.As(err, &notPDF)
}

// Verifier fetches and checks PDFs.
type Verifier struct {
	// HTTP should carry the download timeout (60 s by default).
	HTTP      *http.Client
	Retry     httputil.Retry
	UserAgent string

	// MinSize is the smallest accepted body in bytes.
	MinSize int64

	Logger zerolog.Logger
}

// Verify streams the PDF at url into w and returns the byte count.
// Nothing is written to w unless the response passes the content-type
// and signature checks. A body shorter than MinSize is reported as
// ErrTooSmall after it has been written; Download uses this to discard
// the partial file.
func (v *Verifier) Verify(ctx context.Context, url string, w io.Writer) (int64, error) {
	body, err := v.open(ctx, url)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	n, err := io.Copy(w, body)
	if err != nil {
		return n, fmt.Errorf("copying %s: %w", url, err)
	}
	if n < v.MinSize {
		return n, fmt.Errorf("%w (%d bytes)", ErrTooSmall, n)
	}
	return n, nil
}

// Download verifies url and stores the body at dest. The body goes to a
// temporary file next to dest, created only once the checks pass, and is
// renamed into place after the size check; on any failure the temporary
// file is removed.
func (v *Verifier) Download(ctx context.Context, url, dest string) (int64, error) {
	tmp := &tempFile{dir: filepath.Dir(dest)}
	n, err := v.Verify(ctx, url, tmp)
	if err != nil {
		tmp.discard()
		if errors.Is(err, ErrTooSmall) {
			v.Logger.Warn().Str("url", url).Int64("bytes", n).Msg("downloaded file too small, possibly an error page")
		}
		return n, err
	}
	if tmp.f == nil {
		return n, fmt.Errorf("%w (0 bytes)", ErrTooSmall)
	}

	path := tmp.f.Name()
	if err := tmp.f.Close(); err != nil {
		os.Remove(path)
		return n, fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(path, dest); err != nil {
		os.Remove(path)
		return n, fmt.Errorf("renaming temp file: %w", err)
	}
	return n, nil
}

// tempFile creates its directory and file on the first Write.
type tempFile struct {
	dir string
	f   *os.File
}

func (t *tempFile) Write(p []byte) (int, error) {
	if t.f == nil {
		if err := os.MkdirAll(t.dir, 0o755); err != nil {
			return 0, fmt.Errorf("creating directory %s: %w", t.dir, err)
		}
		f, err := os.CreateTemp(t.dir, ".download-*.tmp")
		if err != nil {
			return 0, fmt.Errorf("creating temp file: %w", err)
		}
		t.f = f
	}
	return t.f.Write(p)
}

func (t *tempFile) discard() {
	if t.f == nil {
		return
	}
	t.f.Close()
	os.Remove(t.f.Name())
}

// open issues the GET and applies the header and signature checks. The
// returned reader yields the whole body, including the peeked prefix.
func (v *Verifier) open(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := v.Retry.Get(ctx, v.HTTP, url, v.UserAgent)
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if mt, _, _ := mime.ParseMediaType(contentType); mt == "text/html" {
		resp.Body.Close()
		v.Logger.Warn().Str("url", url).Msg("blocked, server returned an HTML page")
		return nil, ErrBlockedHTML
	}

	br := bufio.NewReaderSize(resp.Body, 4096)
	head, err := br.Peek(peekSize)
	if err != nil && !errors.Is(err, io.EOF) {
		resp.Body.Close()
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if !bytes.Contains(head, pdfMagic) {
		resp.Body.Close()
		lower := bytes.ToLower(head)
		notPDF := &NotPDFError{
			ContentType: contentType,
			Captcha:     bytes.Contains(lower, []byte("captcha")) || bytes.Contains(lower, []byte("robot")),
		}
		v.Logger.Warn().Str("url", url).Bool("captcha", notPDF.Captcha).Msg("content is not a PDF")
		return nil, notPDF
	}

	return struct {
		io.Reader
		io.Closer
	}{br, resp.Body}, nil
}
