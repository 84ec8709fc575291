// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve turns one paper record into a stored PDF.
//
// Resolution tries the venue's direct reference link first. If that is
// missing or its PDF fails verification, it searches arXiv with
// successively looser query variants and downloads the first confident
// match. A PDF already on disk short-circuits everything.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/pdiddy/confharvest/internal/match"
	"github.com/pdiddy/confharvest/internal/query"
	"github.com/pdiddy/confharvest/internal/search"
	"github.com/pdiddy/confharvest/internal/verify"
	"github.com/pdiddy/confharvest/pkg/types"
)

// Referencer finds a paper's direct reference link. venue.Adapter
// implements it.
type Referencer interface {
	DirectReference(ctx context.Context, p types.Paper) (string, error)
}

// Searcher runs one search query. *search.Client implements it.
type Searcher interface {
	Search(ctx context.Context, q string) search.Result
}

// Downloader verifies a candidate URL and stores it at dest.
// *verify.Verifier implements it.
type Downloader interface {
	Download(ctx context.Context, url, dest string) (int64, error)
}

// Resolver holds the collaborators of the resolution state machine. It is
// safe for concurrent use when its collaborators are.
type Resolver struct {
	// Reference may be nil when the venue has no direct links.
	Reference Referencer

	// Search may be nil to disable the search fallback.
	Search Searcher

	Selector   match.Selector
	Downloader Downloader

	// PDFTemplate receives the reference id via %s.
	PDFTemplate string

	// Dir is where PDFs are stored.
	Dir string

	// ExistingMinSize is the size a file on disk must exceed to count as
	// already downloaded.
	ExistingMinSize int64

	Logger zerolog.Logger
}

// TargetPath is the deterministic location of p's PDF. Both the id and
// the title come from remote pages, so neither may contain a separator.
func (r *Resolver) TargetPath(p types.Paper) string {
	return filepath.Join(r.Dir, fmt.Sprintf("%s_%s.pdf", SafeFilename(p.ID), SafeFilename(p.Title)))
}

// Resolve runs the state machine for p and always returns an outcome.
func (r *Resolver) Resolve(ctx context.Context, p types.Paper) types.Outcome {
	log := r.Logger.With().Str("paper_id", p.ID).Logger()
	dest := r.TargetPath(p)

	if info, err := os.Stat(dest); err == nil && info.Size() > r.ExistingMinSize {
		log.Debug().Str("path", dest).Msg("PDF already exists")
		return types.AlreadyExists(dest)
	}

	out, directFailure := r.direct(ctx, log, p, dest)
	if out != nil {
		return r.withPages(log, *out)
	}
	if ctx.Err() != nil {
		return interrupted(ctx)
	}

	var variants []query.Variant
	if r.Search != nil {
		variants = query.Build(p.Title)
	}
	if len(variants) == 0 {
		if directFailure != nil {
			return *directFailure
		}
		return types.Failed(types.ReasonNoReferenceLink, "no direct reference and no search fallback")
	}

	out, highest := r.searchAttempts(ctx, log, p, dest, variants)
	if out != nil {
		return r.withPages(log, *out)
	}
	if ctx.Err() != nil {
		return interrupted(ctx)
	}
	return types.Failed(types.ReasonNoMatch, fmt.Sprintf("no candidate above threshold across %d queries (best score %.2f)", len(variants), highest))
}

// direct fetches the venue reference link and downloads its PDF. It returns a success
// outcome, or nil plus the failure to report if no other path remains.
func (r *Resolver) direct(ctx context.Context, log zerolog.Logger, p types.Paper, dest string) (*types.Outcome, *types.Outcome) {
	if r.Reference == nil {
		return nil, nil
	}
	ref, err := r.Reference.DirectReference(ctx, p)
	if err != nil {
		log.Info().Err(err).Msg("no direct reference link")
		return nil, nil
	}

	pdfURL, err := ReferenceToPDF(ref, r.PDFTemplate)
	if err != nil {
		log.Warn().Err(err).Str("reference", ref).Msg("cannot derive PDF URL from reference")
		f := types.Failed(types.ReasonNoReferenceLink, err.Error())
		return nil, &f
	}

	log.Info().Str("url", pdfURL).Msg("trying direct reference")
	if _, err := r.Downloader.Download(ctx, pdfURL, dest); err != nil {
		log.Warn().Err(err).Str("url", pdfURL).Msg("direct reference download failed")
		f := downloadFailure(err)
		f.PDFURL = pdfURL
		return nil, &f
	}
	out := types.Success(pdfURL, types.MethodDirectReference, dest)
	return &out, nil
}

// searchAttempts walks the query variants. It returns the terminal
// outcome once a candidate has been selected, or nil when every variant
// came up empty, along with the best score seen.
func (r *Resolver) searchAttempts(ctx context.Context, log zerolog.Logger, p types.Paper, dest string, variants []query.Variant) (*types.Outcome, float64) {
	var highest float64
	for i, v := range variants {
		if ctx.Err() != nil {
			return nil, highest
		}
		vlog := log.With().Str("query", v.Query).Str("variant", v.Kind).Logger()

		res := r.Search.Search(ctx, v.Query)
		switch res.Kind {
		case search.KindBlocked:
			vlog.Warn().Msg("search blocked, trying next variant")
			continue
		case search.KindEmpty:
			vlog.Debug().Msg("search returned no entries")
			continue
		case search.KindTransient:
			vlog.Warn().Err(res.Err).Msg("search failed, trying next variant")
			continue
		}

		best, h := r.Selector.Best(p, res.Entries)
		highest = max(highest, h)
		if best == nil {
			vlog.Debug().Int("entries", len(res.Entries)).Float64("best_score", h).Msg("no candidate above threshold")
			continue
		}

		vlog.Info().Str("url", best.SourceURL).Float64("score", best.Combined).Int("attempt", i+1).Msg("search match")
		if _, err := r.Downloader.Download(ctx, best.SourceURL, dest); err != nil {
			vlog.Warn().Err(err).Str("url", best.SourceURL).Msg("search match download failed")
			f := downloadFailure(err)
			f.PDFURL = best.SourceURL
			return &f, highest
		}
		out := types.Success(best.SourceURL, types.MethodSearchMatch, dest)
		return &out, highest
	}
	return nil, highest
}

// withPages records the page count of a stored PDF. An unreadable PDF
// does not fail the outcome.
func (r *Resolver) withPages(log zerolog.Logger, out types.Outcome) types.Outcome {
	if out.Status != types.StatusSuccess {
		return out
	}
	pages, err := verify.PageCount(out.LocalPath)
	if err != nil {
		log.Debug().Err(err).Msg("cannot count PDF pages")
		return out
	}
	out.Pages = pages
	return out
}

func downloadFailure(err error) types.Outcome {
	if verify.Rejected(err) {
		return types.Failed(types.ReasonVerifyFailed, err.Error())
	}
	return types.Failed(types.ReasonDownloadError, err.Error())
}

func interrupted(ctx context.Context) types.Outcome {
	err := ctx.Err()
	if errors.Is(err, context.Canceled) {
		return types.Failed(types.ReasonDownloadError, "interrupted")
	}
	return types.Failed(types.ReasonDownloadError, err.Error())
}
