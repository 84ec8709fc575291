// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire runs a harvest: it fetches a venue listing, resolves
// every paper on a bounded worker pool, and persists the per-paper
// outcomes, the run summary and the run history.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/confharvest/internal/store"
	"github.com/pdiddy/confharvest/pkg/types"
)

const (
	pdfDir      = "pdfs"
	metadataDir = "metadata"
	lockFile    = ".harvest.lock"
)

// ErrLocked means another run holds the output directory.
var ErrLocked = errors.New("output directory is locked by another run")

// Resolver resolves one paper. *resolve.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, p types.Paper) types.Outcome
}

// Lister fetches a venue listing. venue.Adapter implements it.
type Lister interface {
	Name() string
	FetchListing(ctx context.Context, year int, eventType string) ([]types.Paper, error)
}

// PDFDir returns the directory PDFs are stored in under dir.
func PDFDir(dir string) string { return filepath.Join(dir, pdfDir) }

// DefaultOutputDir is the directory a run writes to when none is set.
func DefaultOutputDir(venueName string, year int) string {
	return fmt.Sprintf("%s_%d_papers", strings.ToLower(venueName), year)
}

// Harvester wires a listing source and a resolver to an output directory.
type Harvester struct {
	Lister   Lister
	Resolver Resolver

	// Store records run history; nil disables it.
	Store *store.Store

	// Workers bounds concurrent resolutions.
	Workers int

	// Dir is the output directory.
	Dir string

	Logger zerolog.Logger

	// now is replaced in tests.
	now func() time.Time
}

// Report is the result of Run.
type Report struct {
	RunID   string
	Papers  []types.Paper
	Summary Summary
}

// Run harvests the listings of every event type for year. A listing that
// cannot be fetched contributes zero papers. Run fails only when the
// output directory cannot be locked or written.
func (h *Harvester) Run(ctx context.Context, year int, eventTypes []string) (Report, error) {
	if err := ensureDir(h.Dir); err != nil {
		return Report{}, err
	}
	lock := flock.New(filepath.Join(h.Dir, lockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return Report{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return Report{}, fmt.Errorf("%w: %s", ErrLocked, h.Dir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			h.Logger.Warn().Err(err).Msg("failed to release output lock")
		}
	}()

	runID := uuid.NewString()
	log := h.Logger.With().Str("run_id", runID).Str("venue", h.Lister.Name()).Int("year", year).Logger()
	started := h.clock()

	var papers []types.Paper
	for _, et := range eventTypes {
		listed, err := h.Lister.FetchListing(ctx, year, et)
		if err != nil {
			log.Error().Err(err).Str("event_type", et).Msg("failed to fetch listing")
		}
		if err := writeJSON(filepath.Join(h.Dir, metadataDir, et+"_papers.json"), nonNil(listed)); err != nil {
			return Report{}, err
		}
		log.Info().Str("event_type", et).Int("papers", len(listed)).Msg("found papers")
		papers = append(papers, listed...)
	}

	if h.Store != nil {
		run := store.Run{ID: runID, Venue: h.Lister.Name(), Year: year, EventType: strings.Join(eventTypes, ","), StartedAt: started}
		if err := h.Store.BeginRun(ctx, run); err != nil {
			log.Warn().Err(err).Msg("cannot record run history")
		}
	}

	log.Info().Int("papers", len(papers)).Int("workers", h.workers()).Msg("starting downloads")
	results, pending := h.Process(ctx, runID, papers)
	summary := Summarize(results)
	summary.Pending = pending
	if pending > 0 {
		log.Warn().Int("pending", pending).Msg("interrupted, papers left unprocessed")
	}

	finished := h.clock()
	if err := writeOutputs(h.Dir, results, summary); err != nil {
		return Report{}, err
	}
	manifest := Manifest{
		RunID:      runID,
		Venue:      h.Lister.Name(),
		Year:       year,
		EventTypes: eventTypes,
		StartedAt:  started,
		FinishedAt: finished,
		Workers:    h.workers(),
		Summary:    summary,
	}
	if err := writeManifest(filepath.Join(h.Dir, metadataDir, manifestFile), manifest); err != nil {
		return Report{}, err
	}

	if h.Store != nil {
		run := store.Run{
			ID: runID, FinishedAt: finished,
			Total: summary.Total, Success: summary.Success, Exists: summary.Exists,
			Failed: summary.Failed, SuccessRate: summary.SuccessRate,
		}
		// The run row may be missing if BeginRun failed; history is best effort.
		if err := h.Store.FinishRun(context.WithoutCancel(ctx), run); err != nil {
			log.Warn().Err(err).Msg("cannot record run summary")
		}
	}

	log.Info().
		Int("success", summary.Success).Int("exists", summary.Exists).Int("failed", summary.Failed).
		Float64("success_rate", summary.SuccessRate).Msg("download completed")
	return Report{RunID: runID, Papers: results, Summary: summary}, nil
}

// Process resolves papers on at most Workers goroutines and returns the
// annotated papers in listing order. Once ctx is done no further paper is
// started; the number left unstarted is returned as pending.
func (h *Harvester) Process(ctx context.Context, runID string, papers []types.Paper) ([]types.Paper, int) {
	results := make([]types.Paper, len(papers))
	done := make([]bool, len(papers))

	var g errgroup.Group
	g.SetLimit(h.workers())

	for i, p := range papers {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// A slot may free up only after an interrupt.
			if ctx.Err() != nil {
				return nil
			}
			out := h.Resolver.Resolve(ctx, p)
			annotated := p.Annotate(out)
			h.logOutcome(p, out)
			if h.Store != nil {
				if err := h.Store.RecordOutcome(context.WithoutCancel(ctx), runID, annotated); err != nil {
					h.Logger.Warn().Err(err).Str("paper_id", p.ID).Msg("cannot record outcome")
				}
			}
			results[i] = annotated
			done[i] = true
			return nil
		})
	}
	g.Wait()

	out := make([]types.Paper, 0, len(papers))
	for i := range papers {
		if done[i] {
			out = append(out, results[i])
		}
	}
	return out, len(papers) - len(out)
}

func (h *Harvester) logOutcome(p types.Paper, out types.Outcome) {
	ev := h.Logger.Info()
	if out.Status == types.StatusFailed {
		ev = h.Logger.Warn().Str("reason", string(out.Reason)).Str("detail", out.Detail)
	}
	ev.Str("paper_id", p.ID).Str("status", string(out.Status)).Str("method", string(out.Method)).
		Str("pdf_url", out.PDFURL).Msg(p.Title)
}

func (h *Harvester) workers() int {
	if h.Workers < 1 {
		return 1
	}
	return h.Workers
}

func (h *Harvester) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

func nonNil(papers []types.Paper) []types.Paper {
	if papers == nil {
		return []types.Paper{}
	}
	return papers
}
