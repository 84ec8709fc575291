// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match picks the search entry most likely to be a given paper.
package match

import (
	"strings"

	"github.com/pdiddy/confharvest/internal/search"
	"github.com/pdiddy/confharvest/internal/similarity"
	"github.com/pdiddy/confharvest/pkg/types"
)

// Candidate is a scored search entry.
type Candidate struct {
	SourceURL   string
	Entry       search.Entry
	TitleScore  float64
	AuthorScore float64
	Combined    float64
}

// Selector scores entries against a paper and accepts the best one only
// if its combined score is strictly above Threshold.
type Selector struct {
	TitleWeight  float64
	AuthorWeight float64
	Threshold    float64
	Title        similarity.Weights
}

// NewSelector builds a Selector from configuration.
func NewSelector(cfg types.MatchConfig) Selector {
	return Selector{
		TitleWeight:  cfg.TitleWeight,
		AuthorWeight: cfg.AuthorWeight,
		Threshold:    cfg.Threshold,
		Title:        similarity.Weights{Jaccard: cfg.JaccardWeight, Sequence: cfg.SequenceWeight},
	}
}

// Score computes the title, author and combined scores of e against the
// paper's title and author string.
func (s Selector) Score(title, authors string, e search.Entry) Candidate {
	ts := s.Title.Title(title, e.Title)
	as := similarity.Authors(authors, strings.Join(e.Authors, " "))
	return Candidate{
		SourceURL:   e.PDFLink,
		Entry:       e,
		TitleScore:  ts,
		AuthorScore: as,
		Combined:    s.TitleWeight*ts + s.AuthorWeight*as,
	}
}

// Best returns the highest-scoring entry that has a PDF link and clears
// the threshold. Ties keep the earlier entry. The second return value is
// the highest combined score seen among usable entries, accepted or not.
func (s Selector) Best(p types.Paper, entries []search.Entry) (*Candidate, float64) {
	var (
		best    *Candidate
		highest float64
	)
	for _, e := range entries {
		if e.PDFLink == "" {
			continue
		}
		c := s.Score(p.Title, p.Authors, e)
		if c.Combined > highest {
			highest = c.Combined
		}
		if c.Combined <= s.Threshold {
			continue
		}
		if best == nil || c.Combined > best.Combined {
			best = &c
		}
	}
	return best, highest
}
