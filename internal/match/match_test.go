// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/confharvest/internal/search"
	"github.com/pdiddy/confharvest/pkg/types"
)

func defaultSelector() Selector {
	return NewSelector(types.DefaultConfig().Match)
}

var paper = types.Paper{
	ID:      "p1",
	Title:   "Attention Is All You Need",
	Authors: "Ashish Vaswani; Noam Shazeer; Niki Parmar",
}

func TestBest_PicksExactMatch(t *testing.T) {
	entries := []search.Entry{
		{Title: "Something Else Entirely", Authors: []string{"Jane Roe"}, PDFLink: "http://x/1"},
		{Title: "Attention Is All You Need", Authors: []string{"Ashish Vaswani", "Noam Shazeer", "Niki Parmar"}, PDFLink: "http://x/2"},
	}
	best, highest := defaultSelector().Best(paper, entries)
	require.NotNil(t, best)
	assert.Equal(t, "http://x/2", best.SourceURL)
	assert.InDelta(t, 1.0, best.Combined, 1e-9)
	assert.InDelta(t, 1.0, highest, 1e-9)
}

func TestBest_SkipsEntriesWithoutPDF(t *testing.T) {
	entries := []search.Entry{
		{Title: "Attention Is All You Need", Authors: []string{"Ashish Vaswani"}},
	}
	best, highest := defaultSelector().Best(paper, entries)
	assert.Nil(t, best)
	assert.Zero(t, highest)
}

func TestBest_BelowThreshold(t *testing.T) {
	entries := []search.Entry{
		{Title: "Recurrent Networks Are Enough", Authors: []string{"Jane Roe"}, PDFLink: "http://x/1"},
	}
	best, _ := defaultSelector().Best(paper, entries)
	assert.Nil(t, best)
}

func TestBest_ThresholdIsStrict(t *testing.T) {
	s := Selector{TitleWeight: 1, AuthorWeight: 0, Threshold: 1, Title: defaultSelector().Title}
	entries := []search.Entry{{Title: paper.Title, PDFLink: "http://x/1"}}
	best, highest := s.Best(paper, entries)
	assert.Nil(t, best)
	assert.InDelta(t, 1.0, highest, 1e-9)
}

func TestBest_TiesKeepFirst(t *testing.T) {
	entries := []search.Entry{
		{Title: paper.Title, Authors: []string{"Ashish Vaswani"}, PDFLink: "http://x/first"},
		{Title: paper.Title, Authors: []string{"Ashish Vaswani"}, PDFLink: "http://x/second"},
	}
	best, _ := defaultSelector().Best(paper, entries)
	require.NotNil(t, best)
	assert.Equal(t, "http://x/first", best.SourceURL)
}

func TestBest_NeverAcceptsAtOrBelowThreshold(t *testing.T) {
	s := defaultSelector()
	titles := []string{
		"Attention", "All You Need", "Attention Is", "Need You All Is Attention",
		"Transformers", "Is Attention All We Need", "Graph Attention Networks",
	}
	authors := [][]string{nil, {"Noam Shazeer"}, {"Jane Roe", "Ashish Vaswani"}}
	var entries []search.Entry
	for i, title := range titles {
		for j, a := range authors {
			entries = append(entries, search.Entry{Title: title, Authors: a, PDFLink: fmt.Sprintf("http://x/%d/%d", i, j)})
		}
	}
	for n := 1; n <= len(entries); n++ {
		best, _ := s.Best(paper, entries[:n])
		if best != nil {
			assert.Greater(t, best.Combined, s.Threshold)
		}
	}
}

func TestScore_Components(t *testing.T) {
	c := defaultSelector().Score("alpha beta gamma", "Alice Smith", search.Entry{
		Title:   "alpha beta delta",
		Authors: []string{"Alice Brown"},
		PDFLink: "http://x/1",
	})
	wantTitle := 0.6*0.5 + 0.4*(2.0/3.0)
	assert.InDelta(t, wantTitle, c.TitleScore, 1e-9)
	assert.InDelta(t, 1.0/3.0, c.AuthorScore, 1e-9)
	assert.InDelta(t, 0.7*wantTitle+0.3/3.0, c.Combined, 1e-9)
}
