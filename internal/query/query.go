// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query derives arXiv search-query variants from a paper title,
// most precise first.
package query

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Variant names, in the order Build emits them.
const (
	KindTitle    = "title"
	KindFullText = "fulltext"
	KindKeywords = "keywords"
)

// Variant is one phrasing of a search query.
type Variant struct {
	Kind  string
	Query string
}

const (
	keywordTitleMinTokens = 5
	maxKeywords           = 4
	minKeywordRunes       = 4
)

var venueWords = regexp.MustCompile(`(?i)\b(neurips|icml|iclr|cvpr|eccv|aaai|ijcai|acl|emnlp|naacl|conference|proceedings|workshop)\b`)

var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
}

// Clean replaces non-word characters with spaces, drops venue names and
// generic conference words, and collapses whitespace.
func Clean(title string) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, title)
	s = venueWords.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// Keywords returns up to four lowercase tokens of clean that are not
// stopwords and are longer than three characters, in title order.
func Keywords(clean string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(clean)) {
		if _, stop := stopwords[w]; stop {
			continue
		}
		if len([]rune(w)) < minKeywordRunes {
			continue
		}
		out = append(out, w)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

// Build returns the query variants for title. A title that cleans to
// nothing yields no variants, meaning search cannot resolve it.
func Build(title string) []Variant {
	clean := Clean(title)
	if clean == "" {
		return nil
	}
	variants := []Variant{
		{Kind: KindTitle, Query: fmt.Sprintf("ti:%q", clean)},
		{Kind: KindFullText, Query: fmt.Sprintf("all:%q", clean)},
	}
	if len(strings.Fields(clean)) > keywordTitleMinTokens {
		if kw := Keywords(clean); len(kw) > 0 {
			variants = append(variants, Variant{Kind: KindKeywords, Query: fmt.Sprintf("all:%q", strings.Join(kw, " "))})
		}
	}
	return variants
}
