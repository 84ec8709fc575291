// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity scores how alike two paper titles or two author
// strings are. Scores lie in [0,1]; empty input scores 0.
package similarity

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Weights blends the set-overlap and order-sensitive title measures.
type Weights struct {
	Jaccard  float64
	Sequence float64
}

// DefaultWeights are the hand-tuned title weights.
var DefaultWeights = Weights{Jaccard: 0.6, Sequence: 0.4}

var surnamePattern = regexp.MustCompile(`\b[A-Z][a-z]+\b`)

// Title returns the title similarity of a and b using DefaultWeights.
func Title(a, b string) float64 {
	return DefaultWeights.Title(a, b)
}

// Title returns w.Jaccard*jaccard + w.Sequence*lcsRatio over the
// normalized token sequences of a and b.
func (w Weights) Title(a, b string) float64 {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	return w.Jaccard*jaccard(toSet(ta), toSet(tb)) + w.Sequence*lcsRatio(ta, tb)
}

// Authors returns the Jaccard similarity of the capitalized-word tokens
// (treated as surnames) found in a and b.
func Authors(a, b string) float64 {
	sa, sb := surnames(a), surnames(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	return jaccard(sa, sb)
}

// Tokens lowercases s, replaces every rune that is not a letter, digit,
// underscore or space with a space, and splits on whitespace.
func Tokens(s string) []string {
	s = norm.NFC.String(s)
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Fields(mapped)
}

func surnames(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, m := range surnamePattern.FindAllString(s, -1) {
		set[strings.ToLower(m)] = struct{}{}
	}
	return set
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// lcsRatio is LCS(a,b) / max(len(a), len(b)) over token sequences.
func lcsRatio(a, b []string) float64 {
	longest := max(len(a), len(b))
	if longest == 0 {
		return 0
	}
	return float64(lcs(a, b)) / float64(longest)
}

// lcs computes the longest common subsequence length with a rolling
// two-row table.
func lcs(a, b []string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else {
				cur[j] = max(prev[j], cur[j-1])
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
