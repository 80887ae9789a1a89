// Package search ranks public roadmap titles against an explore query.
//
// Titles and queries are case-folded (Unicode-aware, via x/text) and split
// into word tokens; stop words are dropped. A title scores the Jaccard
// similarity of its token set with the query's, |Q ∩ T| / |Q ∪ T|, and titles
// sharing no token are not returned. An index is immutable once built and
// safe for concurrent use.
package search

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Doc is one searchable title.
type Doc struct {
	ID   string
	Text string
}

// Result is a ranked title with its similarity score.
type Result struct {
	ID    string
	Text  string
	Score float64
}

// DefaultStopwords carry no topic signal in roadmap titles.
var DefaultStopwords = []string{"a", "an", "and", "the", "of", "for", "to", "in", "on", "with", "learn", "learning", "roadmap"}

// Option configures NewTitleIndex.
type Option func(*TitleIndex)

// WithStopwords removes words from both titles and queries.
func WithStopwords(words []string) Option {
	return func(ix *TitleIndex) {
		for _, w := range words {
			for _, tok := range ix.tokens(w) {
				ix.stop[tok] = struct{}{}
			}
		}
	}
}

type entry struct {
	Doc
	set map[string]struct{}
}

// TitleIndex is an in-memory index over titles.
type TitleIndex struct {
	stop    map[string]struct{}
	entries []entry
}

// NewTitleIndex indexes docs. Titles that are blank or consist only of stop
// words are skipped.
func NewTitleIndex(docs []Doc, opts ...Option) *TitleIndex {
	ix := &TitleIndex{stop: map[string]struct{}{}}
	for _, o := range opts {
		o(ix)
	}
	ix.entries = make([]entry, 0, len(docs))
	for _, d := range docs {
		text := strings.Join(strings.Fields(d.Text), " ")
		set := ix.tokenSet(text)
		if len(set) == 0 {
			continue
		}
		ix.entries = append(ix.entries, entry{
			Doc: Doc{ID: d.ID, Text: text},
			set: set,
		})
	}
	return ix
}

// Len returns the number of indexed titles.
func (ix *TitleIndex) Len() int { return len(ix.entries) }

// Search returns up to limit matches, best first; limit <= 0 means all.
// Ties go to the shorter title, then by text, then by ID.
func (ix *TitleIndex) Search(query string, limit int) []Result {
	q := ix.tokenSet(query)
	if len(q) == 0 {
		return nil
	}

	var out []Result
	for _, e := range ix.entries {
		shared := 0
		for tok := range q {
			if _, ok := e.set[tok]; ok {
				shared++
			}
		}
		if shared == 0 {
			continue
		}
		union := len(q) + len(e.set) - shared
		out = append(out, Result{ID: e.ID, Text: e.Text, Score: float64(shared) / float64(union)})
	}

	runes := func(r Result) int { return utf8.RuneCountInString(r.Text) }
	slices.SortStableFunc(out, func(a, b Result) int {
		return cmp.Or(
			cmp.Compare(b.Score, a.Score),
			cmp.Compare(runes(a), runes(b)),
			strings.Compare(a.Text, b.Text),
			strings.Compare(a.ID, b.ID),
		)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// tokens case-folds s and splits it on anything that is not a letter or digit.
// A Caser is stateful, so each call gets its own.
func (ix *TitleIndex) tokens(s string) []string {
	return strings.FieldsFunc(cases.Fold().String(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func (ix *TitleIndex) tokenSet(s string) map[string]struct{} {
	toks := ix.tokens(s)
	set := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		if _, skip := ix.stop[t]; !skip {
			set[t] = struct{}{}
		}
	}
	return set
}
