// Package resolve maps a possibly misspelled project name onto the best
// matching entry of the merged inventory.
package resolve

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"

	"github.com/workon-sh/workon/internal/inventory"
)

// NoMatchError is returned when no project scores at or above the
// configured threshold.
type NoMatchError struct {
	Query     string
	BestScore int
	Threshold int
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no project matching %q (best score %d, threshold %d)", e.Query, e.BestScore, e.Threshold)
}

// Candidate is one scored project.
type Candidate struct {
	View  inventory.ProjectView
	Score int
}

// Resolution is the outcome of one query. It is built fresh per call and
// never cached: the inventories may change between invocations.
type Resolution struct {
	Query        string
	Best         inventory.ProjectView
	Score        int
	Alternatives []Candidate
	Exact        bool
}

type Resolver struct {
	threshold int
}

// New returns a resolver with the given minimum similarity score (1..100).
func New(threshold int) *Resolver {
	return &Resolver{threshold: threshold}
}

// Resolve scores query against every project name. An exact
// case-insensitive match short-circuits with score 100 and no alternatives;
// otherwise names are compared case- and punctuation-insensitively and ties
// are broken by synced-first, then shorter name, then lexicographic order,
// so identical inputs always produce identical results.
func (r *Resolver) Resolve(query string, views []inventory.ProjectView) (*Resolution, error) {
	for _, v := range views {
		if strings.EqualFold(query, v.Name) {
			return &Resolution{Query: query, Best: v, Score: 100, Exact: true}, nil
		}
	}

	normQuery := normalize(query)
	candidates := make([]Candidate, 0, len(views))
	for _, v := range views {
		candidates = append(candidates, Candidate{View: v, Score: score(normQuery, normalize(v.Name))})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.View.Synced() != b.View.Synced() {
			return a.View.Synced()
		}
		if len(a.View.Name) != len(b.View.Name) {
			return len(a.View.Name) < len(b.View.Name)
		}
		return a.View.Name < b.View.Name
	})

	if len(candidates) == 0 || candidates[0].Score < r.threshold {
		best := 0
		if len(candidates) > 0 {
			best = candidates[0].Score
		}
		return nil, &NoMatchError{Query: query, BestScore: best, Threshold: r.threshold}
	}

	return &Resolution{
		Query:        query,
		Best:         candidates[0].View,
		Score:        candidates[0].Score,
		Alternatives: candidates[1:],
	}, nil
}

// score rates how well the normalized query matches a normalized name, on a
// 0..100 scale. The whole-string Levenshtein similarity is combined with the
// best query-sized window of the name, so a short query still finds the
// project it abbreviates ("djago" → "django-rest").
func score(query, name string) int {
	best := levenshtein.Similarity(query, name, nil)

	q, n := []rune(query), []rune(name)
	if len(q) > 0 && len(q) < len(n) {
		for i := 0; i+len(q) <= len(n); i++ {
			window := levenshtein.Similarity(query, string(n[i:i+len(q)]), nil)
			if window > best {
				best = window
			}
		}
	}

	return int(math.Round(best * 100))
}

// normalize lowercases and drops everything that is not a letter or digit,
// so "django-rest" and "Django Rest" compare equal.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
