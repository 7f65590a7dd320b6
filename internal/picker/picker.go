// Package picker ranks selector options against what the user has typed.
package picker

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Match is one option that survived filtering, best first.
type Match struct {
	Index int
	Score float64
}

// Rank orders options by how well they match query. Prefix and substring hits
// outrank pure edit-distance matches; an empty query keeps the original order.
// Options further than a relative edit distance of 0.6 are dropped.
func Rank(query string, options []string) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		out := make([]Match, len(options))
		for i := range options {
			out[i] = Match{Index: i, Score: 1}
		}
		return out
	}

	var out []Match
	for i, opt := range options {
		score := score(query, strings.ToLower(opt))
		if score <= 0 {
			continue
		}
		out = append(out, Match{Index: i, Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func score(query, option string) float64 {
	if option == query {
		return 1
	}
	if strings.HasPrefix(option, query) {
		return 0.9
	}
	if strings.Contains(option, query) {
		return 0.7
	}
	maxLen := len(option)
	if len(query) > maxLen {
		maxLen = len(query)
	}
	if maxLen == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(query, option)
	ratio := float64(dist) / float64(maxLen)
	if ratio > 0.6 {
		return 0
	}
	return 0.6 * (1 - ratio)
}
