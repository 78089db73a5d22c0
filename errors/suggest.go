package errors

import (
	"cmp"
	"slices"
	"strings"
)

// MaxSuggestions is the maximum number of suggestions to return.
const MaxSuggestions = 3

// Suggestion represents a suggested correction with its edit distance.
type Suggestion struct {
	Value    string
	Distance int
}

// suggestionThreshold scales the accepted edit distance with name length.
func suggestionThreshold(n int) int {
	switch {
	case n <= 3:
		return 1
	case n <= 5:
		return 2
	default:
		return 3
	}
}

// SuggestSimilar finds names among candidates that are close to target,
// closest first. Exact matches are skipped.
func SuggestSimilar(target string, candidates []string) []Suggestion {
	if target == "" || len(candidates) == 0 {
		return nil
	}
	target = strings.ToLower(target)
	limit := suggestionThreshold(len(target))
	var out []Suggestion
	seen := map[string]bool{}
	for _, candidate := range candidates {
		lower := strings.ToLower(candidate)
		if candidate == "" || lower == target || seen[candidate] {
			continue
		}
		seen[candidate] = true
		if d := levenshteinDistance(target, lower); d <= limit {
			out = append(out, Suggestion{Value: candidate, Distance: d})
		}
	}
	slices.SortFunc(out, func(a, b Suggestion) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return strings.Compare(a.Value, b.Value)
	})
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

// FormatSuggestions formats suggestions as a user-friendly string.
func FormatSuggestions(suggestions []Suggestion) string {
	switch len(suggestions) {
	case 0:
		return ""
	case 1:
		return "did you mean '" + suggestions[0].Value + "'?"
	}
	quoted := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		quoted = append(quoted, "'"+s.Value+"'")
	}
	return "did you mean one of: " + strings.Join(quoted, ", ") + "?"
}

// levenshteinDistance computes the edit distance between two strings using
// two rolling rows.
func levenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)
	for i := range prev {
		prev[i] = i
	}
	for j := 1; j <= len(rb); j++ {
		curr[0] = j
		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[i] = min(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(ra)]
}
