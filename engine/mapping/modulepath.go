package mapping

import (
	"regexp"
	"sort"
	"strings"

	"github.com/repropipe/fabric/engine/domain"
)

var tokenRE = regexp.MustCompile(`[a-zA-Z0-9]+`)

// tokenize lowercases and splits query into word tokens.
func tokenize(query string) []string {
	matches := tokenRE.FindAllString(strings.ToLower(query), -1)
	return matches
}

// GuessModulePaths scores every tracked file against the query's tokens and
// returns the top 10 by score descending, ties broken by path lexical order
// (spec.md §4.4).
func GuessModulePaths(query string, files []TrackedFile) []domain.ModuleSuggestion {
	tokens := tokenize(query)
	suggestions := make([]domain.ModuleSuggestion, 0, len(files))
	for _, f := range files {
		lowerPath := strings.ToLower(f.Path)
		var score float64
		for _, tok := range tokens {
			if strings.Contains(lowerPath, tok) {
				score++
			}
		}
		if strings.Contains(lowerPath, "test") || strings.Contains(lowerPath, "spec") {
			score += 0.5
		}
		if strings.Contains(lowerPath, "config") || strings.Contains(lowerPath, "setup") {
			score += 0.3
		}
		suggestions = append(suggestions, domain.ModuleSuggestion{Path: f.Path, Score: score})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Path < suggestions[j].Path
	})

	if len(suggestions) > 10 {
		suggestions = suggestions[:10]
	}
	return suggestions
}
