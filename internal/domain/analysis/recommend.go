package analysis

import (
	"fmt"
	"strings"
)

var categoryTitles = map[Category]string{
	CategoryPositive:    "Effective Element",
	CategoryImprovement: "Area to Improve",
	CategorySuggestion:  "Recommendation",
}

// MapRecommendations flattens a result into display cards, grouped by category
// in fixed order with 0-based per-category identifiers.
func MapRecommendations(result Result) []Recommendation {
	out := make([]Recommendation, 0, len(result.Positives)+len(result.Improvements)+len(result.Suggestions))
	appendCategory := func(category Category, points []string) {
		for i, text := range points {
			out = append(out, Recommendation{
				ID:          fmt.Sprintf("%s-%d", category, i),
				Category:    category,
				Title:       categoryTitles[category],
				Description: text,
				Spans:       ParseSpans(text),
			})
		}
	}
	appendCategory(CategoryPositive, result.Positives)
	appendCategory(CategoryImprovement, result.Improvements)
	appendCategory(CategorySuggestion, result.Suggestions)
	return out
}

// ParseSpans splits description text on paired ** markers into plain and bold
// runs. Unmatched markers are left in the text verbatim.
func ParseSpans(text string) []TextSpan {
	var spans []TextSpan
	rest := text
	for {
		open := strings.Index(rest, "**")
		if open == -1 {
			break
		}
		closing := strings.Index(rest[open+2:], "**")
		if closing == -1 {
			break
		}
		if open > 0 {
			spans = append(spans, TextSpan{Text: rest[:open]})
		}
		spans = append(spans, TextSpan{Text: rest[open+2 : open+2+closing], Bold: true})
		rest = rest[open+2+closing+2:]
	}
	if rest != "" || len(spans) == 0 {
		spans = append(spans, TextSpan{Text: rest})
	}
	return spans
}
