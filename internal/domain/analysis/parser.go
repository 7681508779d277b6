package analysis

import (
	"regexp"
	"sort"
	"strings"
)

// Section headers the model is instructed to emit, with the alternate phrasing
// seen in practice. Matching is case-insensitive and not line-anchored, so a
// header word inside a sentence can still be picked up as a section start.
// Known limitation, kept intentionally cheap; the parser sits behind a narrow
// interface so a structured-output contract can replace it later.
var sectionHeaders = [...]*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:positives|what works well)[:\s]*`),
	regexp.MustCompile(`(?i)(?:improvements|areas to improve)[:\s]*`),
	regexp.MustCompile(`(?i)suggestions[:\s]*`),
}

var bulletMarker = regexp.MustCompile(`^[•\-*]\s*`)

// ParseCompletion converts one free-text completion into the three-category
// result. It never fails: when no section header matches, the completion is
// split into three near-equal groups of lines; when the text is entirely
// blank, all three categories come back empty.
func ParseCompletion(content string) Result {
	result := NewResult()

	type match struct {
		section    int
		start, end int
	}
	var matches []match
	for i, header := range sectionHeaders {
		if loc := header.FindStringIndex(content); loc != nil {
			matches = append(matches, match{section: i, start: loc[0], end: loc[1]})
		}
	}
	sort.Slice(matches, func(a, b int) bool { return matches[a].start < matches[b].start })

	// Each section's span runs from the end of its own header to the start of
	// the next recognized header, regardless of the order they appear in.
	for j, m := range matches {
		end := len(content)
		if j+1 < len(matches) {
			end = matches[j+1].start
		}
		points := extractBulletPoints(content[m.end:end])
		switch m.section {
		case 0:
			result.Positives = points
		case 1:
			result.Improvements = points
		case 2:
			result.Suggestions = points
		}
	}

	if result.IsEmpty() {
		return thirdsFallback(content)
	}
	return result
}

// extractBulletPoints splits a section body into feedback lines, stripping a
// leading bullet marker from each and preserving order.
func extractBulletPoints(text string) []string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	points := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(bulletMarker.ReplaceAllString(strings.TrimSpace(line), ""))
		if line != "" {
			points = append(points, line)
		}
	}
	return points
}

// thirdsFallback assigns the completion's non-empty lines positionally:
// ceil(n/3) to positives, the next ceil(n/3) to improvements, the remainder
// to suggestions.
func thirdsFallback(content string) Result {
	result := NewResult()
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return result
	}
	third := (len(lines) + 2) / 3
	result.Positives = append(result.Positives, lines[:min(third, len(lines))]...)
	result.Improvements = append(result.Improvements, lines[min(third, len(lines)):min(2*third, len(lines))]...)
	result.Suggestions = append(result.Suggestions, lines[min(2*third, len(lines)):]...)
	return result
}
