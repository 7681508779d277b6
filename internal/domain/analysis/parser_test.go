package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCompletionSections(t *testing.T) {
	tests := []struct {
		name             string
		content          string
		wantPositives    []string
		wantImprovements []string
		wantSuggestions  []string
	}{
		{
			name:             "inline headers",
			content:          "Positives: Good colors\nImprovements: Low contrast\nSuggestions: Add CTA button",
			wantPositives:    []string{"Good colors"},
			wantImprovements: []string{"Low contrast"},
			wantSuggestions:  []string{"Add CTA button"},
		},
		{
			name:             "alternate phrasing",
			content:          "What works well:\nStrong branding\nAreas to improve:\nBusy layout\nSuggestions:\nSimplify the header",
			wantPositives:    []string{"Strong branding"},
			wantImprovements: []string{"Busy layout"},
			wantSuggestions:  []string{"Simplify the header"},
		},
		{
			name:             "mixed bullet markers",
			content:          "Positives:\n- Clear logo\n* Good framing\n• Crisp photo\nImprovements:\n- None\nSuggestions:\n- Keep it",
			wantPositives:    []string{"Clear logo", "Good framing", "Crisp photo"},
			wantImprovements: []string{"None"},
			wantSuggestions:  []string{"Keep it"},
		},
		{
			name:             "headers out of order",
			content:          "Suggestions:\n- Try video\nPositives:\n- Bold palette\nImprovements:\n- Small font",
			wantPositives:    []string{"Bold palette"},
			wantImprovements: []string{"Small font"},
			wantSuggestions:  []string{"Try video"},
		},
		{
			name:             "case insensitive headers",
			content:          "POSITIVES:\ngood\nIMPROVEMENTS:\nbad\nSUGGESTIONS:\nfix",
			wantPositives:    []string{"good"},
			wantImprovements: []string{"bad"},
			wantSuggestions:  []string{"fix"},
		},
		{
			name:             "no bullets at all",
			content:          "Positives:\nfirst point\nsecond point\nImprovements:\nsomething\nSuggestions:\nanother",
			wantPositives:    []string{"first point", "second point"},
			wantImprovements: []string{"something"},
			wantSuggestions:  []string{"another"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := ParseCompletion(tt.content)
			require.Equal(t, tt.wantPositives, result.Positives)
			require.Equal(t, tt.wantImprovements, result.Improvements)
			require.Equal(t, tt.wantSuggestions, result.Suggestions)
		})
	}
}

func TestParseCompletionThirdsFallback(t *testing.T) {
	result := ParseCompletion("Nice photo\nToo much text\nTry a bold headline")
	require.Equal(t, []string{"Nice photo"}, result.Positives)
	require.Equal(t, []string{"Too much text"}, result.Improvements)
	require.Equal(t, []string{"Try a bold headline"}, result.Suggestions)
}

func TestParseCompletionFallbackSplitSizes(t *testing.T) {
	tests := []struct {
		lines      int
		wantSplits [3]int
	}{
		{lines: 0, wantSplits: [3]int{0, 0, 0}},
		{lines: 1, wantSplits: [3]int{1, 0, 0}},
		{lines: 2, wantSplits: [3]int{1, 1, 0}},
		{lines: 4, wantSplits: [3]int{2, 2, 0}},
		{lines: 7, wantSplits: [3]int{3, 3, 1}},
		{lines: 9, wantSplits: [3]int{3, 3, 3}},
	}
	for _, tt := range tests {
		var parts []string
		for i := 0; i < tt.lines; i++ {
			parts = append(parts, "line")
		}
		result := ParseCompletion(strings.Join(parts, "\n"))
		require.Len(t, result.Positives, tt.wantSplits[0], "n=%d", tt.lines)
		require.Len(t, result.Improvements, tt.wantSplits[1], "n=%d", tt.lines)
		require.Len(t, result.Suggestions, tt.wantSplits[2], "n=%d", tt.lines)
	}
}

func TestParseCompletionFallbackPreservesOrder(t *testing.T) {
	result := ParseCompletion("a\n\nb\n  c  \nd\ne")
	require.Equal(t, []string{"a", "b"}, result.Positives)
	require.Equal(t, []string{"c", "d"}, result.Improvements)
	require.Equal(t, []string{"e"}, result.Suggestions)
}

func TestParseCompletionEmptyInput(t *testing.T) {
	result := ParseCompletion("   \n  \n")
	require.True(t, result.IsEmpty())
	require.NotNil(t, result.Positives)
	require.NotNil(t, result.Improvements)
	require.NotNil(t, result.Suggestions)
}

func TestParseCompletionHeaderInsideSentence(t *testing.T) {
	// A section word used mid-sentence is still treated as a header. Accepted
	// parsing limitation; this pins the behavior down rather than blessing it.
	result := ParseCompletion("Positives:\n- We have suggestions: none today\nImprovements:\n- x")
	require.NotEmpty(t, result.Suggestions)
}

func TestExtractBulletPoints(t *testing.T) {
	points := extractBulletPoints("\n- Clear logo\n* Good framing\n\n• Sharp\nplain line\n")
	require.Equal(t, []string{"Clear logo", "Good framing", "Sharp", "plain line"}, points)
}
