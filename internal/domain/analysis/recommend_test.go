package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapRecommendationsOrderAndIdentifiers(t *testing.T) {
	result := Result{
		Positives:    []string{"a", "b"},
		Improvements: []string{"c"},
		Suggestions:  []string{},
	}

	recs := MapRecommendations(result)
	require.Len(t, recs, 3)
	require.Equal(t, "positive-0", recs[0].ID)
	require.Equal(t, "positive-1", recs[1].ID)
	require.Equal(t, "improvement-0", recs[2].ID)
	require.Equal(t, "Effective Element", recs[0].Title)
	require.Equal(t, "Area to Improve", recs[2].Title)
	require.Equal(t, "a", recs[0].Description)
	require.Equal(t, CategoryImprovement, recs[2].Category)
}

func TestMapRecommendationsEmptyResult(t *testing.T) {
	require.Empty(t, MapRecommendations(NewResult()))
}

func TestMapRecommendationsSuggestionTitle(t *testing.T) {
	recs := MapRecommendations(Result{Suggestions: []string{"try video"}})
	require.Len(t, recs, 1)
	require.Equal(t, "suggestion-0", recs[0].ID)
	require.Equal(t, "Recommendation", recs[0].Title)
}

func TestParseSpans(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []TextSpan
	}{
		{
			name: "plain text",
			text: "no emphasis here",
			want: []TextSpan{{Text: "no emphasis here"}},
		},
		{
			name: "single bold run",
			text: "use a **bolder** font",
			want: []TextSpan{{Text: "use a "}, {Text: "bolder", Bold: true}, {Text: " font"}},
		},
		{
			name: "leading bold",
			text: "**Contrast** is weak",
			want: []TextSpan{{Text: "Contrast", Bold: true}, {Text: " is weak"}},
		},
		{
			name: "unmatched marker stays literal",
			text: "broken **emphasis here",
			want: []TextSpan{{Text: "broken **emphasis here"}},
		},
		{
			name: "trailing unmatched after pair",
			text: "**ok** then **broken",
			want: []TextSpan{{Text: "ok", Bold: true}, {Text: " then **broken"}},
		},
		{
			name: "empty input",
			text: "",
			want: []TextSpan{{Text: ""}},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, ParseSpans(tt.text))
		})
	}
}
