package analysis

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a feedback item.
type Category string

const (
	CategoryPositive    Category = "positive"
	CategoryImprovement Category = "improvement"
	CategorySuggestion  Category = "suggestion"
)

// Result is the structured form of one model completion. All three slices are
// always present, possibly empty, never nil.
type Result struct {
	Positives    []string `json:"positives"`
	Improvements []string `json:"improvements"`
	Suggestions  []string `json:"suggestions"`
}

// NewResult returns an empty result with all slices allocated.
func NewResult() Result {
	return Result{
		Positives:    []string{},
		Improvements: []string{},
		Suggestions:  []string{},
	}
}

// IsEmpty reports whether no category holds any feedback.
func (r Result) IsEmpty() bool {
	return len(r.Positives) == 0 && len(r.Improvements) == 0 && len(r.Suggestions) == 0
}

// TextSpan is a run of description text, optionally emphasized.
type TextSpan struct {
	Text string `json:"text"`
	Bold bool   `json:"bold,omitempty"`
}

// Recommendation is one displayable feedback card.
type Recommendation struct {
	ID          string     `json:"id"`
	Category    Category   `json:"category"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Spans       []TextSpan `json:"spans"`
}

// HistoryItem is a persisted analysis owned by a user.
type HistoryItem struct {
	ID        uuid.UUID `json:"id"`
	UserID    int64     `json:"userId"`
	ImageURL  string    `json:"imageUrl"`
	Prompt    string    `json:"prompt,omitempty"`
	Result    Result    `json:"result"`
	CreatedAt time.Time `json:"createdAt"`
}

// QuotaState reports daily usage against the per-user limit.
type QuotaState struct {
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
	Limit     int `json:"limit"`
}
