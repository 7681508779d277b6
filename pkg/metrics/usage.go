package metrics

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// TokenUsage captures LLM token counts used to satisfy a request.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens,omitempty"`
	TotalTokens      int `json:"totalTokens"`
}

// IsZero reports whether usage data is absent.
func (u TokenUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}

// EstimateTokens counts BPE tokens for text using the model's encoding, falling
// back to a rough 4-characters-per-token guess when the encoding is unknown.
func EstimateTokens(model, text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		if enc, err = tiktoken.GetEncoding("cl100k_base"); err != nil {
			return (len(text) + 3) / 4
		}
	}
	return len(enc.Encode(text, nil, nil))
}
