package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/adlens/internal/infra/llm/chatgpt"
)

// HistoryRepository persists analysis history rows.
type HistoryRepository interface {
	Insert(ctx context.Context, item HistoryItem) error
	ListByUser(ctx context.Context, userID int64) ([]HistoryItem, error)
	Get(ctx context.Context, id uuid.UUID, userID int64) (HistoryItem, bool, error)
	Delete(ctx context.Context, id uuid.UUID, userID int64) error
	CountSince(ctx context.Context, userID int64, since time.Time) (int, error)
}

// ObjectStorage abstracts blob storage for uploaded images.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) (StoredObject, error)
	PublicURL(key string) string
	Delete(ctx context.Context, key string) error
}

// StoredObject captures persisted blob metadata.
type StoredObject struct {
	Key      string
	Size     int64
	MimeType string
	ETag     string
}

// ChatClient is the slice of the LLM client the orchestrator needs.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// ResultCache caches history items to spare the database on detail reads.
type ResultCache interface {
	Get(ctx context.Context, id uuid.UUID) (HistoryItem, bool, error)
	Set(ctx context.Context, item HistoryItem) error
	Invalidate(ctx context.Context, id uuid.UUID) error
}
