package historyrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/adlens/internal/domain/analysis"
)

// MemoryRepository keeps history rows in memory. Useful for tests and local dev.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]analysis.HistoryItem
}

// NewMemoryRepository constructs the repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[uuid.UUID]analysis.HistoryItem)}
}

func (r *MemoryRepository) Insert(_ context.Context, item analysis.HistoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

func (r *MemoryRepository) ListByUser(_ context.Context, userID int64) ([]analysis.HistoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var items []analysis.HistoryItem
	for _, item := range r.items {
		if item.UserID == userID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID, userID int64) (analysis.HistoryItem, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok || item.UserID != userID {
		return analysis.HistoryItem{}, false, nil
	}
	return item, true, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item, ok := r.items[id]; ok && item.UserID == userID {
		delete(r.items, id)
	}
	return nil
}

func (r *MemoryRepository) CountSince(_ context.Context, userID int64, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, item := range r.items {
		if item.UserID == userID && !item.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

var _ analysis.HistoryRepository = (*MemoryRepository)(nil)
