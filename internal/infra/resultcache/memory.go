package resultcache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/adlens/internal/domain/analysis"
)

type cachedItem struct {
	payload   analysis.HistoryItem
	expiresAt time.Time
}

// MemoryCache is an in-memory result cache for tests/dev.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[uuid.UUID]cachedItem
	ttl   time.Duration
}

// NewMemoryCache constructs a cache backed by process memory.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{items: make(map[uuid.UUID]cachedItem), ttl: ttl}
}

func (c *MemoryCache) Get(_ context.Context, id uuid.UUID) (analysis.HistoryItem, bool, error) {
	c.mu.RLock()
	record, ok := c.items[id]
	c.mu.RUnlock()
	if !ok {
		return analysis.HistoryItem{}, false, nil
	}
	if hasExpired(record.expiresAt) {
		c.mu.Lock()
		delete(c.items, id)
		c.mu.Unlock()
		return analysis.HistoryItem{}, false, nil
	}
	return record.payload, true, nil
}

func (c *MemoryCache) Set(_ context.Context, item analysis.HistoryItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	exp := time.Time{}
	if c.ttl > 0 {
		exp = time.Now().Add(c.ttl)
	}
	c.items[item.ID] = cachedItem{payload: item, expiresAt: exp}
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	return nil
}

func hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(time.Now())
}

var _ analysis.ResultCache = (*MemoryCache)(nil)
