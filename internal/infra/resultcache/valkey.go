package resultcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/adlens/internal/domain/analysis"
)

// ValkeyCache caches analysis history items in a Valkey-compatible database.
type ValkeyCache struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyCache constructs a cache backed by Valkey.
func NewValkeyCache(client valkey.Client, prefix string, ttl time.Duration) *ValkeyCache {
	if prefix == "" {
		prefix = "analysis"
	}
	return &ValkeyCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *ValkeyCache) Get(ctx context.Context, id uuid.UUID) (analysis.HistoryItem, bool, error) {
	cmd := c.client.B().Get().Key(c.itemKey(id)).Build()
	payload, err := c.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return analysis.HistoryItem{}, false, nil
		}
		return analysis.HistoryItem{}, false, err
	}
	item := analysis.HistoryItem{Result: analysis.NewResult()}
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		return analysis.HistoryItem{}, false, err
	}
	return item, true, nil
}

func (c *ValkeyCache) Set(ctx context.Context, item analysis.HistoryItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}
	builder := c.client.B().Set().Key(c.itemKey(item.ID)).Value(string(payload))
	var cmd valkey.Completed
	if c.ttl > 0 {
		ttl := c.ttl
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

func (c *ValkeyCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return c.client.Do(ctx, c.client.B().Del().Key(c.itemKey(id)).Build()).Error()
}

func (c *ValkeyCache) itemKey(id uuid.UUID) string {
	return c.prefix + ":item:" + id.String()
}

var _ analysis.ResultCache = (*ValkeyCache)(nil)
