package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sync"

	"github.com/yanqian/adlens/internal/domain/analysis"
)

// MemoryStorage keeps blobs in memory. Useful for tests and local dev.
type MemoryStorage struct {
	mu    sync.RWMutex
	blobs map[string]storedBlob
}

type storedBlob struct {
	data     []byte
	mimeType string
	etag     string
}

// NewMemoryStorage constructs storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: make(map[string]storedBlob)}
}

// Put stores the blob and returns metadata.
func (s *MemoryStorage) Put(_ context.Context, key string, data []byte, mimeType string) (analysis.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash := md5.Sum(data)
	etag := hex.EncodeToString(hash[:])
	s.blobs[key] = storedBlob{data: data, mimeType: mimeType, etag: etag}
	return analysis.StoredObject{
		Key:      key,
		Size:     int64(len(data)),
		MimeType: mimeType,
		ETag:     etag,
	}, nil
}

// PublicURL returns a stable pseudo-URL for stored blobs.
func (s *MemoryStorage) PublicURL(key string) string {
	return "memory://" + key
}

// Delete removes the blob.
func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// Len reports how many blobs are stored.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

var _ analysis.ObjectStorage = (*MemoryStorage)(nil)
