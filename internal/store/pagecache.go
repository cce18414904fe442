package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nepalihub/portal/internal/domain"
)

var _ domain.PageCache = (*Store)(nil)

// cachedPage wraps a catalog page with its expiry
type cachedPage struct {
	ExpiresAt time.Time       `json:"expires_at"` // zero means no expiry
	Data      json.RawMessage `json:"data"`
}

// GetPage loads a cached catalog page into dest. Expired entries are
// deleted and reported as misses.
func (s *Store) GetPage(_ context.Context, key string, dest any) bool {
	var entry cachedPage
	if !s.get(bucketCatalog, key, &entry) {
		return false
	}
	if !entry.ExpiresAt.IsZero() && s.now().After(entry.ExpiresAt) {
		_ = s.delete(bucketCatalog, key)
		return false
	}
	return json.Unmarshal(entry.Data, dest) == nil
}

// PutPage stores a catalog page for ttl (0 keeps it until invalidated)
func (s *Store) PutPage(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	entry := cachedPage{Data: data}
	if ttl > 0 {
		entry.ExpiresAt = s.now().Add(ttl)
	}
	return s.set(bucketCatalog, key, entry)
}

// InvalidatePages deletes every cached page whose key starts with prefix
func (s *Store) InvalidatePages(_ context.Context, prefix string) error {
	return s.deletePrefix(bucketCatalog, prefix)
}
