package storage

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore keeps recently used documents in memory in front of another
// store. Saves write through; a failed save evicts the entry.
type CachedStore struct {
	next  DocumentStore
	cache *lru.Cache[string, []byte]
}

func NewCachedStore(next DocumentStore, entries int) (*CachedStore, error) {
	cache, err := lru.New[string, []byte](entries)
	if err != nil {
		return nil, err
	}
	return &CachedStore{next: next, cache: cache}, nil
}

func (c *CachedStore) Load(ctx context.Context, siteID string) ([]byte, error) {
	if data, ok := c.cache.Get(siteID); ok {
		return clone(data), nil
	}
	data, err := c.next.Load(ctx, siteID)
	if err != nil {
		return nil, err
	}
	c.cache.Add(siteID, clone(data))
	return data, nil
}

func (c *CachedStore) Save(ctx context.Context, siteID string, content []byte) error {
	if err := c.next.Save(ctx, siteID, content); err != nil {
		c.cache.Remove(siteID)
		return err
	}
	c.cache.Add(siteID, clone(content))
	return nil
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
