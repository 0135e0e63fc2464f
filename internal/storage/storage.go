// Package storage persists site documents, one HTML file per site.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aisites/siteeditor/internal/config"
)

var (
	// ErrNotFound is returned when a site has no stored document.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidID is returned for site ids that cannot name a document.
	ErrInvalidID = errors.New("invalid site id")
)

// DocumentName is the file every site document is stored under.
const DocumentName = "index.html"

// DocumentStore loads and saves the full HTML of a site.
type DocumentStore interface {
	Load(ctx context.Context, siteID string) ([]byte, error)
	Save(ctx context.Context, siteID string, content []byte) error
}

// ValidateID accepts ids made of ASCII letters, digits, '-' and '_'. Any
// other character could escape the storage root.
func ValidateID(siteID string) error {
	if siteID == "" || len(siteID) > 128 {
		return fmt.Errorf("%w: %q", ErrInvalidID, siteID)
	}
	for _, r := range siteID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidID, siteID)
		}
	}
	return nil
}

// New builds the configured backend, wrapped in an LRU cache when
// cfg.CacheEntries is positive.
func New(cfg config.StorageConfig, logger *slog.Logger) (DocumentStore, error) {
	var store DocumentStore
	switch cfg.Backend {
	case "", "fs":
		store = NewFSStorage(cfg.Root)
	case "s3":
		s3, err := NewS3Storage(cfg.S3)
		if err != nil {
			return nil, err
		}
		store = s3
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
	if logger != nil {
		logger.Info("document store ready", "backend", cfg.Backend, "cache_entries", cfg.CacheEntries)
	}
	if cfg.CacheEntries > 0 {
		return NewCachedStore(store, cfg.CacheEntries)
	}
	return store, nil
}
