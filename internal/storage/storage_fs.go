package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FSStorage keeps each site at <Root>/<siteID>/index.html.
type FSStorage struct {
	Root string
}

func NewFSStorage(root string) *FSStorage {
	return &FSStorage{Root: root}
}

func (s *FSStorage) path(siteID string) string {
	return filepath.Join(s.Root, siteID, DocumentName)
}

func (s *FSStorage) Load(ctx context.Context, siteID string) ([]byte, error) {
	if err := ValidateID(siteID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(siteID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, siteID)
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

func (s *FSStorage) Save(ctx context.Context, siteID string, content []byte) error {
	if err := ValidateID(siteID); err != nil {
		return err
	}
	return s.writeFileAbsolute(s.path(siteID), content)
}

// writeFileAbsolute replaces fullPath through a temporary file in the same
// directory, so readers see either the old or the new document. The rename
// replaces a symlink at fullPath instead of following it.
func (s *FSStorage) writeFileAbsolute(fullPath string, content []byte) error {
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(fullPath)+"-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
