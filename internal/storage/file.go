package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/photoseal/internal/filex"
)

// FileAssetStore writes authenticated images into a local directory.
type FileAssetStore struct {
	dir string
}

func NewFileAssetStore(dir string) (*FileAssetStore, error) {
	if _, err := filex.EnsureDir(dir); err != nil {
		return nil, err
	}
	return &FileAssetStore{dir: dir}, nil
}

func (f *FileAssetStore) Save(ctx context.Context, name string, data []byte) error {
	path := filepath.Join(f.dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
