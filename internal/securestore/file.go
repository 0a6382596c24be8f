package securestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dmitrijs2005/photoseal/internal/common"
	"github.com/dmitrijs2005/photoseal/internal/cryptox"
	"github.com/dmitrijs2005/photoseal/internal/filex"
)

const (
	saltFileName = ".salt"
	saltSize     = 16
	nonceSize    = 12
)

// FileStore keeps one file per key under dir, each value sealed with
// AES-256-GCM under a master key derived from the passphrase via argon2id.
// The random salt is created on first open and persisted next to the values.
//
// Stored layout per value: nonce (12 bytes) || ciphertext.
type FileStore struct {
	mu        sync.Mutex
	dir       string
	masterKey []byte
}

// NewFileStore opens (or initialises) a sealed store in dir. The passphrase
// is only used for key derivation and may be wiped by the caller afterwards.
func NewFileStore(dir string, passphrase []byte) (*FileStore, error) {
	if _, err := filex.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	saltPath := filepath.Join(dir, saltFileName)
	salt, err := os.ReadFile(saltPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		salt = common.GenerateRandByteArray(saltSize)
		if err := os.WriteFile(saltPath, salt, 0o600); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	return &FileStore{
		dir:       dir,
		masterKey: cryptox.DeriveMasterKey(passphrase, salt),
	}, nil
}

func (f *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if len(data) < nonceSize {
		return nil, fmt.Errorf("value under %q is truncated", key)
	}

	plaintext, err := cryptox.Open(data[nonceSize:], data[:nonceSize], f.masterKey)
	if err != nil {
		return nil, fmt.Errorf("unsealing %q: %w", key, err)
	}
	return plaintext, nil
}

func (f *FileStore) Put(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ciphertext, nonce, err := cryptox.Seal(value, f.masterKey)
	if err != nil {
		return fmt.Errorf("sealing %q: %w", key, err)
	}

	data := append(nonce, ciphertext...)
	if err := os.WriteFile(f.path(key), data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// path maps a store key to a file name. Keys are fixed application tags, but
// separators are replaced anyway so a key can never escape the store dir.
func (f *FileStore) path(key string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(key)
	return filepath.Join(f.dir, name)
}
