// Package securestore provides durable, access-controlled storage for small
// secrets such as private key material and the device identifier.
//
// The Store interface models the platform keystore: opaque values under fixed
// keys, get-or-create access patterns, no enumeration.
package securestore

import (
	"context"
	"errors"
)

// ErrStoreUnavailable means the backing store could not be reached. Callers
// treat it as recoverable: retry later, never substitute weaker storage.
var ErrStoreUnavailable = errors.New("secure store unavailable")

// Store is a key-value secret store. Implementations must be safe for
// concurrent use.
//
// Get returns common.ErrorNotFound when no value exists under the key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}
