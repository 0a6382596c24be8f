// Package storage persists authenticated image bytes. It is deliberately
// outside the authentication protocol: stores receive the final bytes after
// embedding and never see unauthenticated intermediates.
package storage

import "context"

// AssetStore accepts the final authenticated bytes for durable storage.
type AssetStore interface {
	Save(ctx context.Context, name string, data []byte) error
}
