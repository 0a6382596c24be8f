// Package deviceid owns the stable per-device identifier. The id is a UUID
// generated once per installation and kept in the secure store; it is opaque
// and carries no personal information.
package deviceid

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/photoseal/internal/common"
	"github.com/dmitrijs2005/photoseal/internal/logging"
	"github.com/dmitrijs2005/photoseal/internal/securestore"
	"github.com/google/uuid"
)

// StorageKey is the fixed secure-store key the identifier lives under.
const StorageKey = "photoseal.device-id.v1"

// Identity is the device identifier together with its provenance. Persisted
// is false when the secure store was unreachable and the id only exists in
// process memory; callers may treat such records as weaker evidence.
type Identity struct {
	ID        string
	Persisted bool
}

type Provider struct {
	store securestore.Store
	log   logging.Logger

	mu     sync.Mutex
	cached *Identity
}

func New(store securestore.Store, log logging.Logger) *Provider {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Provider{store: store, log: log}
}

// GetOrCreate returns the device identity, generating and persisting a fresh
// UUID on first use. It never fails: when the store is unreachable the id is
// served from process memory, marked ephemeral, and re-offered to the store
// on later calls until a Put succeeds. Repeated calls within one process
// always return the same id, whatever the store does in between.
func (p *Provider) GetOrCreate(ctx context.Context) Identity {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil {
		if !p.cached.Persisted {
			p.tryPersist(ctx)
		}
		return *p.cached
	}

	stored, err := p.store.Get(ctx, StorageKey)
	if err == nil {
		p.cached = &Identity{ID: string(stored), Persisted: true}
		return *p.cached
	}

	id := uuid.NewString()

	if !errors.Is(err, common.ErrorNotFound) {
		p.log.Warn(ctx, "secure store unreachable, using ephemeral device id", "error", err)
		p.cached = &Identity{ID: id, Persisted: false}
		return *p.cached
	}

	if err := p.store.Put(ctx, StorageKey, []byte(id)); err != nil {
		p.log.Warn(ctx, "could not persist device id, keeping it in memory", "error", err)
		p.cached = &Identity{ID: id, Persisted: false}
		return *p.cached
	}

	p.cached = &Identity{ID: id, Persisted: true}
	return *p.cached
}

// tryPersist re-offers a previously ephemeral id to the store. The cached id
// is never replaced: an id that was already stamped into records must not
// change for the lifetime of the process.
func (p *Provider) tryPersist(ctx context.Context) {
	if _, err := p.store.Get(ctx, StorageKey); err == nil {
		// Another writer got there first. Keep serving the cached id so
		// calls never diverge; it stays marked ephemeral.
		p.log.Warn(ctx, "store holds a different device id, keeping in-memory id for this process")
		return
	} else if !errors.Is(err, common.ErrorNotFound) {
		return
	}

	if err := p.store.Put(ctx, StorageKey, []byte(p.cached.ID)); err != nil {
		return
	}
	p.cached.Persisted = true
	p.log.Info(ctx, "device id persisted after store recovery")
}
