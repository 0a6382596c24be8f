package deviceid

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/photoseal/internal/securestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreate_GeneratesValidUUID(t *testing.T) {
	ctx := context.Background()
	p := New(securestore.NewMemStore(), nil)

	id := p.GetOrCreate(ctx)
	require.True(t, id.Persisted)
	_, err := uuid.Parse(id.ID)
	require.NoError(t, err)
}

func TestGetOrCreate_IdempotentAcrossCalls(t *testing.T) {
	ctx := context.Background()
	p := New(securestore.NewMemStore(), nil)

	first := p.GetOrCreate(ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, p.GetOrCreate(ctx))
	}
}

func TestGetOrCreate_ReadsExistingId(t *testing.T) {
	ctx := context.Background()
	store := securestore.NewMemStore()
	require.NoError(t, store.Put(ctx, StorageKey, []byte("existing-id")))

	id := New(store, nil).GetOrCreate(ctx)
	assert.Equal(t, "existing-id", id.ID)
	assert.True(t, id.Persisted)
}

func TestGetOrCreate_EphemeralWhenStoreDown(t *testing.T) {
	ctx := context.Background()
	store := securestore.NewMemStore()
	store.FailGets = true

	p := New(store, nil)
	id := p.GetOrCreate(ctx)
	assert.False(t, id.Persisted)
	assert.NotEmpty(t, id.ID)

	// Still the same id while the store stays down.
	assert.Equal(t, id.ID, p.GetOrCreate(ctx).ID)
}

func TestGetOrCreate_PersistsEphemeralIdAfterRecovery(t *testing.T) {
	ctx := context.Background()
	store := securestore.NewMemStore()
	store.FailGets = true

	p := New(store, nil)
	ephemeral := p.GetOrCreate(ctx)
	require.False(t, ephemeral.Persisted)

	store.FailGets = false
	recovered := p.GetOrCreate(ctx)
	assert.Equal(t, ephemeral.ID, recovered.ID)
	assert.True(t, recovered.Persisted)

	stored, err := store.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Equal(t, ephemeral.ID, string(stored))
}

func TestGetOrCreate_NeverSwitchesToForeignIdMidProcess(t *testing.T) {
	ctx := context.Background()
	store := securestore.NewMemStore()
	store.FailGets = true

	p := New(store, nil)
	ephemeral := p.GetOrCreate(ctx)

	// The store recovers but already holds a different id.
	store.FailGets = false
	require.NoError(t, store.Put(ctx, StorageKey, []byte("foreign-id")))

	again := p.GetOrCreate(ctx)
	assert.Equal(t, ephemeral.ID, again.ID)
	assert.False(t, again.Persisted)
}

func TestGetOrCreate_PutFailureFallsBackToEphemeral(t *testing.T) {
	ctx := context.Background()
	store := securestore.NewMemStore()
	store.FailPuts = true

	p := New(store, nil)
	id := p.GetOrCreate(ctx)
	assert.False(t, id.Persisted)
	assert.Equal(t, id.ID, p.GetOrCreate(ctx).ID)
}
