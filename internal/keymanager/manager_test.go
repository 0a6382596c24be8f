package keymanager

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/dmitrijs2005/photoseal/internal/common"
	"github.com/dmitrijs2005/photoseal/internal/securestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CreatesKeyOnFirstUse(t *testing.T) {
	ctx := context.Background()
	store := securestore.NewMemStore()
	m := New(store, nil)

	signer, err := m.GetOrCreateSigner(ctx)
	require.NoError(t, err)
	require.NotNil(t, signer.Public())

	// The key must have been persisted under the fixed tag.
	_, err = store.Get(ctx, SigningKeyTag)
	require.NoError(t, err)
}

func TestManager_ReusesPersistedKey(t *testing.T) {
	ctx := context.Background()
	store := securestore.NewMemStore()

	first, err := New(store, nil).GetOrCreateSigner(ctx)
	require.NoError(t, err)

	// A fresh manager over the same store must resolve the same key.
	second, err := New(store, nil).GetOrCreateSigner(ctx)
	require.NoError(t, err)

	assert.True(t, first.Public().Equal(second.Public()))
}

func TestManager_StoreUnavailable(t *testing.T) {
	ctx := context.Background()
	store := securestore.NewMemStore()
	store.FailGets = true

	_, err := New(store, nil).GetOrCreateSigner(ctx)
	require.ErrorIs(t, err, common.ErrKeyUnavailable)
}

func TestManager_PersistFailureIsNotSilentlyBypassed(t *testing.T) {
	ctx := context.Background()
	store := securestore.NewMemStore()
	store.FailPuts = true

	m := New(store, nil)
	_, err := m.GetOrCreateSigner(ctx)
	require.ErrorIs(t, err, common.ErrKeyUnavailable)

	// Once the store recovers, a key can be created and is then cached.
	store.FailPuts = false
	signer, err := m.GetOrCreateSigner(ctx)
	require.NoError(t, err)

	again, err := m.GetOrCreateSigner(ctx)
	require.NoError(t, err)
	assert.Same(t, signer, again)
}

func TestManager_CorruptStoredKey(t *testing.T) {
	ctx := context.Background()
	store := securestore.NewMemStore()
	require.NoError(t, store.Put(ctx, SigningKeyTag, []byte("not a DER key")))

	_, err := New(store, nil).GetOrCreateSigner(ctx)
	require.ErrorIs(t, err, common.ErrKeyUnavailable)
}

func TestSoftwareSigner_SignAndVerify(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	signer, err := NewSoftwareSigner(key)
	require.NoError(t, err)

	payload := []byte("hash|ts|device|back|1.0")
	sig, err := signer.Sign(payload)
	require.NoError(t, err)

	assert.True(t, VerifySignature(signer.Public(), payload, sig))
	assert.False(t, VerifySignature(signer.Public(), []byte("other payload"), sig))

	other, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	assert.False(t, VerifySignature(&other.PublicKey, payload, sig))
}

func TestSoftwareSigner_RejectsNonP256(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	_, err = NewSoftwareSigner(key)
	require.Error(t, err)
}

func TestPublicKeyPEM_RoundTrip(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	pemBytes, err := EncodePublicKeyPEM(&key.PublicKey)
	require.NoError(t, err)
	assert.Contains(t, string(pemBytes), "BEGIN PUBLIC KEY")

	pub, err := DecodePublicKeyPEM(pemBytes)
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(pub))
}

func TestDecodePublicKeyPEM_Garbage(t *testing.T) {
	_, err := DecodePublicKeyPEM([]byte("garbage"))
	require.Error(t, err)
}
