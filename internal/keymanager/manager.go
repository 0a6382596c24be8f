// Package keymanager owns creation and retrieval of the device's asymmetric
// signing key. The key is created lazily on first need under a fixed
// application tag and reused for the lifetime of the installation.
package keymanager

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/photoseal/internal/common"
	"github.com/dmitrijs2005/photoseal/internal/logging"
	"github.com/dmitrijs2005/photoseal/internal/securestore"
)

// SigningKeyTag is the fixed secure-store key the private key lives under.
const SigningKeyTag = "photoseal.signing-key.v1"

type Manager struct {
	store securestore.Store
	log   logging.Logger

	mu     sync.Mutex
	cached *SoftwareSigner
}

func New(store securestore.Store, log logging.Logger) *Manager {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Manager{store: store, log: log}
}

// GetOrCreateSigner returns the device's signer, generating and persisting a
// new P-256 key pair on first use.
//
// When the secure store cannot be reached or key generation fails, the error
// wraps common.ErrKeyUnavailable. That state is recoverable by retrying
// later; no weaker in-memory key is ever substituted, since a key that does
// not survive the process would undermine the trust model.
func (m *Manager) GetOrCreateSigner(ctx context.Context) (Signer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil {
		return m.cached, nil
	}

	der, err := m.store.Get(ctx, SigningKeyTag)
	if err == nil {
		key, perr := x509.ParseECPrivateKey(der)
		if perr != nil {
			return nil, fmt.Errorf("%w: stored key is unreadable: %v", common.ErrKeyUnavailable, perr)
		}
		signer, serr := NewSoftwareSigner(key)
		if serr != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrKeyUnavailable, serr)
		}
		m.cached = signer
		return signer, nil
	}

	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("%w: %v", common.ErrKeyUnavailable, err)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: generating key: %v", common.ErrKeyUnavailable, err)
	}

	der, err = x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding key: %v", common.ErrKeyUnavailable, err)
	}

	if err := m.store.Put(ctx, SigningKeyTag, der); err != nil {
		return nil, fmt.Errorf("%w: persisting key: %v", common.ErrKeyUnavailable, err)
	}

	signer, err := NewSoftwareSigner(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrKeyUnavailable, err)
	}

	m.log.Info(ctx, "generated new signing key", "tag", SigningKeyTag)
	m.cached = signer
	return signer, nil
}

// PublicKey returns the verification key without requiring the caller to
// hold the signer.
func (m *Manager) PublicKey(ctx context.Context) (*ecdsa.PublicKey, error) {
	signer, err := m.GetOrCreateSigner(ctx)
	if err != nil {
		return nil, err
	}
	return signer.Public(), nil
}
