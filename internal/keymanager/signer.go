package keymanager

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// Signer is the signing capability handed to the authentication engine. The
// private key stays behind this interface; only the public half is exposed
// for verification.
type Signer interface {
	// Sign returns a DER-encoded ECDSA signature over SHA-256 of payload.
	Sign(payload []byte) ([]byte, error)

	// Public returns the verification key.
	Public() *ecdsa.PublicKey
}

// SoftwareSigner holds a P-256 private key in process memory. It stands in
// for a hardware-backed key on platforms without a secure element; the key
// material at rest lives sealed inside the secure store.
type SoftwareSigner struct {
	key *ecdsa.PrivateKey
}

func NewSoftwareSigner(key *ecdsa.PrivateKey) (*SoftwareSigner, error) {
	if key == nil {
		return nil, errors.New("nil private key")
	}
	if key.Curve != elliptic.P256() {
		return nil, errors.New("expected a P-256 key")
	}
	return &SoftwareSigner{key: key}, nil
}

func (s *SoftwareSigner) Sign(payload []byte) ([]byte, error) {
	hash := sha256.Sum256(payload)
	return ecdsa.SignASN1(rand.Reader, s.key, hash[:])
}

func (s *SoftwareSigner) Public() *ecdsa.PublicKey {
	return &s.key.PublicKey
}

// PrivateKey exposes the underlying key for callers that need to sign in
// other formats with the same identity, such as token export. The interface
// deliberately does not carry this.
func (s *SoftwareSigner) PrivateKey() *ecdsa.PrivateKey {
	return s.key
}

// VerifySignature reports whether sigDER is a valid ECDSA signature over
// SHA-256 of payload under pub.
func VerifySignature(pub *ecdsa.PublicKey, payload, sigDER []byte) bool {
	if pub == nil {
		return false
	}
	hash := sha256.Sum256(payload)
	return ecdsa.VerifyASN1(pub, hash[:], sigDER)
}

// EncodePublicKeyPEM renders the public key as a PEM-encoded SPKI block, the
// form in which verifiers outside this process receive it.
func EncodePublicKeyPEM(pub *ecdsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// DecodePublicKeyPEM parses a PEM-encoded SPKI P-256 public key.
func DecodePublicKeyPEM(data []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	ecdsaPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("not an ECDSA public key")
	}
	if ecdsaPub.Curve != elliptic.P256() {
		return nil, errors.New("expected a P-256 key")
	}
	return ecdsaPub, nil
}
