// Package verifier checks authenticated images: it recovers the embedded
// provenance record, recomputes the content hash and validates the
// signature.
package verifier

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/dmitrijs2005/photoseal/internal/imagex"
	"github.com/dmitrijs2005/photoseal/internal/keymanager"
	"github.com/dmitrijs2005/photoseal/internal/logging"
	"github.com/dmitrijs2005/photoseal/internal/record"
)

// Status is the verification verdict.
type Status int

const (
	// StatusNoRecord means the container carries no recoverable record:
	// unsupported format, no PhotoAuthentication metadata, or a malformed
	// dictionary.
	StatusNoRecord Status = iota

	// StatusTampered means the content hash no longer matches the signed
	// hash: the bytes were modified after signing.
	StatusTampered

	// StatusInvalidSignature means the content hash matches but the
	// signature does not cover the presented fields.
	StatusInvalidSignature

	// StatusValid means the record is intact and was signed by the key.
	StatusValid
)

func (s Status) String() string {
	switch s {
	case StatusNoRecord:
		return "no record"
	case StatusTampered:
		return "tampered"
	case StatusInvalidSignature:
		return "invalid signature"
	case StatusValid:
		return "valid"
	default:
		return "unknown"
	}
}

// Outcome is the structured verification result. Record is nil only for
// StatusNoRecord; tampered and invalid-signature outcomes still expose the
// recovered record for inspection.
type Outcome struct {
	Status Status
	Record *record.Record
}

// Valid reports whether the image passed verification.
func (o Outcome) Valid() bool { return o.Status == StatusValid }

type Verifier struct {
	pub *ecdsa.PublicKey
	log logging.Logger
}

func New(pub *ecdsa.PublicKey, log logging.Logger) *Verifier {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Verifier{pub: pub, log: log}
}

// Verify checks the candidate byte stream.
//
// The signed hash covers the container as it was before the record was
// embedded, so the hash comparison runs over the candidate with the
// PhotoAuthentication metadata unit stripped; for an untouched container
// that restores the signing-time bytes exactly.
func (v *Verifier) Verify(ctx context.Context, candidate []byte) Outcome {
	dict, err := imagex.ExtractMetadata(candidate, record.Namespace)
	if err != nil {
		v.log.Debug(ctx, "no provenance record recovered", "error", err)
		return Outcome{Status: StatusNoRecord}
	}

	rec, err := record.UnmarshalMetadata(dict)
	if err != nil {
		v.log.Debug(ctx, "provenance record malformed", "error", err)
		return Outcome{Status: StatusNoRecord}
	}

	stripped, err := imagex.StripMetadata(candidate, record.Namespace)
	if err != nil {
		// Extraction succeeded, so stripping cannot normally fail; treat
		// as unrecoverable malformation.
		return Outcome{Status: StatusNoRecord}
	}

	sum := sha256.Sum256(stripped)
	if hex.EncodeToString(sum[:]) != rec.ImageHash {
		v.log.Warn(ctx, "content hash mismatch, image was modified after signing",
			"device_id", rec.DeviceID)
		return Outcome{Status: StatusTampered, Record: rec}
	}

	sig, err := base64.StdEncoding.DecodeString(rec.Signature)
	if err != nil {
		return Outcome{Status: StatusInvalidSignature, Record: rec}
	}

	payload := rec.CanonicalPayload()
	if !keymanager.VerifySignature(v.pub, []byte(payload), sig) {
		v.log.Warn(ctx, "signature does not cover presented fields",
			"device_id", rec.DeviceID)
		return Outcome{Status: StatusInvalidSignature, Record: rec}
	}

	return Outcome{Status: StatusValid, Record: rec}
}
