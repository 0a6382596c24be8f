// Package engine produces provenance records: it hashes the captured image,
// builds the canonical payload and signs it with the device key.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dmitrijs2005/photoseal/internal/common"
	"github.com/dmitrijs2005/photoseal/internal/deviceid"
	"github.com/dmitrijs2005/photoseal/internal/keymanager"
	"github.com/dmitrijs2005/photoseal/internal/logging"
	"github.com/dmitrijs2005/photoseal/internal/record"
)

// KeyProvider resolves the device's signing capability. Satisfied by
// keymanager.Manager; tests substitute software doubles.
type KeyProvider interface {
	GetOrCreateSigner(ctx context.Context) (keymanager.Signer, error)
}

// IdentityProvider resolves the stable device identifier. Satisfied by
// deviceid.Provider.
type IdentityProvider interface {
	GetOrCreate(ctx context.Context) deviceid.Identity
}

type Engine struct {
	keys KeyProvider
	ids  IdentityProvider
	log  logging.Logger

	// now is a clock seam for tests.
	now func() time.Time
}

func New(keys KeyProvider, ids IdentityProvider, log logging.Logger) *Engine {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Engine{keys: keys, ids: ids, log: log, now: time.Now}
}

// Authenticate builds and signs the provenance record for image. The input
// bytes are only read; the hash covers exactly the bytes passed in, before
// any metadata is embedded.
//
// Key retrieval or signing failures wrap common.ErrSigningFailed and no
// partial record is returned.
func (e *Engine) Authenticate(ctx context.Context, image []byte, cameraPosition string, loc record.Location) (*record.Record, error) {
	sum := sha256.Sum256(image)
	imageHash := hex.EncodeToString(sum[:])

	ts := e.now().UTC().Truncate(time.Second)
	identity := e.ids.GetOrCreate(ctx)

	signer, err := e.keys.GetOrCreateSigner(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSigningFailed, err)
	}

	payload := record.CanonicalPayload(
		imageHash,
		ts.Format(time.RFC3339),
		identity.ID,
		cameraPosition,
		record.Version,
		loc,
	)

	sig, err := signer.Sign([]byte(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSigningFailed, err)
	}

	rec := &record.Record{
		ImageHash:      imageHash,
		Timestamp:      ts,
		DeviceID:       identity.ID,
		Signature:      base64.StdEncoding.EncodeToString(sig),
		Version:        record.Version,
		CameraPosition: cameraPosition,
		Location:       loc,
	}

	e.log.Debug(ctx, "authenticated image",
		"hash", imageHash[:12],
		"device_id", identity.ID,
		"persisted_id", identity.Persisted,
		"camera", cameraPosition,
		"has_location", loc.Valid,
	)
	return rec, nil
}
