// Package service is the outward surface of the provenance core: it chains
// authentication and embedding for the capture pipeline and exposes
// verification for downstream holders.
package service

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/photoseal/internal/embedder"
	"github.com/dmitrijs2005/photoseal/internal/engine"
	"github.com/dmitrijs2005/photoseal/internal/logging"
	"github.com/dmitrijs2005/photoseal/internal/record"
	"github.com/dmitrijs2005/photoseal/internal/verifier"
)

// CaptureSource is the external capture pipeline: it supplies raw encoded
// image bytes and the active camera-facing label at capture time.
type CaptureSource interface {
	Capture(ctx context.Context) (image []byte, cameraPosition string, err error)
}

// LocationProvider supplies a best-effort capture location. Absence is a
// normal state, not an error.
type LocationProvider interface {
	CurrentLocation(ctx context.Context) record.Location
}

type Service struct {
	keys     engine.KeyProvider
	engine   *engine.Engine
	embedder *embedder.Embedder
	log      logging.Logger
}

func New(keys engine.KeyProvider, ids engine.IdentityProvider, log logging.Logger) *Service {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Service{
		keys:     keys,
		engine:   engine.New(keys, ids, log),
		embedder: embedder.New(log),
		log:      log,
	}
}

// AuthenticateAndEmbed signs the image bytes and returns a new byte sequence
// carrying the provenance record. Authentication completes (or fails) before
// embedding starts; any failure surfaces as an error and nothing that looks
// authenticated is returned.
func (s *Service) AuthenticateAndEmbed(ctx context.Context, image []byte, cameraPosition string, loc record.Location) ([]byte, *record.Record, error) {
	rec, err := s.engine.Authenticate(ctx, image, cameraPosition, loc)
	if err != nil {
		s.log.Error(ctx, "authentication failed", "error", err)
		return nil, nil, err
	}

	sealed, err := s.embedder.Embed(ctx, image, rec)
	if err != nil {
		s.log.Error(ctx, "embedding failed", "error", err, "hash", rec.ImageHash[:12])
		return nil, nil, err
	}

	s.log.Info(ctx, "image authenticated",
		"hash", rec.ImageHash[:12],
		"device_id", rec.DeviceID,
		"camera", rec.CameraPosition,
	)
	return sealed, rec, nil
}

// CaptureAndSeal pulls a frame from the capture source, resolves the
// optional location and runs AuthenticateAndEmbed. A nil locations provider
// means no location is ever attached.
func (s *Service) CaptureAndSeal(ctx context.Context, source CaptureSource, locations LocationProvider) ([]byte, *record.Record, error) {
	image, cameraPosition, err := source.Capture(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("capture: %w", err)
	}

	var loc record.Location
	if locations != nil {
		loc = locations.CurrentLocation(ctx)
	}

	return s.AuthenticateAndEmbed(ctx, image, cameraPosition, loc)
}

// Verify checks a candidate byte stream against the device's public key.
// The error is non-nil only when the key itself cannot be resolved; all
// content verdicts are carried in the outcome.
func (s *Service) Verify(ctx context.Context, candidate []byte) (verifier.Outcome, error) {
	signer, err := s.keys.GetOrCreateSigner(ctx)
	if err != nil {
		return verifier.Outcome{}, fmt.Errorf("resolving verification key: %w", err)
	}

	outcome := verifier.New(signer.Public(), s.log).Verify(ctx, candidate)
	if outcome.Status == verifier.StatusTampered || outcome.Status == verifier.StatusInvalidSignature {
		s.log.Warn(ctx, "verification flagged image", "status", outcome.Status.String())
	}
	return outcome, nil
}
