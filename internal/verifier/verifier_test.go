package verifier

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/dmitrijs2005/photoseal/internal/deviceid"
	"github.com/dmitrijs2005/photoseal/internal/embedder"
	"github.com/dmitrijs2005/photoseal/internal/engine"
	"github.com/dmitrijs2005/photoseal/internal/keymanager"
	"github.com/dmitrijs2005/photoseal/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticKeys struct{ signer keymanager.Signer }

func (s *staticKeys) GetOrCreateSigner(ctx context.Context) (keymanager.Signer, error) {
	return s.signer, nil
}

type staticIDs struct{}

func (staticIDs) GetOrCreate(ctx context.Context) deviceid.Identity {
	return deviceid.Identity{ID: "device-1", Persisted: true}
}

type pipeline struct {
	engine   *engine.Engine
	embedder *embedder.Embedder
	verifier *Verifier
	signer   *keymanager.SoftwareSigner
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	signer, err := keymanager.NewSoftwareSigner(key)
	require.NoError(t, err)

	return &pipeline{
		engine:   engine.New(&staticKeys{signer: signer}, staticIDs{}, nil),
		embedder: embedder.New(nil),
		verifier: New(signer.Public(), nil),
		signer:   signer,
	}
}

func (p *pipeline) seal(t *testing.T, img []byte, pos string, loc record.Location) []byte {
	t.Helper()
	rec, err := p.engine.Authenticate(context.Background(), img, pos, loc)
	require.NoError(t, err)
	out, err := p.embedder.Embed(context.Background(), img, rec)
	require.NoError(t, err)
	return out
}

func makePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(40 * x), G: uint8(40 * y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func makeJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestVerify_RoundTripIsValid(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	tests := []struct {
		name string
		img  []byte
	}{
		{"png", makePNG(t)},
		{"jpeg", makeJPEG(t)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sealed := p.seal(t, tc.img, "back", record.Location{})

			outcome := p.verifier.Verify(ctx, sealed)
			require.Equal(t, StatusValid, outcome.Status)
			require.True(t, outcome.Valid())
			require.NotNil(t, outcome.Record)
			assert.Equal(t, "back", outcome.Record.CameraPosition)
			assert.Equal(t, "device-1", outcome.Record.DeviceID)
		})
	}
}

func TestVerify_RoundTripWithLocation(t *testing.T) {
	p := newPipeline(t)
	sealed := p.seal(t, makePNG(t), "front", record.NewLocation("40.7128,-74.0060"))

	outcome := p.verifier.Verify(context.Background(), sealed)
	require.Equal(t, StatusValid, outcome.Status)
	assert.Equal(t, "40.7128,-74.0060", outcome.Record.Location.Value)
	assert.True(t, outcome.Record.Location.Valid)
}

func TestVerify_NoRecord(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	assert.Equal(t, StatusNoRecord, p.verifier.Verify(ctx, makePNG(t)).Status)
	assert.Equal(t, StatusNoRecord, p.verifier.Verify(ctx, makeJPEG(t)).Status)
	assert.Equal(t, StatusNoRecord, p.verifier.Verify(ctx, []byte("not an image")).Status)
	assert.Equal(t, StatusNoRecord, p.verifier.Verify(ctx, nil).Status)
}

// Mutating any byte of the authenticated container must never verify as
// Valid. Bytes outside the metadata unit yield Tampered; bytes inside it
// break the record or its signature instead.
func TestVerify_EveryByteMutationIsDetected(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	sealed := p.seal(t, makePNG(t), "back", record.Location{})

	for i := range sealed {
		mutated := make([]byte, len(sealed))
		copy(mutated, sealed)
		mutated[i] ^= 0x01

		outcome := p.verifier.Verify(ctx, mutated)
		if outcome.Status == StatusValid {
			t.Fatalf("flipping bit at offset %d still verified as valid", i)
		}
	}
}

func TestVerify_PixelTamperingYieldsTampered(t *testing.T) {
	p := newPipeline(t)
	sealed := p.seal(t, makePNG(t), "back", record.Location{})

	// Hit the middle of the container, far from the metadata chunk near
	// the front, so the damage lands in pixel data.
	mutated := make([]byte, len(sealed))
	copy(mutated, sealed)
	mutated[len(mutated)-20] ^= 0xFF

	outcome := p.verifier.Verify(context.Background(), mutated)
	require.Equal(t, StatusTampered, outcome.Status)
	require.NotNil(t, outcome.Record, "tampered outcome still exposes the record")
	assert.Equal(t, "device-1", outcome.Record.DeviceID)
}

func TestVerify_AlteredFieldWithoutResigning(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	img := makePNG(t)

	rec, err := p.engine.Authenticate(ctx, img, "back", record.Location{})
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(r record.Record) record.Record
	}{
		{"camera position", func(r record.Record) record.Record {
			r.CameraPosition = "front"
			return r
		}},
		{"timestamp", func(r record.Record) record.Record {
			r.Timestamp = r.Timestamp.Add(1e9)
			return r
		}},
		{"location added", func(r record.Record) record.Record {
			r.Location = record.NewLocation("0.0,0.0")
			return r
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			forged := tc.mutate(*rec)
			sealed, err := p.embedder.Embed(ctx, img, &forged)
			require.NoError(t, err)

			outcome := p.verifier.Verify(ctx, sealed)
			assert.Equal(t, StatusInvalidSignature, outcome.Status)
			require.NotNil(t, outcome.Record)
		})
	}
}

func TestVerify_StrippedLocationInvalidatesSignature(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	img := makePNG(t)

	rec, err := p.engine.Authenticate(ctx, img, "back", record.NewLocation("40.7128,-74.0060"))
	require.NoError(t, err)

	// Simulate an attacker dropping the location field without re-signing.
	forged := *rec
	forged.Location = record.Location{}
	sealed, err := p.embedder.Embed(ctx, img, &forged)
	require.NoError(t, err)

	outcome := p.verifier.Verify(ctx, sealed)
	assert.Equal(t, StatusInvalidSignature, outcome.Status)
}

func TestVerify_WrongKey(t *testing.T) {
	p := newPipeline(t)
	sealed := p.seal(t, makePNG(t), "back", record.Location{})

	otherKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	stranger := New(&otherKey.PublicKey, nil)

	outcome := stranger.Verify(context.Background(), sealed)
	assert.Equal(t, StatusInvalidSignature, outcome.Status)
}

func TestVerify_GarbageSignatureEncoding(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	img := makePNG(t)

	rec, err := p.engine.Authenticate(ctx, img, "back", record.Location{})
	require.NoError(t, err)

	forged := *rec
	forged.Signature = "%%% not base64 %%%"
	sealed, err := p.embedder.Embed(ctx, img, &forged)
	require.NoError(t, err)

	outcome := p.verifier.Verify(ctx, sealed)
	assert.Equal(t, StatusInvalidSignature, outcome.Status)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "no record", StatusNoRecord.String())
	assert.Equal(t, "tampered", StatusTampered.String())
	assert.Equal(t, "invalid signature", StatusInvalidSignature.String())
	assert.Equal(t, "valid", StatusValid.String())
}

// The signature must stay decodable as standard base64 end to end.
func TestSignatureEncodingSurvivesEmbedding(t *testing.T) {
	p := newPipeline(t)
	sealed := p.seal(t, makePNG(t), "back", record.Location{})

	outcome := p.verifier.Verify(context.Background(), sealed)
	require.Equal(t, StatusValid, outcome.Status)
	_, err := base64.StdEncoding.DecodeString(outcome.Record.Signature)
	require.NoError(t, err)
}
