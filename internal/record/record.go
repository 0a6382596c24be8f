// Package record defines the provenance record produced when a photo is
// authenticated and the canonical payload that is signed and verified.
package record

import (
	"time"
)

// Version is the protocol version stamped into every record produced by this
// build of the engine.
const Version = "1.0"

// Namespace is the metadata dictionary key under which the record fields are
// embedded in the image container.
const Namespace = "PhotoAuthentication"

// Embedded metadata field names.
const (
	FieldHash           = "AuthHash"
	FieldTimestamp      = "AuthTimestamp"
	FieldDeviceID       = "AuthDeviceId"
	FieldSignature      = "AuthSignature"
	FieldVersion        = "AuthVersion"
	FieldCameraPosition = "AuthCameraPosition"
	FieldLocation       = "AuthLocation"
)

// Location is an optional "latitude,longitude" string. Absence is a valid,
// expected state and is distinct from an empty string, so the zero value
// (Valid=false) means "no location".
type Location struct {
	Value string
	Valid bool
}

// NewLocation returns a present location.
func NewLocation(v string) Location {
	return Location{Value: v, Valid: true}
}

// Record is the unit of provenance evidence for a single image. It is
// immutable once produced: components only ever read it after signing.
type Record struct {
	// ImageHash is the lowercase hex SHA-256 of the exact image bytes at
	// signing time, before any metadata was embedded.
	ImageHash string

	// Timestamp is the capture instant. Sub-second precision is not carried.
	Timestamp time.Time

	// DeviceID is the opaque stable identifier of the signing device.
	DeviceID string

	// Signature is the base64-encoded ECDSA signature over the canonical
	// payload.
	Signature string

	// Version is the protocol version the record was produced with.
	Version string

	// CameraPosition is the capture pipeline's camera-facing label,
	// e.g. "front" or "back".
	CameraPosition string

	// Location is the optional capture location.
	Location Location
}

// TimestampString returns the canonical textual form of the timestamp used in
// the payload and the embedded metadata.
func (r *Record) TimestampString() string {
	return r.Timestamp.UTC().Format(time.RFC3339)
}

// CanonicalPayload rebuilds the exact signed string for this record.
func (r *Record) CanonicalPayload() string {
	return CanonicalPayload(r.ImageHash, r.TimestampString(), r.DeviceID, r.CameraPosition, r.Version, r.Location)
}
