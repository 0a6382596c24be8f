// Package common defines shared constants and sentinel errors used across
// the photoseal components. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Secure-store level errors.
	ErrorNotFound = errors.New("not found")

	// Key and signing errors. ErrKeyUnavailable means the secure store or
	// key generation could not be reached; it is recoverable by retrying
	// later and is never bypassed with a synthetic key.
	ErrKeyUnavailable = errors.New("signing key unavailable")
	ErrSigningFailed  = errors.New("signing failed")

	// Container errors.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrEmbedFailed       = errors.New("metadata embedding failed")
)
