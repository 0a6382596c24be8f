// Package token exports a provenance record as a signed ES256 JWT, so a
// holder can present evidence of origin without shipping the image bytes.
// The token is issued with the same P-256 device key that signed the record.
package token

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/photoseal/internal/record"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "photoseal"

// Claims mirrors the embedded metadata dictionary.
type Claims struct {
	jwt.RegisteredClaims
	Hash           string `json:"auth_hash"`
	DeviceID       string `json:"auth_device_id"`
	Version        string `json:"auth_version"`
	CameraPosition string `json:"auth_camera_position"`
	Signature      string `json:"auth_signature"`
	Location       string `json:"auth_location,omitempty"`
}

// Issue signs a token carrying the record's fields. The registered IssuedAt
// claim is the record's capture timestamp, not the time of export.
func Issue(rec *record.Record, key *ecdsa.PrivateKey) (string, error) {
	if rec == nil {
		return "", errors.New("nil record")
	}
	if key == nil {
		return "", errors.New("nil key")
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  rec.DeviceID,
			IssuedAt: jwt.NewNumericDate(rec.Timestamp),
		},
		Hash:           rec.ImageHash,
		DeviceID:       rec.DeviceID,
		Version:        rec.Version,
		CameraPosition: rec.CameraPosition,
		Signature:      rec.Signature,
	}
	if rec.Location.Valid {
		claims.Location = rec.Location.Value
	}

	t := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	signed, err := t.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Parse validates tokenString against the device's public key and returns
// the carried claims. Any signing method other than ES256 is rejected.
func Parse(tokenString string, pub *ecdsa.PublicKey) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodECDSA); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return pub, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !t.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
