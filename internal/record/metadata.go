package record

import (
	"encoding/json"
	"fmt"
	"time"
)

// metadataRecord is the JSON shape of the embedded dictionary. Field names
// are fixed by the protocol and must never change.
type metadataRecord struct {
	AuthHash           string  `json:"AuthHash"`
	AuthTimestamp      string  `json:"AuthTimestamp"`
	AuthDeviceID       string  `json:"AuthDeviceId"`
	AuthSignature      string  `json:"AuthSignature"`
	AuthVersion        string  `json:"AuthVersion"`
	AuthCameraPosition string  `json:"AuthCameraPosition"`
	AuthLocation       *string `json:"AuthLocation,omitempty"`
}

// MarshalMetadata serializes the record into the embedded dictionary form.
func (r *Record) MarshalMetadata() ([]byte, error) {
	m := metadataRecord{
		AuthHash:           r.ImageHash,
		AuthTimestamp:      r.TimestampString(),
		AuthDeviceID:       r.DeviceID,
		AuthSignature:      r.Signature,
		AuthVersion:        r.Version,
		AuthCameraPosition: r.CameraPosition,
	}
	if r.Location.Valid {
		v := r.Location.Value
		m.AuthLocation = &v
	}
	return json.Marshal(m)
}

// UnmarshalMetadata parses an embedded dictionary back into a Record. It
// fails when the JSON is malformed or any required field is missing, which
// verifiers surface as "no record".
func UnmarshalMetadata(data []byte) (*Record, error) {
	var m metadataRecord
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing metadata: %w", err)
	}

	required := map[string]string{
		FieldHash:           m.AuthHash,
		FieldTimestamp:      m.AuthTimestamp,
		FieldDeviceID:       m.AuthDeviceID,
		FieldSignature:      m.AuthSignature,
		FieldVersion:        m.AuthVersion,
		FieldCameraPosition: m.AuthCameraPosition,
	}
	for name, v := range required {
		if v == "" {
			return nil, fmt.Errorf("metadata field %s is missing", name)
		}
	}

	ts, err := time.Parse(time.RFC3339, m.AuthTimestamp)
	if err != nil {
		return nil, fmt.Errorf("metadata field %s: %w", FieldTimestamp, err)
	}

	r := &Record{
		ImageHash:      m.AuthHash,
		Timestamp:      ts,
		DeviceID:       m.AuthDeviceID,
		Signature:      m.AuthSignature,
		Version:        m.AuthVersion,
		CameraPosition: m.AuthCameraPosition,
	}
	if m.AuthLocation != nil {
		r.Location = NewLocation(*m.AuthLocation)
	}
	return r, nil
}
