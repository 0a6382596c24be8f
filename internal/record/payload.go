package record

import "strings"

// CanonicalPayload builds the order-fixed, pipe-delimited string that is the
// input to signing and verification:
//
//	<hash>|<timestamp>|<device_id>|<camera_position>|<version>[|<location>]
//
// The trailing location segment exists only when the location is present, so
// presence/absence is itself part of the signed content. Any change to field
// order or delimiters breaks signature compatibility with existing records.
func CanonicalPayload(imageHash, timestamp, deviceID, cameraPosition, version string, loc Location) string {
	var b strings.Builder
	b.WriteString(imageHash)
	b.WriteByte('|')
	b.WriteString(timestamp)
	b.WriteByte('|')
	b.WriteString(deviceID)
	b.WriteByte('|')
	b.WriteString(cameraPosition)
	b.WriteByte('|')
	b.WriteString(version)
	if loc.Valid {
		b.WriteByte('|')
		b.WriteString(loc.Value)
	}
	return b.String()
}
