package imagex

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// JPEG layout: SOI marker, a run of marker segments (each 0xFF, marker id,
// 2-byte big-endian length covering itself plus the payload), then from SOS
// onward entropy-coded data until EOI.
//
// The metadata unit is an APP1 segment whose payload starts with the keyword
// and a zero byte, mirroring how Exif ("Exif\0\0") and XMP namespace their
// APP1 payloads. It is inserted after SOI and any leading APP0/APP1
// segments, so a JFIF header stays first.

const (
	jpegMarkerSOI  = 0xD8
	jpegMarkerEOI  = 0xD9
	jpegMarkerSOS  = 0xDA
	jpegMarkerAPP0 = 0xE0
	jpegMarkerAPP1 = 0xE1

	// Marker id plus the 2-byte length field.
	jpegSegmentOverhead = 4

	jpegMaxPayload = 0xFFFF - 2
)

// jpegWalk calls fn for every marker segment before SOS with the marker id,
// absolute start/end offsets and the payload range. fn returning false stops
// the walk.
func jpegWalk(data []byte, fn func(marker byte, start, end int, payload []byte) bool) error {
	off := 2 // past SOI
	for off < len(data) {
		if data[off] != 0xFF {
			return corruptErr(FormatJPEG, "expected marker byte")
		}
		if off+1 >= len(data) {
			return corruptErr(FormatJPEG, "truncated marker")
		}
		marker := data[off+1]

		switch {
		case marker == 0xFF: // fill byte
			off++
			continue
		case marker == jpegMarkerSOS, marker == jpegMarkerEOI:
			return nil
		case marker == 0x01, marker >= 0xD0 && marker <= 0xD7:
			// standalone markers carry no length
			off += 2
			continue
		}

		if off+jpegSegmentOverhead > len(data) {
			return corruptErr(FormatJPEG, "truncated segment header")
		}
		length := int(binary.BigEndian.Uint16(data[off+2:]))
		if length < 2 {
			return corruptErr(FormatJPEG, "segment length too small")
		}
		end := off + 2 + length
		if end > len(data) {
			return corruptErr(FormatJPEG, "segment exceeds container")
		}

		if !fn(marker, off, end, data[off+4:end]) {
			return nil
		}
		off = end
	}
	return corruptErr(FormatJPEG, "missing SOS")
}

func jpegEncodeAPP1(keyword string, value []byte) ([]byte, error) {
	payload := make([]byte, 0, len(keyword)+1+len(value))
	payload = append(payload, keyword...)
	payload = append(payload, 0)
	payload = append(payload, value...)

	if len(payload) > jpegMaxPayload {
		return nil, errors.New("metadata too large for a JPEG segment")
	}

	seg := make([]byte, jpegSegmentOverhead+len(payload))
	seg[0] = 0xFF
	seg[1] = jpegMarkerAPP1
	binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))
	copy(seg[4:], payload)
	return seg, nil
}

func jpegInsert(data []byte, keyword string, value []byte) ([]byte, error) {
	if _, _, _, err := jpegFind(data, keyword); err == nil {
		return nil, ErrMetadataExists
	} else if !errors.Is(err, ErrMetadataNotFound) {
		return nil, err
	}

	insertAt := 2
	err := jpegWalk(data, func(marker byte, start, end int, payload []byte) bool {
		if marker == jpegMarkerAPP0 || marker == jpegMarkerAPP1 {
			insertAt = end
			return true
		}
		return false
	})
	if err != nil {
		return nil, err
	}

	seg, err := jpegEncodeAPP1(keyword, value)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(data)+len(seg))
	out = append(out, data[:insertAt]...)
	out = append(out, seg...)
	out = append(out, data[insertAt:]...)
	return out, nil
}

// jpegFind locates the APP1 segment for keyword and returns its value plus
// the segment's byte range.
func jpegFind(data []byte, keyword string) (value []byte, start, end int, err error) {
	prefix := append([]byte(keyword), 0)
	found := false

	walkErr := jpegWalk(data, func(marker byte, s, e int, payload []byte) bool {
		if marker != jpegMarkerAPP1 {
			return true
		}
		rest, ok := bytes.CutPrefix(payload, prefix)
		if !ok {
			return true
		}
		value, start, end, found = rest, s, e, true
		return false
	})
	if walkErr != nil {
		return nil, 0, 0, walkErr
	}
	if !found {
		return nil, 0, 0, ErrMetadataNotFound
	}
	return value, start, end, nil
}
