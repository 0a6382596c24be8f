package imagex

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// PNG layout: 8-byte signature, then chunks of
// length(4, big-endian) | type(4) | data | crc(4, over type+data).
//
// The metadata unit is an iTXt chunk (uncompressed, no language tag) whose
// keyword selects it. It is inserted immediately after IHDR, which is legal
// placement for textual chunks and keeps the insertion point deterministic.

const (
	pngHeaderSize    = 8
	pngChunkOverhead = 12 // length + type + crc
)

// pngWalk calls fn for every chunk with the chunk type and the absolute
// start/end offsets of the whole chunk. fn returning false stops the walk.
func pngWalk(data []byte, fn func(typ string, start, end int) bool) error {
	off := pngHeaderSize
	for off < len(data) {
		if off+pngChunkOverhead > len(data) {
			return corruptErr(FormatPNG, "truncated chunk header")
		}
		length := int(binary.BigEndian.Uint32(data[off:]))
		end := off + pngChunkOverhead + length
		if length < 0 || end > len(data) {
			return corruptErr(FormatPNG, "chunk length exceeds container")
		}
		typ := string(data[off+4 : off+8])
		if !fn(typ, off, end) {
			return nil
		}
		if typ == "IEND" {
			return nil
		}
		off = end
	}
	return corruptErr(FormatPNG, "missing IEND")
}

// pngEncodeITXT builds a complete iTXt chunk for keyword and text.
func pngEncodeITXT(keyword string, text []byte) []byte {
	var payload bytes.Buffer
	payload.WriteString(keyword)
	payload.WriteByte(0) // keyword terminator
	payload.WriteByte(0) // compression flag: uncompressed
	payload.WriteByte(0) // compression method
	payload.WriteByte(0) // empty language tag, terminated
	payload.WriteByte(0) // empty translated keyword, terminated
	payload.Write(text)

	body := payload.Bytes()
	chunk := make([]byte, pngChunkOverhead+len(body))
	binary.BigEndian.PutUint32(chunk, uint32(len(body)))
	copy(chunk[4:8], "iTXt")
	copy(chunk[8:], body)
	crc := crc32.ChecksumIEEE(chunk[4 : 8+len(body)])
	binary.BigEndian.PutUint32(chunk[8+len(body):], crc)
	return chunk
}

// pngDecodeITXT returns the text of an iTXt chunk body if its keyword
// matches, or ok=false otherwise.
func pngDecodeITXT(body []byte, keyword string) (text []byte, ok bool) {
	rest, found := bytes.CutPrefix(body, append([]byte(keyword), 0))
	if !found {
		return nil, false
	}
	// compression flag + method, then two zero-terminated strings.
	if len(rest) < 2 {
		return nil, false
	}
	if rest[0] != 0 { // compressed text is not ours
		return nil, false
	}
	rest = rest[2:]
	for i := 0; i < 2; i++ {
		idx := bytes.IndexByte(rest, 0)
		if idx < 0 {
			return nil, false
		}
		rest = rest[idx+1:]
	}
	return rest, true
}

func pngInsert(data []byte, keyword string, value []byte) ([]byte, error) {
	if _, _, _, err := pngFind(data, keyword); err == nil {
		return nil, ErrMetadataExists
	} else if !errors.Is(err, ErrMetadataNotFound) {
		return nil, err
	}

	insertAt := -1
	err := pngWalk(data, func(typ string, start, end int) bool {
		if typ == "IHDR" {
			insertAt = end
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if insertAt < 0 {
		return nil, corruptErr(FormatPNG, "missing IHDR")
	}

	chunk := pngEncodeITXT(keyword, value)
	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:insertAt]...)
	out = append(out, chunk...)
	out = append(out, data[insertAt:]...)
	return out, nil
}

// pngFind locates the iTXt chunk for keyword, validates its CRC and returns
// the text plus the chunk's byte range.
func pngFind(data []byte, keyword string) (value []byte, start, end int, err error) {
	found := false
	walkErr := pngWalk(data, func(typ string, s, e int) bool {
		if typ != "iTXt" {
			return true
		}
		body := data[s+8 : e-4]
		text, ok := pngDecodeITXT(body, keyword)
		if !ok {
			return true
		}
		// A chunk whose CRC does not match its content is treated as
		// absent; a damaged record must not be presented as evidence.
		crc := binary.BigEndian.Uint32(data[e-4 : e])
		if crc32.ChecksumIEEE(data[s+4:e-4]) != crc {
			return true
		}
		value, start, end, found = text, s, e, true
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
