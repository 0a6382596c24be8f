// Package imagex performs byte-exact metadata surgery on image containers.
//
// Embedding is a pure insertion of a single metadata unit (a PNG iTXt chunk
// or a JPEG APP1 segment); stripping that unit restores the original byte
// sequence bit-for-bit. Pixel data and pre-existing metadata are never
// touched.
package imagex

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/photoseal/internal/common"
)

// Format identifies a supported image container.
type Format int

const (
	FormatUnknown Format = iota
	FormatPNG
	FormatJPEG
)

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	default:
		return "unknown"
	}
}

var (
	// ErrMetadataNotFound means the container carries no metadata unit
	// under the requested keyword.
	ErrMetadataNotFound = errors.New("metadata not found")

	// ErrMetadataExists means the container already carries a metadata
	// unit under the keyword; re-embedding is not an in-place update.
	ErrMetadataExists = errors.New("metadata already present")
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// DetectFormat sniffs the container type from its magic bytes.
func DetectFormat(data []byte) Format {
	if bytes.HasPrefix(data, pngMagic) {
		return FormatPNG
	}
	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8 {
		return FormatJPEG
	}
	return FormatUnknown
}

// InsertMetadata returns a copy of data with value stored under keyword. The
// input is never modified. Fails if the format is unsupported, the container
// cannot be walked, or the keyword is already present.
func InsertMetadata(data []byte, keyword string, value []byte) ([]byte, error) {
	switch DetectFormat(data) {
	case FormatPNG:
		return pngInsert(data, keyword, value)
	case FormatJPEG:
		return jpegInsert(data, keyword, value)
	default:
		return nil, common.ErrUnsupportedFormat
	}
}

// ExtractMetadata returns the value stored under keyword.
func ExtractMetadata(data []byte, keyword string) ([]byte, error) {
	switch DetectFormat(data) {
	case FormatPNG:
		value, _, _, err := pngFind(data, keyword)
		return value, err
	case FormatJPEG:
		value, _, _, err := jpegFind(data, keyword)
		return value, err
	default:
		return nil, common.ErrUnsupportedFormat
	}
}

// StripMetadata returns a copy of data with the metadata unit under keyword
// removed. When the unit was produced by InsertMetadata, the result equals
// the pre-insertion bytes exactly.
func StripMetadata(data []byte, keyword string) ([]byte, error) {
	var start, end int
	var err error

	switch DetectFormat(data) {
	case FormatPNG:
		_, start, end, err = pngFind(data, keyword)
	case FormatJPEG:
		_, start, end, err = jpegFind(data, keyword)
	default:
		return nil, common.ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(data)-(end-start))
	out = append(out, data[:start]...)
	out = append(out, data[end:]...)
	return out, nil
}

func corruptErr(format Format, detail string) error {
	return fmt.Errorf("corrupt %s container: %s", format, detail)
}
