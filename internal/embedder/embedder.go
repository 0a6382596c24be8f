// Package embedder writes a provenance record into an image container's
// metadata without altering pixel data.
package embedder

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/photoseal/internal/common"
	"github.com/dmitrijs2005/photoseal/internal/imagex"
	"github.com/dmitrijs2005/photoseal/internal/logging"
	"github.com/dmitrijs2005/photoseal/internal/record"
)

type Embedder struct {
	log logging.Logger
}

func New(log logging.Logger) *Embedder {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Embedder{log: log}
}

// Embed returns a new byte sequence carrying the record under the
// PhotoAuthentication metadata namespace. The original bytes are left
// untouched; pre-existing metadata and pixel data are preserved.
//
// Failures wrap common.ErrEmbedFailed. On failure the caller must discard
// the attempt: original bytes without an embedded record are not
// authenticated.
func (e *Embedder) Embed(ctx context.Context, original []byte, rec *record.Record) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: no record", common.ErrEmbedFailed)
	}

	dict, err := rec.MarshalMetadata()
	if err != nil {
		return nil, fmt.Errorf("%w: encoding record: %v", common.ErrEmbedFailed, err)
	}

	out, err := imagex.InsertMetadata(original, record.Namespace, dict)
	if err != nil {
		if errors.Is(err, common.ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%w: %v", common.ErrEmbedFailed, err)
		}
		return nil, fmt.Errorf("%w: inserting metadata: %v", common.ErrEmbedFailed, err)
	}

	e.log.Debug(ctx, "embedded provenance record",
		"format", imagex.DetectFormat(original).String(),
		"in_bytes", len(original),
		"out_bytes", len(out),
	)
	return out, nil
}
