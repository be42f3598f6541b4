package ports

import (
	"context"
	"image"

	"github.com/bft-labs/keyframer/internal/domain"
)

// KeyframeImageWriter saves keyframe images for inspection.
type KeyframeImageWriter interface {
	// WriteKeyframe encodes img and returns the written path.
	// The file is named after the hash.
	WriteKeyframe(ctx context.Context, hash domain.HashValue, img image.Image) (string, error)
}
