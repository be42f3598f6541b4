package ports

import (
	"context"

	"github.com/bft-labs/keyframer/internal/domain"
)

// FrameSource yields decoded frames of one video in order.
// Implementations are not safe for concurrent use.
type FrameSource interface {
	// FrameCount returns the number of frames reported by the container,
	// or 0 when unknown.
	FrameCount() int

	// Dimensions returns the frame width and height.
	Dimensions() (width, height int)

	// Next returns the next frame.
	// Returns io.EOF after the last frame.
	// Returns an error wrapping domain.ErrDecode when a frame cannot be decoded;
	// the source must not be read further after that.
	Next(ctx context.Context) (domain.Frame, error)

	// Close releases the underlying decoder. Safe to call more than once.
	Close() error
}

// FrameSourceOpener opens frame sources from a path.
type FrameSourceOpener interface {
	// Open returns a source for the video (or frame directory) at path.
	// Returns an error wrapping domain.ErrSourceNotFound if the path does not
	// exist and domain.ErrSourceNotReadable if it cannot be decoded.
	Open(ctx context.Context, path string) (FrameSource, error)
}
