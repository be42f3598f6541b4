// Package source selects a frame source adapter for a path.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bft-labs/keyframer/internal/domain"
	"github.com/bft-labs/keyframer/internal/ports"
)

// Opener implements ports.FrameSourceOpener by dispatching directories to
// Frames and regular files to Video.
type Opener struct {
	Video  ports.FrameSourceOpener
	Frames ports.FrameSourceOpener
}

// Open stats path and delegates.
func (o Opener) Open(ctx context.Context, path string) (ports.FrameSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceNotReadable, err)
	}
	next := o.Video
	if info.IsDir() {
		next = o.Frames
	}
	if next == nil {
		return nil, fmt.Errorf("%w: no frame source for %s", domain.ErrSourceNotReadable, path)
	}
	return next.Open(ctx, path)
}
