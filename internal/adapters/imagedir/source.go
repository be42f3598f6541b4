package imagedir

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bft-labs/keyframer/internal/domain"
	"github.com/bft-labs/keyframer/internal/ports"
)

// Opener implements ports.FrameSourceOpener for frame directories.
type Opener struct{}

// NewOpener creates an Opener.
func NewOpener() *Opener { return &Opener{} }

// Open lists the images in dir. The first image sets the source dimensions.
func (Opener) Open(ctx context.Context, dir string) (ports.FrameSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, dir)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceNotReadable, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no frame images in %s", domain.ErrSourceNotReadable, dir)
	}
	sort.Strings(files)

	src := &Source{files: files}
	first, err := DecodeFile(files[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceNotReadable, err)
	}
	src.width, src.height = first.Bounds().Dx(), first.Bounds().Dy()
	src.pending = first
	return src, nil
}

// Source yields one frame per image file.
type Source struct {
	files         []string
	next          int
	width, height int
	pending       image.Image
	closed        bool
}

// FrameCount returns the number of image files.
func (s *Source) FrameCount() int { return len(s.files) }

// Dimensions returns the size of the first image.
func (s *Source) Dimensions() (int, int) { return s.width, s.height }

// Next decodes the next image.
func (s *Source) Next(ctx context.Context) (domain.Frame, error) {
	if s.closed || s.next >= len(s.files) {
		return domain.Frame{}, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return domain.Frame{}, err
	}

	img := s.pending
	s.pending = nil
	if img == nil {
		var err error
		img, err = DecodeFile(s.files[s.next])
		if err != nil {
			s.closed = true
			return domain.Frame{}, fmt.Errorf("frame %d: %w", s.next, err)
		}
	}
	f := domain.Frame{Index: s.next, Image: img}
	s.next++
	return f, nil
}

// Close stops the source.
func (s *Source) Close() error {
	s.closed = true
	s.pending = nil
	return nil
}
