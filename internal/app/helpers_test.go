package app

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/keyframer/internal/domain"
	"github.com/bft-labs/keyframer/internal/ports"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func solid(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, solid(c)))
}

// fakeSource yields fixed images; failAt injects a decode error.
type fakeSource struct {
	images []image.Image
	failAt int
	next   int
	closed bool
}

func (s *fakeSource) FrameCount() int        { return len(s.images) }
func (s *fakeSource) Dimensions() (int, int) { return 16, 12 }
func (s *fakeSource) Close() error           { s.closed = true; return nil }

func (s *fakeSource) Next(ctx context.Context) (domain.Frame, error) {
	if err := ctx.Err(); err != nil {
		return domain.Frame{}, err
	}
	if s.failAt > 0 && s.next == s.failAt {
		return domain.Frame{}, domain.ErrDecode
	}
	if s.next >= len(s.images) {
		return domain.Frame{}, io.EOF
	}
	f := domain.Frame{Index: s.next, Image: s.images[s.next]}
	s.next++
	return f, nil
}

type fakeOpener struct {
	mu      sync.Mutex
	colors  []color.RGBA
	failAt  int
	opened  []string
	sources []*fakeSource
}

func (o *fakeOpener) Open(_ context.Context, path string) (ports.FrameSource, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	src := &fakeSource{failAt: o.failAt}
	for _, c := range o.colors {
		src.images = append(src.images, solid(c))
	}
	o.opened = append(o.opened, path)
	o.sources = append(o.sources, src)
	return src, nil
}

func (o *fakeOpener) openCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.opened)
}

func osMkdir(dir string) error { return os.MkdirAll(dir, 0o755) }
