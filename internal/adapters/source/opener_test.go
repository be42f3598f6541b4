package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/keyframer/internal/domain"
	"github.com/bft-labs/keyframer/internal/ports"
)

type recordingOpener struct{ opened []string }

func (r *recordingOpener) Open(_ context.Context, path string) (ports.FrameSource, error) {
	r.opened = append(r.opened, path)
	return nil, nil
}

func TestOpener_Dispatch(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	video, frames := &recordingOpener{}, &recordingOpener{}
	o := Opener{Video: video, Frames: frames}

	_, err := o.Open(context.Background(), file)
	require.NoError(t, err)
	_, err = o.Open(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{file}, video.opened)
	assert.Equal(t, []string{dir}, frames.opened)
}

func TestOpener_Missing(t *testing.T) {
	o := Opener{Video: &recordingOpener{}, Frames: &recordingOpener{}}
	_, err := o.Open(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"))
	require.ErrorIs(t, err, domain.ErrSourceNotFound)
}
