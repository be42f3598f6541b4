// Package ffmpeg decodes video files into frames by piping raw RGB output
// from an ffmpeg subprocess.
package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/bft-labs/keyframer/internal/domain"
	"github.com/bft-labs/keyframer/internal/ports"
)

const bytesPerPixel = 3

// Config locates the ffmpeg binaries. Empty paths are resolved from PATH.
type Config struct {
	FFmpegPath  string
	FFprobePath string
}

// Opener implements ports.FrameSourceOpener for video files.
type Opener struct {
	ffmpeg  string
	ffprobe string
}

// NewOpener creates an opener using cfg.
func NewOpener(cfg Config) *Opener {
	o := &Opener{ffmpeg: cfg.FFmpegPath, ffprobe: cfg.FFprobePath}
	if o.ffmpeg == "" {
		o.ffmpeg = "ffmpeg"
	}
	if o.ffprobe == "" {
		o.ffprobe = "ffprobe"
	}
	return o
}

// Open probes the video and starts the decoder.
func (o *Opener) Open(ctx context.Context, path string) (ports.FrameSource, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceNotReadable, err)
	}

	ffmpegPath, err := exec.LookPath(o.ffmpeg)
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not found in PATH: %v", domain.ErrSourceNotReadable, err)
	}
	ffprobePath, err := exec.LookPath(o.ffprobe)
	if err != nil {
		return nil, fmt.Errorf("%w: ffprobe not found in PATH: %v", domain.ErrSourceNotReadable, err)
	}

	p, err := runProbe(ctx, ffprobePath, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrSourceNotReadable, path, err)
	}

	cmd := exec.Command(ffmpegPath,
		"-v", "error",
		"-nostdin",
		"-i", path,
		"-map", "0:v:0",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	)
	stderr := &limitedBuffer{max: 4 << 10}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceNotReadable, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg: %v", domain.ErrSourceNotReadable, err)
	}

	return &Source{
		cmd:    cmd,
		stdout: bufio.NewReaderSize(stdout, p.Width*p.Height*bytesPerPixel),
		stderr: stderr,
		probe:  p,
	}, nil
}

// Source streams frames from a running ffmpeg process.
type Source struct {
	cmd    *exec.Cmd
	stdout *bufio.Reader
	stderr *limitedBuffer
	probe  probe

	next      int
	done      bool
	closeOnce sync.Once
	closeErr  error
}

// FrameCount returns the container's frame count, 0 if unknown.
func (s *Source) FrameCount() int { return s.probe.FrameCount }

// Dimensions returns the frame size.
func (s *Source) Dimensions() (int, int) { return s.probe.Width, s.probe.Height }

// Next reads one frame from the pipe.
func (s *Source) Next(ctx context.Context) (domain.Frame, error) {
	if s.done {
		return domain.Frame{}, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return domain.Frame{}, err
	}

	img := image.NewRGBA(image.Rect(0, 0, s.probe.Width, s.probe.Height))
	row := make([]byte, s.probe.Width*bytesPerPixel)
	for y := 0; y < s.probe.Height; y++ {
		if _, err := io.ReadFull(s.stdout, row); err != nil {
			s.done = true
			if errors.Is(err, io.EOF) && y == 0 {
				return domain.Frame{}, s.finish()
			}
			return domain.Frame{}, fmt.Errorf("%w: frame %d truncated: %v", domain.ErrDecode, s.next, err)
		}
		off := y * img.Stride
		for x := 0; x < s.probe.Width; x++ {
			img.Pix[off+x*4] = row[x*3]
			img.Pix[off+x*4+1] = row[x*3+1]
			img.Pix[off+x*4+2] = row[x*3+2]
			img.Pix[off+x*4+3] = 0xff
		}
	}

	f := domain.Frame{Index: s.next, Image: img}
	s.next++
	return f, nil
}

// finish reaps the process at end of stream. A failing exit is a decode error.
func (s *Source) finish() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.cmd.Wait()
	})
	if s.closeErr != nil {
		return fmt.Errorf("%w: ffmpeg: %v: %s", domain.ErrDecode, s.closeErr, strings.TrimSpace(s.stderr.String()))
	}
	return io.EOF
}

// Close kills the decoder if it is still running and reaps it.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		_ = s.cmd.Wait()
	})
	s.done = true
	return nil
}

// limitedBuffer keeps the first max bytes written to it.
type limitedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
