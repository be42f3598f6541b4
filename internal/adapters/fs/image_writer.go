package fs

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"image"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"github.com/bft-labs/keyframer/internal/domain"
)

// DefaultJPEGQuality is the encoder quality for keyframe images.
const DefaultJPEGQuality = 85

// JPEGImageWriter implements ports.KeyframeImageWriter, writing
// <dir>/<hash>.jpg for each keyframe.
type JPEGImageWriter struct {
	dir     string
	quality int
}

// NewJPEGImageWriter creates a writer into dir. A quality outside 1..100 uses
// DefaultJPEGQuality.
func NewJPEGImageWriter(dir string, quality int) *JPEGImageWriter {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &JPEGImageWriter{dir: dir, quality: quality}
}

// WriteKeyframe encodes img as JPEG, named after the hash.
func (w *JPEGImageWriter) WriteKeyframe(ctx context.Context, hash domain.HashValue, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if img == nil {
		return "", domain.ErrEmptyFrame
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	path := filepath.Join(w.dir, ImageName(hash))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create keyframe image: %w", err)
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: w.quality}); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("encode keyframe image: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// ImageName returns the file name for a keyframe image. Bit hashes use their
// hex form; feature hashes use a 64-bit FNV digest of the vector.
func ImageName(hash domain.HashValue) string {
	if hash.Method.IsBitHash() {
		return hash.String() + ".jpg"
	}
	h := fnv.New64a()
	var buf [8]byte
	for _, f := range hash.Features {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = h.Write(buf[:])
	}
	return fmt.Sprintf("%s-%016x.jpg", hash.Method, h.Sum64())
}
