package hashing

import (
	"fmt"
	"image"

	"github.com/corona10/goimagehash"

	"github.com/bft-labs/keyframer/internal/domain"
)

// bitHasher wraps the 64-bit goimagehash algorithms.
type bitHasher struct {
	method domain.Method
}

func (h bitHasher) Method() domain.Method { return h.method }

func (h bitHasher) Compute(img image.Image) (domain.HashValue, error) {
	if err := checkImage(img); err != nil {
		return domain.HashValue{}, err
	}

	var (
		ih  *goimagehash.ImageHash
		err error
	)
	switch h.method {
	case domain.MethodAverage:
		ih, err = goimagehash.AverageHash(img)
	case domain.MethodDifference:
		ih, err = goimagehash.DifferenceHash(img)
	case domain.MethodPerceptual:
		ih, err = goimagehash.PerceptionHash(img)
	default:
		return domain.HashValue{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedMethod, h.method)
	}
	if err != nil {
		return domain.HashValue{}, fmt.Errorf("%s hash: %w", h.method, err)
	}
	return domain.NewBitHash(h.method, ih.GetHash()), nil
}
