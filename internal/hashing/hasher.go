package hashing

import (
	"fmt"
	"image"

	"github.com/bft-labs/keyframer/internal/domain"
)

// Hasher computes perceptual hashes for one method.
type Hasher interface {
	// Method returns the method tag stamped on every computed hash.
	Method() domain.Method

	// Compute hashes img. Returns domain.ErrEmptyFrame for an image without pixels.
	Compute(img image.Image) (domain.HashValue, error)
}

// New returns the hasher for m.
// Unknown methods are rejected with domain.ErrUnsupportedMethod.
func New(m domain.Method) (Hasher, error) {
	switch m {
	case domain.MethodAverage, domain.MethodDifference, domain.MethodPerceptual:
		return bitHasher{method: m}, nil
	case domain.MethodColorMoment:
		return colorMomentHasher{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedMethod, m)
	}
}

// Compute is a convenience wrapper around New and Hasher.Compute.
func Compute(m domain.Method, img image.Image) (domain.HashValue, error) {
	h, err := New(m)
	if err != nil {
		return domain.HashValue{}, err
	}
	return h.Compute(img)
}

func checkImage(img image.Image) error {
	if img == nil {
		return domain.ErrEmptyFrame
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("%w: bounds %v", domain.ErrEmptyFrame, b)
	}
	return nil
}
