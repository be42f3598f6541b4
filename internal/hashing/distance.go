package hashing

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/bft-labs/keyframer/internal/domain"
)

// Distance returns the distance between two hashes of the same method:
// Hamming distance for bit methods, Euclidean distance for feature vectors.
// Hashes of different methods yield domain.ErrMethodMismatch.
func Distance(a, b domain.HashValue) (float64, error) {
	if a.Method != b.Method {
		return 0, fmt.Errorf("%w: %s vs %s", domain.ErrMethodMismatch, a.Method, b.Method)
	}
	if a.Method.IsBitHash() {
		return float64(bits.OnesCount64(a.Bits ^ b.Bits)), nil
	}
	if a.Method != domain.MethodColorMoment {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnsupportedMethod, a.Method)
	}
	if len(a.Features) != len(b.Features) {
		return 0, fmt.Errorf("%w: feature length %d vs %d", domain.ErrInvalidHash, len(a.Features), len(b.Features))
	}
	var sum float64
	for i := range a.Features {
		d := a.Features[i] - b.Features[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}
