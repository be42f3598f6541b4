package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Method identifies the algorithm that produced a HashValue.
type Method string

const (
	MethodAverage     Method = "average"
	MethodPerceptual  Method = "phash"
	MethodDifference  Method = "dhash"
	MethodColorMoment Method = "color"
)

// ColorMomentFeatures is the length of a color-moment feature vector:
// mean, standard deviation and skewness for six channels.
const ColorMomentFeatures = 18

// Methods lists every supported method in flag/help order.
func Methods() []Method {
	return []Method{MethodAverage, MethodPerceptual, MethodDifference, MethodColorMoment}
}

// ParseMethod converts a tag into a Method.
// Unknown tags are rejected with ErrUnsupportedMethod.
func ParseMethod(tag string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(tag)))
	switch m {
	case MethodAverage, MethodPerceptual, MethodDifference, MethodColorMoment:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, tag)
}

// IsBitHash reports whether the method produces a 64-bit vector compared by
// Hamming distance.
func (m Method) IsBitHash() bool {
	return m == MethodAverage || m == MethodPerceptual || m == MethodDifference
}

func (m Method) String() string { return string(m) }

// HashValue is a perceptual hash tagged with the method that produced it.
// Bit methods use Bits; the color-moment method uses Features.
type HashValue struct {
	Method   Method
	Bits     uint64
	Features []float64
}

// NewBitHash builds a HashValue for a bit-vector method.
func NewBitHash(m Method, bits uint64) HashValue {
	return HashValue{Method: m, Bits: bits}
}

// NewFeatureHash builds a HashValue for a feature-vector method.
// The slice is copied.
func NewFeatureHash(m Method, features []float64) HashValue {
	f := make([]float64, len(features))
	copy(f, features)
	return HashValue{Method: m, Features: f}
}

// String renders the hash in its canonical text form: 16 hex digits for bit
// methods, comma-separated decimals for feature methods.
func (h HashValue) String() string {
	if h.Method.IsBitHash() {
		return fmt.Sprintf("%016x", h.Bits)
	}
	parts := make([]string, len(h.Features))
	for i, f := range h.Features {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// Equal reports whether two hashes have the same method and content.
func (h HashValue) Equal(o HashValue) bool {
	if h.Method != o.Method || h.Bits != o.Bits || len(h.Features) != len(o.Features) {
		return false
	}
	for i := range h.Features {
		if h.Features[i] != o.Features[i] {
			return false
		}
	}
	return true
}

// ParseHash parses the canonical text form of a hash for the given method.
// Bit hashes accept an optional 0x prefix.
func ParseHash(m Method, s string) (HashValue, error) {
	s = strings.TrimSpace(s)
	if m.IsBitHash() {
		hex := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
		if hex == "" || len(hex) > 16 {
			return HashValue{}, fmt.Errorf("%w: %q is not a 64-bit hex value", ErrInvalidHash, s)
		}
		bits, err := strconv.ParseUint(hex, 16, 64)
		if err != nil {
			return HashValue{}, fmt.Errorf("%w: %v", ErrInvalidHash, err)
		}
		return NewBitHash(m, bits), nil
	}
	if m != MethodColorMoment {
		return HashValue{}, fmt.Errorf("%w: %q", ErrUnsupportedMethod, m)
	}
	fields := strings.Split(s, ",")
	if len(fields) != ColorMomentFeatures {
		return HashValue{}, fmt.Errorf("%w: want %d features, got %d", ErrInvalidHash, ColorMomentFeatures, len(fields))
	}
	features := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return HashValue{}, fmt.Errorf("%w: feature %d: %v", ErrInvalidHash, i, err)
		}
		features[i] = v
	}
	return HashValue{Method: m, Features: features}, nil
}

// MarshalJSON encodes bit hashes as a hex string and feature hashes as a
// numeric array. The method is stored alongside, not inside, the hash.
func (h HashValue) MarshalJSON() ([]byte, error) {
	if h.Method.IsBitHash() {
		return json.Marshal(h.String())
	}
	if h.Features == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h.Features)
}

// DecodeHash decodes the JSON form of a hash produced by MarshalJSON.
func DecodeHash(m Method, raw json.RawMessage) (HashValue, error) {
	if m.IsBitHash() {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return HashValue{}, fmt.Errorf("%w: %v", ErrInvalidHash, err)
		}
		return ParseHash(m, s)
	}
	if m != MethodColorMoment {
		return HashValue{}, fmt.Errorf("%w: %q", ErrUnsupportedMethod, m)
	}
	var features []float64
	if err := json.Unmarshal(raw, &features); err != nil {
		return HashValue{}, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	if len(features) != ColorMomentFeatures {
		return HashValue{}, fmt.Errorf("%w: want %d features, got %d", ErrInvalidHash, ColorMomentFeatures, len(features))
	}
	return HashValue{Method: m, Features: features}, nil
}
