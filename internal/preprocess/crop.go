// Package preprocess prepares frames for hashing.
package preprocess

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/bft-labs/keyframer/internal/domain"
)

// DefaultCroppingPercent replaces any cropping percentage outside [0, 50).
const DefaultCroppingPercent = 33

// Cropping is a resolved vertical cropping setting.
type Cropping struct {
	// Percent is the integer percentage written to the store
	Percent int

	// Fraction is Percent/100 rounded to two decimals
	Fraction float64
}

// ResolveCropping validates a cropping percentage. Values outside [0, 50) are
// replaced with DefaultCroppingPercent; substituted reports the replacement.
func ResolveCropping(percent int) (c Cropping, substituted bool) {
	if percent < 0 || percent >= 50 {
		percent = DefaultCroppingPercent
		substituted = true
	}
	return Cropping{Percent: percent, Fraction: round2(float64(percent) / 100)}, substituted
}

// ValidateFraction rejects fractions outside [0, 0.5).
func ValidateFraction(f float64) error {
	if math.IsNaN(f) || f < 0 || f >= 0.5 {
		return fmt.Errorf("%w: %v not in [0, 0.5)", domain.ErrInvalidCropping, f)
	}
	return nil
}

// Crop removes floor(h*fraction) rows from the top and keeps rows up to
// floor(h - h*fraction), at full width. The input is never mutated; a
// SubImage view is returned when the image supports it.
func Crop(img image.Image, fraction float64) (image.Image, error) {
	if err := ValidateFraction(fraction); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, domain.ErrEmptyFrame
	}
	b := img.Bounds()
	h := float64(b.Dy())
	top := b.Min.Y + int(h*fraction)
	bottom := b.Min.Y + int(h-h*fraction)
	if bottom <= top {
		return nil, fmt.Errorf("%w: cropping %v leaves no rows of %d", domain.ErrEmptyFrame, fraction, b.Dy())
	}
	r := image.Rect(b.Min.X, top, b.Max.X, bottom)

	if sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(r), nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
