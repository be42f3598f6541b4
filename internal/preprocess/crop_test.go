package preprocess

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/bft-labs/keyframer/internal/domain"
)

func TestResolveCropping(t *testing.T) {
	tests := []struct {
		in          int
		wantPercent int
		wantFrac    float64
		wantSubst   bool
	}{
		{in: 0, wantPercent: 0, wantFrac: 0},
		{in: 25, wantPercent: 25, wantFrac: 0.25},
		{in: 49, wantPercent: 49, wantFrac: 0.49},
		{in: 50, wantPercent: 33, wantFrac: 0.33, wantSubst: true},
		{in: 60, wantPercent: 33, wantFrac: 0.33, wantSubst: true},
		{in: -1, wantPercent: 33, wantFrac: 0.33, wantSubst: true},
	}

	for _, tt := range tests {
		c, subst := ResolveCropping(tt.in)
		if c.Percent != tt.wantPercent || c.Fraction != tt.wantFrac || subst != tt.wantSubst {
			t.Errorf("ResolveCropping(%d) = %+v, %v; want %d, %v, %v", tt.in, c, subst, tt.wantPercent, tt.wantFrac, tt.wantSubst)
		}
	}
}

func TestValidateFraction(t *testing.T) {
	for _, f := range []float64{-0.1, 0.5, 0.9} {
		if err := ValidateFraction(f); !errors.Is(err, domain.ErrInvalidCropping) {
			t.Errorf("ValidateFraction(%v) = %v, want ErrInvalidCropping", f, err)
		}
	}
	for _, f := range []float64{0, 0.33, 0.49} {
		if err := ValidateFraction(f); err != nil {
			t.Errorf("ValidateFraction(%v) = %v", f, err)
		}
	}
}

func TestCrop_Rows(t *testing.T) {
	tests := []struct {
		name       string
		height     int
		fraction   float64
		wantTop    int
		wantHeight int
	}{
		{name: "quarter on 100 rows", height: 100, fraction: 0.25, wantTop: 25, wantHeight: 50},
		{name: "no cropping", height: 100, fraction: 0, wantTop: 0, wantHeight: 100},
		{name: "odd height", height: 7, fraction: 0.25, wantTop: 1, wantHeight: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, 10, tt.height))
			out, err := Crop(img, tt.fraction)
			if err != nil {
				t.Fatalf("Crop: %v", err)
			}
			b := out.Bounds()
			if b.Min.Y != tt.wantTop || b.Dy() != tt.wantHeight || b.Dx() != 10 {
				t.Errorf("bounds = %v, want top %d height %d width 10", b, tt.wantTop, tt.wantHeight)
			}
		})
	}
}

// opaque hides SubImage so Crop must copy.
type opaque struct{ image.Image }

func TestCrop_CopiesWithoutSubImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 10))
	src.SetRGBA(1, 3, color.RGBA{R: 200, A: 255})

	out, err := Crop(opaque{src}, 0.3)
	if err != nil {
		t.Fatalf("Crop: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 4, 4) {
		t.Fatalf("bounds = %v", out.Bounds())
	}
	r, _, _, _ := out.At(1, 0).RGBA()
	if r>>8 != 200 {
		t.Errorf("pixel (1,0) red = %d, want 200", r>>8)
	}
}

func TestCrop_DoesNotMutateInput(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 10))
	if _, err := Crop(src, 0.2); err != nil {
		t.Fatalf("Crop: %v", err)
	}
	if src.Bounds() != image.Rect(0, 0, 4, 10) {
		t.Errorf("input bounds changed to %v", src.Bounds())
	}
}

func TestCrop_InvalidFraction(t *testing.T) {
	_, err := Crop(image.NewRGBA(image.Rect(0, 0, 4, 4)), 0.5)
	if !errors.Is(err, domain.ErrInvalidCropping) {
		t.Errorf("error = %v, want ErrInvalidCropping", err)
	}
}
