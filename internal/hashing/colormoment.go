package hashing

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/bft-labs/keyframer/internal/domain"
)

const (
	colorMomentSize  = 64
	colorMomentScale = 100
)

// colorMomentHasher computes mean, standard deviation and cube-root skewness
// for R, G, B, Y, Cb and Cr over a 64x64 downsample.
type colorMomentHasher struct{}

func (colorMomentHasher) Method() domain.Method { return domain.MethodColorMoment }

func (colorMomentHasher) Compute(img image.Image) (domain.HashValue, error) {
	if err := checkImage(img); err != nil {
		return domain.HashValue{}, err
	}

	small := image.NewRGBA(image.Rect(0, 0, colorMomentSize, colorMomentSize))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), img, img.Bounds(), draw.Src, nil)

	const n = colorMomentSize * colorMomentSize
	var channels [6][n]float64
	for y := 0; y < colorMomentSize; y++ {
		for x := 0; x < colorMomentSize; x++ {
			c := small.RGBAAt(x, y)
			yy, cb, cr := color.RGBToYCbCr(c.R, c.G, c.B)
			i := y*colorMomentSize + x
			channels[0][i] = float64(c.R) / 255
			channels[1][i] = float64(c.G) / 255
			channels[2][i] = float64(c.B) / 255
			channels[3][i] = float64(yy) / 255
			channels[4][i] = float64(cb) / 255
			channels[5][i] = float64(cr) / 255
		}
	}

	features := make([]float64, 0, domain.ColorMomentFeatures)
	for c := range channels {
		mean, std, skew := moments(channels[c][:])
		features = append(features, mean*colorMomentScale, std*colorMomentScale, skew*colorMomentScale)
	}
	return domain.HashValue{Method: domain.MethodColorMoment, Features: features}, nil
}

func moments(values []float64) (mean, std, skew float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var m2, m3 float64
	for _, v := range values {
		d := v - mean
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= float64(len(values))
	m3 /= float64(len(values))
	return mean, math.Sqrt(m2), math.Cbrt(m3)
}
