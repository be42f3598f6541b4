package domain

import "image"

// Frame represents a single decoded video frame.
// The pixel buffer is owned transiently: it is hashed, optionally kept while
// the frame is the selection anchor, and then dropped.
type Frame struct {
	// Index is the 0-based position of the frame in capture order
	Index int

	// Image holds the decoded pixels
	Image image.Image
}

// Width returns the frame width in pixels.
func (f Frame) Width() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dx()
}

// Height returns the frame height in pixels.
func (f Frame) Height() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dy()
}

// Empty reports whether the frame has no pixels.
func (f Frame) Empty() bool {
	return f.Width() <= 0 || f.Height() <= 0
}
