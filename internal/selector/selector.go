// Package selector picks visually distinct keyframes from a stream of frame
// hashes.
//
// Selection is a single greedy pass: the first frame becomes the anchor and
// each following frame is compared with it. When the distance reaches the
// threshold the anchor is emitted and the frame becomes the new anchor.
// The final anchor is emitted only when Options.FlushTrailing is set.
package selector

import (
	"errors"
	"fmt"
	"image"

	"github.com/bft-labs/keyframer/internal/domain"
	"github.com/bft-labs/keyframer/internal/hashing"
)

// ErrOutOfOrder is returned when candidate indices do not strictly increase.
var ErrOutOfOrder = errors.New("selector: candidate index not increasing")

// DistanceFunc measures the distance between two hashes.
type DistanceFunc func(a, b domain.HashValue) (float64, error)

// Candidate is a frame index paired with its hash.
type Candidate struct {
	Index int
	Hash  domain.HashValue
}

// State is the accumulator threaded through Step.
// A State returned by Step never shares its Emitted backing array with the input.
type State struct {
	// Anchor is the current window's reference frame, nil before the first candidate
	Anchor *Candidate

	// Emitted holds the keyframes selected so far, in index order
	Emitted []Candidate

	// Scanned counts candidates consumed
	Scanned int
}

// Options configures a selection run.
type Options struct {
	// Threshold is the distance at or above which the anchor is emitted
	Threshold float64

	// FlushTrailing emits the final anchor at the end of the sequence
	FlushTrailing bool

	// Distance overrides the hash distance; defaults to hashing.Distance
	Distance DistanceFunc
}

func (o Options) distance() DistanceFunc {
	if o.Distance != nil {
		return o.Distance
	}
	return hashing.Distance
}

// Step folds one candidate into state. It returns the new state and the
// keyframe emitted by this step, if any. A distance error leaves state unchanged.
func Step(state State, c Candidate, threshold float64, dist DistanceFunc) (State, *Candidate, error) {
	if state.Anchor == nil {
		anchor := c
		state.Anchor = &anchor
		state.Scanned++
		return state, nil, nil
	}
	if c.Index <= state.Anchor.Index {
		return state, nil, fmt.Errorf("%w: %d after %d", ErrOutOfOrder, c.Index, state.Anchor.Index)
	}

	d, err := dist(state.Anchor.Hash, c.Hash)
	if err != nil {
		return state, nil, fmt.Errorf("frame %d: %w", c.Index, err)
	}
	state.Scanned++
	if d < threshold {
		return state, nil, nil
	}

	emitted := *state.Anchor
	n := len(state.Emitted)
	state.Emitted = append(state.Emitted[:n:n], emitted)
	anchor := c
	state.Anchor = &anchor
	return state, &emitted, nil
}

// Finish closes the fold and returns the keyframes in index order.
func Finish(state State, opts Options) []Candidate {
	out := make([]Candidate, len(state.Emitted), len(state.Emitted)+1)
	copy(out, state.Emitted)
	if opts.FlushTrailing && state.Anchor != nil {
		out = append(out, *state.Anchor)
	}
	return out
}

// Select runs the fold over a complete candidate sequence.
func Select(candidates []Candidate, opts Options) ([]Candidate, error) {
	dist := opts.distance()
	var (
		state State
		err   error
	)
	for _, c := range candidates {
		state, _, err = Step(state, c, opts.Threshold, dist)
		if err != nil {
			return nil, err
		}
	}
	return Finish(state, opts), nil
}

// Keyframe is a selected candidate with the pixels of its frame.
type Keyframe struct {
	Candidate
	Image image.Image
}

// Selector drives Step over a live frame stream. It keeps the anchor's image
// so an emitted keyframe can be written out; every other frame image is
// released as soon as it has been compared.
type Selector struct {
	opts        Options
	dist        DistanceFunc
	state       State
	anchorImage image.Image
}

// New returns a Selector for opts.
func New(opts Options) *Selector {
	return &Selector{opts: opts, dist: opts.distance()}
}

// Push feeds one frame. It returns the keyframe emitted by this frame, if any.
func (s *Selector) Push(index int, hash domain.HashValue, img image.Image) (*Keyframe, error) {
	prevImage := s.anchorImage
	state, emitted, err := Step(s.state, Candidate{Index: index, Hash: hash}, s.opts.Threshold, s.dist)
	if err != nil {
		return nil, err
	}
	anchorChanged := s.state.Anchor == nil || emitted != nil
	s.state = state
	if anchorChanged {
		s.anchorImage = img
	}
	if emitted == nil {
		return nil, nil
	}
	return &Keyframe{Candidate: *emitted, Image: prevImage}, nil
}

// Scanned returns the number of frames consumed.
func (s *Selector) Scanned() int { return s.state.Scanned }

// Finish closes the selection. The second result is the trailing anchor when
// FlushTrailing is set, nil otherwise.
func (s *Selector) Finish() ([]Candidate, *Keyframe) {
	out := Finish(s.state, s.opts)
	var trailing *Keyframe
	if s.opts.FlushTrailing && s.state.Anchor != nil {
		trailing = &Keyframe{Candidate: *s.state.Anchor, Image: s.anchorImage}
	}
	s.anchorImage = nil
	return out, trailing
}
