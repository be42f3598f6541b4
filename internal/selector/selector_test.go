package selector

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/keyframer/internal/domain"
)

// absDiff treats hash bits as plain integer scores.
func absDiff(a, b domain.HashValue) (float64, error) {
	return math.Abs(float64(a.Bits) - float64(b.Bits)), nil
}

func candidates(scores ...uint64) []Candidate {
	out := make([]Candidate, len(scores))
	for i, s := range scores {
		out[i] = Candidate{Index: i, Hash: domain.NewBitHash(domain.MethodAverage, s)}
	}
	return out
}

func indices(cs []Candidate) []int {
	out := make([]int, len(cs))
	for i, c := range cs {
		out[i] = c.Index
	}
	return out
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name      string
		scores    []uint64
		threshold float64
		flush     bool
		want      []int
	}{
		{name: "empty", scores: nil, threshold: 5, want: []int{}},
		{name: "single frame without flush", scores: []uint64{7}, threshold: 5, want: []int{}},
		{name: "single frame with flush", scores: []uint64{7}, threshold: 5, flush: true, want: []int{0}},
		{name: "scene change", scores: []uint64{10, 10, 10, 50, 50}, threshold: 5, want: []int{0}},
		{name: "scene change with flush", scores: []uint64{10, 10, 10, 50, 50}, threshold: 5, flush: true, want: []int{0, 3}},
		{name: "zero threshold", scores: []uint64{1, 1, 2, 2, 3}, threshold: 0, want: []int{0, 1, 2, 3}},
		{name: "tie emits", scores: []uint64{0, 5, 10}, threshold: 5, want: []int{0, 1}},
		{name: "drift below threshold", scores: []uint64{0, 4, 8, 9}, threshold: 5, want: []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Select(candidates(tt.scores...), Options{
				Threshold:     tt.threshold,
				FlushTrailing: tt.flush,
				Distance:      absDiff,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, indices(got))
		})
	}
}

func TestSelect_TrailingAnchorNotFlushedByDefault(t *testing.T) {
	got, err := Select(candidates(10, 10, 10, 50, 50), Options{Threshold: 5, Distance: absDiff})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, uint64(10), got[0].Hash.Bits)
	for _, c := range got {
		assert.NotEqual(t, 3, c.Index, "frame 3 must not be auto-flushed")
	}
}

func TestSelect_StrictlyIncreasing(t *testing.T) {
	scores := []uint64{0, 9, 1, 30, 2, 2, 60, 61, 0, 100}
	got, err := Select(candidates(scores...), Options{Threshold: 8, FlushTrailing: true, Distance: absDiff})
	require.NoError(t, err)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].Index, got[i].Index)
	}
}

func TestSelect_Idempotent(t *testing.T) {
	in := candidates(3, 40, 41, 90, 10, 12)
	opts := Options{Threshold: 5, Distance: absDiff}

	a, err := Select(in, opts)
	require.NoError(t, err)
	b, err := Select(in, opts)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSelect_MethodMismatchAborts(t *testing.T) {
	in := []Candidate{
		{Index: 0, Hash: domain.NewBitHash(domain.MethodAverage, 1)},
		{Index: 1, Hash: domain.NewBitHash(domain.MethodPerceptual, 1)},
	}
	_, err := Select(in, Options{Threshold: 1})
	require.ErrorIs(t, err, domain.ErrMethodMismatch)
}

func TestStep_OutOfOrder(t *testing.T) {
	state, _, err := Step(State{}, Candidate{Index: 4}, 1, absDiff)
	require.NoError(t, err)
	_, _, err = Step(state, Candidate{Index: 4}, 1, absDiff)
	require.ErrorIs(t, err, ErrOutOfOrder)
}

func TestStep_DoesNotAliasPreviousState(t *testing.T) {
	in := candidates(0, 10, 20)
	var s0 State
	s1, _, _ := Step(s0, in[0], 5, absDiff)
	s2, e, err := Step(s1, in[1], 5, absDiff)
	require.NoError(t, err)
	require.NotNil(t, e)

	// branching from s2 twice must not overwrite either branch
	a, _, _ := Step(s2, in[2], 5, absDiff)
	alt := s2
	alt.Anchor = &Candidate{Index: 1, Hash: domain.NewBitHash(domain.MethodAverage, 77)}
	b, _, _ := Step(alt, Candidate{Index: 2, Hash: domain.NewBitHash(domain.MethodAverage, 0)}, 5, absDiff)
	assert.Equal(t, uint64(0), a.Emitted[0].Hash.Bits)
	assert.Equal(t, uint64(10), a.Emitted[1].Hash.Bits)
	assert.Equal(t, uint64(77), b.Emitted[1].Hash.Bits)
	assert.Len(t, s2.Emitted, 1)
	assert.Equal(t, 3, a.Scanned)
}

func TestSelector_KeepsAnchorImage(t *testing.T) {
	imgs := []image.Image{
		image.NewGray(image.Rect(0, 0, 1, 1)),
		image.NewGray(image.Rect(0, 0, 2, 2)),
		image.NewGray(image.Rect(0, 0, 3, 3)),
		image.NewGray(image.Rect(0, 0, 4, 4)),
	}
	s := New(Options{Threshold: 5, FlushTrailing: true, Distance: absDiff})

	var emitted []*Keyframe
	for i, score := range []uint64{10, 11, 50, 51} {
		k, err := s.Push(i, domain.NewBitHash(domain.MethodAverage, score), imgs[i])
		require.NoError(t, err)
		if k != nil {
			emitted = append(emitted, k)
		}
	}
	require.Len(t, emitted, 1)
	assert.Equal(t, 0, emitted[0].Index)
	assert.Same(t, imgs[0], emitted[0].Image)

	keyframes, trailing := s.Finish()
	assert.Equal(t, []int{0, 2}, indices(keyframes))
	require.NotNil(t, trailing)
	assert.Equal(t, 2, trailing.Index)
	assert.Same(t, imgs[2], trailing.Image)
	assert.Equal(t, 4, s.Scanned())
}

func TestSelector_NoTrailingWithoutFlush(t *testing.T) {
	s := New(Options{Threshold: 5, Distance: absDiff})
	_, err := s.Push(0, domain.NewBitHash(domain.MethodAverage, 1), nil)
	require.NoError(t, err)

	keyframes, trailing := s.Finish()
	assert.Empty(t, keyframes)
	assert.Nil(t, trailing)
}
