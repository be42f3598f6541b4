package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// KeyframeRecord is one persisted keyframe of one video.
// Method, Threshold and Cropping are shared by all records of a video.
type KeyframeRecord struct {
	// SourceKey is the video's base filename without extension
	SourceKey string

	// FrameIndex is the keyframe's original 0-based frame index
	FrameIndex int

	// Hash is the keyframe's perceptual hash
	Hash HashValue

	// Method is the hash method that produced Hash
	Method Method

	// Threshold is the selection distance threshold
	Threshold float64

	// Cropping is the vertical cropping fraction in [0, 0.5)
	Cropping float64
}

// KeyframeEntry is the serialized form of one keyframe inside a VideoEntry.
type KeyframeEntry struct {
	Index int       `json:"index"`
	Hash  HashValue `json:"hash"`
}

// VideoEntry holds a video's keyframes together with the parameters they were
// selected with. Parameters are stored once per video.
type VideoEntry struct {
	Method     Method          `json:"method"`
	Distance   float64         `json:"distance"`
	Cropping   int             `json:"cropping"`
	FrameCount int             `json:"frame_count"`
	Keyframes  []KeyframeEntry `json:"keyframes"`
}

// StoreDocument maps a source key to its video entry.
// A store file written by keyframer holds exactly one key.
type StoreDocument map[string]VideoEntry

// UnmarshalJSON decodes the entry, interpreting each hash with the entry's method.
func (e *VideoEntry) UnmarshalJSON(b []byte) error {
	var wire struct {
		Method     string  `json:"method"`
		Distance   float64 `json:"distance"`
		Cropping   int     `json:"cropping"`
		FrameCount int     `json:"frame_count"`
		Keyframes  []struct {
			Index int             `json:"index"`
			Hash  json.RawMessage `json:"hash"`
		} `json:"keyframes"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	m, err := ParseMethod(wire.Method)
	if err != nil {
		return err
	}
	entry := VideoEntry{
		Method:     m,
		Distance:   wire.Distance,
		Cropping:   wire.Cropping,
		FrameCount: wire.FrameCount,
		Keyframes:  make([]KeyframeEntry, 0, len(wire.Keyframes)),
	}
	for i, k := range wire.Keyframes {
		h, err := DecodeHash(m, k.Hash)
		if err != nil {
			return fmt.Errorf("keyframe %d: %w", i, err)
		}
		entry.Keyframes = append(entry.Keyframes, KeyframeEntry{Index: k.Index, Hash: h})
	}
	*e = entry
	return nil
}

// CroppingFraction converts the stored percentage into a fraction rounded to
// two decimals.
func (e VideoEntry) CroppingFraction() float64 {
	return math.Round(float64(e.Cropping)) / 100
}

// Records expands the entry into keyframe records for the given key.
func (e VideoEntry) Records(key string) []KeyframeRecord {
	out := make([]KeyframeRecord, 0, len(e.Keyframes))
	for _, k := range e.Keyframes {
		out = append(out, KeyframeRecord{
			SourceKey:  key,
			FrameIndex: k.Index,
			Hash:       k.Hash,
			Method:     e.Method,
			Threshold:  e.Distance,
			Cropping:   e.CroppingFraction(),
		})
	}
	return out
}

// Records expands every entry of the document.
func (d StoreDocument) Records() map[string][]KeyframeRecord {
	out := make(map[string][]KeyframeRecord, len(d))
	for key, entry := range d {
		out[key] = entry.Records(key)
	}
	return out
}

// SourceKey derives the store key from a video or image path: the base
// filename with its extension stripped.
func SourceKey(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
