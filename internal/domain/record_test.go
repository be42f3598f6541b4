package domain

import (
	"encoding/json"
	"testing"
)

func TestSourceKey(t *testing.T) {
	tests := map[string]string{
		"/videos/clip.mp4":       "clip",
		"clip":                   "clip",
		"dir/archive.tar.gz":     "archive.tar",
		"/frames/holiday-2019/":  "holiday-2019",
		"relative/Interview.MKV": "Interview",
	}
	for in, want := range tests {
		if got := SourceKey(in); got != want {
			t.Errorf("SourceKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVideoEntry_JSONRoundTrip(t *testing.T) {
	entry := VideoEntry{
		Method:     MethodAverage,
		Distance:   5,
		Cropping:   33,
		FrameCount: 120,
		Keyframes: []KeyframeEntry{
			{Index: 0, Hash: NewBitHash(MethodAverage, 0x10)},
			{Index: 47, Hash: NewBitHash(MethodAverage, 0xff00)},
		},
	}
	data, err := json.Marshal(StoreDocument{"clip": entry})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var doc StoreDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	got, ok := doc["clip"]
	if !ok {
		t.Fatalf("key clip missing in %s", data)
	}
	if got.Method != entry.Method || got.Distance != entry.Distance || got.Cropping != entry.Cropping || got.FrameCount != entry.FrameCount {
		t.Errorf("entry = %+v, want %+v", got, entry)
	}
	if len(got.Keyframes) != 2 {
		t.Fatalf("len(Keyframes) = %d, want 2", len(got.Keyframes))
	}
	for i := range entry.Keyframes {
		if got.Keyframes[i].Index != entry.Keyframes[i].Index || !got.Keyframes[i].Hash.Equal(entry.Keyframes[i].Hash) {
			t.Errorf("keyframe %d = %+v, want %+v", i, got.Keyframes[i], entry.Keyframes[i])
		}
	}
}

func TestVideoEntry_UnmarshalUnknownMethod(t *testing.T) {
	var e VideoEntry
	err := json.Unmarshal([]byte(`{"method":"whash","distance":1,"cropping":0,"frame_count":1,"keyframes":[]}`), &e)
	if err == nil {
		t.Fatal("expected error for unknown method")
	}
}

func TestVideoEntry_Records(t *testing.T) {
	entry := VideoEntry{
		Method:   MethodDifference,
		Distance: 7,
		Cropping: 25,
		Keyframes: []KeyframeEntry{
			{Index: 3, Hash: NewBitHash(MethodDifference, 1)},
		},
	}
	recs := entry.Records("talk")
	if len(recs) != 1 {
		t.Fatalf("len = %d, want 1", len(recs))
	}
	r := recs[0]
	if r.SourceKey != "talk" || r.FrameIndex != 3 || r.Method != MethodDifference || r.Threshold != 7 || r.Cropping != 0.25 {
		t.Errorf("record = %+v", r)
	}
}
