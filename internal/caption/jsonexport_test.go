package caption

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/capseg/capseg/internal/segment"
)

func TestJSONWrite(t *testing.T) {
	seg := segment.Segment{
		Start:    sec(15.2),
		Duration: sec(3.3),
		Text:     "Hello world",
		Speaker:  "Alice",
		Custom:   map[string]any{"recording_id": "rec-1", "score": 0.87},
	}.WithWords([]segment.AlignmentItem{
		{Symbol: "Hello", Start: sec(15.2), Duration: 450 * time.Millisecond, Confidence: 0.9},
		{Symbol: "world", Start: sec(15.65), Duration: sec(2.85)},
	})

	var buf bytes.Buffer
	if err := (jsonCodec{}).Write(&buf, []segment.Segment{seg}, WriteOptions{}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var out []struct {
		ID          string           `json:"id"`
		RecordingID string           `json:"recording_id"`
		Start       float64          `json:"start"`
		Duration    float64          `json:"duration"`
		Channel     int              `json:"channel"`
		Text        string           `json:"text"`
		Speaker     string           `json:"speaker"`
		Custom      map[string]any   `json:"custom"`
		Alignment   map[string][]any `json:"alignment"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d supervisions", len(out))
	}

	sup := out[0]
	if sup.ID != "seg-0000" {
		t.Errorf("id = %q", sup.ID)
	}
	if sup.RecordingID != "rec-1" {
		t.Errorf("recording_id = %q", sup.RecordingID)
	}
	if sup.Start != 15.2 || sup.Duration != 3.3 {
		t.Errorf("times = %v + %v", sup.Start, sup.Duration)
	}
	if sup.Speaker != "Alice" {
		t.Errorf("speaker = %q", sup.Speaker)
	}
	if sup.Custom["score"] != 0.87 {
		t.Errorf("custom = %v", sup.Custom)
	}

	words := sup.Alignment["word"]
	if len(words) != 2 {
		t.Fatalf("got %d word tuples", len(words))
	}
	first, ok := words[0].([]any)
	if !ok || len(first) != 4 {
		t.Fatalf("tuple shape = %v", words[0])
	}
	if first[0] != "Hello" || first[1] != 15.2 || first[2] != 0.45 || first[3] != 0.9 {
		t.Errorf("first tuple = %v", first)
	}
	// zero confidence serializes as 1
	second := words[1].([]any)
	if second[3] != float64(1) {
		t.Errorf("defaulted confidence = %v", second[3])
	}
}

func TestJSONWriteCustomID(t *testing.T) {
	segs := []segment.Segment{
		{Text: "a", Custom: map[string]any{"id": "utt-7"}},
	}
	var buf bytes.Buffer
	if err := (jsonCodec{}).Write(&buf, segs, WriteOptions{}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	var out []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out[0]["id"] != "utt-7" {
		t.Errorf("id = %v, want utt-7", out[0]["id"])
	}
}
