package resegment

import (
	"strings"
	"testing"
	"time"

	"github.com/capseg/capseg/internal/segment"
)

func sec(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func texts(segs []segment.Segment) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.Text
	}
	return out
}

func TestResplitEventMarkerAndSentences(t *testing.T) {
	r := NewResegmenter()
	in := []segment.Segment{{
		Start:    sec(10),
		Duration: sec(6),
		Text:     "[MUSIC] Welcome back. Today we discuss AI.",
	}}

	out := r.Resplit(in)
	want := []string{"[MUSIC]", "Welcome back.", "Today we discuss AI."}
	got := texts(out)
	if len(got) != len(want) {
		t.Fatalf("got %d units %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("unit %d = %q, want %q", i, got[i], want[i])
		}
	}

	if out[0].Kind != segment.Event {
		t.Errorf("marker unit kind = %q, want event", out[0].Kind)
	}
	if out[1].Kind != segment.Dialogue || out[2].Kind != segment.Dialogue {
		t.Error("dialogue units not classified as dialogue")
	}

	// spans are consecutive, nonoverlapping and cover the original range
	if out[0].Start != sec(10) {
		t.Errorf("first unit starts at %v, want 10s", out[0].Start)
	}
	for i := 1; i < len(out); i++ {
		if out[i].Start != out[i-1].End() {
			t.Errorf("unit %d start %v != previous end %v", i, out[i].Start, out[i-1].End())
		}
	}
	if out[len(out)-1].End() != sec(16) {
		t.Errorf("last unit ends at %v, want 16s", out[len(out)-1].End())
	}

	if err := segment.Validate(out); err != nil {
		t.Errorf("output violates invariants: %v", err)
	}
}

func TestResplitMarkerOnlySegment(t *testing.T) {
	r := NewResegmenter()
	in := []segment.Segment{{Start: sec(1), Duration: sec(2), Text: "[APPLAUSE]"}}

	out := r.Resplit(in)
	if len(out) != 1 {
		t.Fatalf("marker-only segment split into %d units", len(out))
	}
	if out[0].Text != "[APPLAUSE]" || out[0].Start != sec(1) || out[0].Duration != sec(2) {
		t.Errorf("marker-only segment changed: %+v", out[0])
	}
}

func TestResplitSpeakerBoundary(t *testing.T) {
	r := NewResegmenter()
	in := []segment.Segment{{
		Start:    sec(0),
		Duration: sec(8),
		Text:     ">> Bob: the market closed early. >> Carol: that surprised everyone.",
	}}

	out := r.Resplit(in)
	if len(out) != 2 {
		t.Fatalf("got %d units %v, want 2", len(out), texts(out))
	}
	if out[0].Speaker != "Bob" {
		t.Errorf("unit 0 speaker = %q, want Bob", out[0].Speaker)
	}
	if out[1].Speaker != "Carol" {
		t.Errorf("unit 1 speaker = %q, want Carol", out[1].Speaker)
	}
	if !strings.HasPrefix(out[1].Text, ">> Carol:") {
		t.Errorf("unit 1 text = %q, want chevron prefix preserved", out[1].Text)
	}
}

func TestResplitEscapedChevron(t *testing.T) {
	r := NewResegmenter()
	in := []segment.Segment{{
		Start:    sec(0),
		Duration: sec(4),
		Text:     "&gt;&gt; ANNOUNCER: good evening. &gt;&gt; HOST: thanks for joining.",
	}}

	out := r.Resplit(in)
	if len(out) != 2 {
		t.Fatalf("got %d units %v, want 2", len(out), texts(out))
	}
	if out[0].Speaker != "ANNOUNCER" || out[1].Speaker != "HOST" {
		t.Errorf("speakers = %q, %q", out[0].Speaker, out[1].Speaker)
	}
}

func TestResplitNoBoundary(t *testing.T) {
	r := NewResegmenter()
	orig := segment.Segment{
		Start:    sec(3),
		Duration: sec(2),
		Text:     "no boundary here",
		Alignment: map[string][]segment.AlignmentItem{
			segment.WordKey: {{Symbol: "no", Start: sec(3), Duration: sec(1)}},
		},
	}

	out := r.Resplit([]segment.Segment{orig})
	if len(out) != 1 {
		t.Fatalf("got %d units, want 1", len(out))
	}
	if out[0].Words() == nil {
		t.Error("untouched segment lost its alignment")
	}
}

func TestResplitProtectedPunctuation(t *testing.T) {
	r := NewResegmenter()
	tests := []struct {
		name string
		text string
		want int
	}{
		{"ellipsis", "Well... that was unexpected honestly", 1},
		{"decimal", "Growth was 3.5 percent last year", 1},
		{"consecutive punctuation", "You did what?! That seems risky now.", 2},
		{"abbreviation guard", "Dr. Smith arrived late today", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := r.Resplit([]segment.Segment{{Start: 0, Duration: sec(5), Text: tt.text}})
			if len(out) != tt.want {
				t.Fatalf("got %d units %v, want %d", len(out), texts(out), tt.want)
			}
			for _, s := range out {
				if strings.TrimSpace(s.Text) == "" {
					t.Errorf("empty piece in %v", texts(out))
				}
			}
		})
	}
}

func TestResplitChinesePunctuation(t *testing.T) {
	r := NewResegmenter()
	out := r.Resplit([]segment.Segment{{
		Start: 0, Duration: sec(4), Text: "你好世界。今天讨论人工智能。",
	}})
	if len(out) != 2 {
		t.Fatalf("got %d units %v, want 2", len(out), texts(out))
	}
	if out[0].Text != "你好世界。" {
		t.Errorf("unit 0 = %q", out[0].Text)
	}
}

func TestResplitContentConservation(t *testing.T) {
	r := NewResegmenter()
	in := []segment.Segment{
		{Start: sec(0), Duration: sec(6), Text: "[MUSIC] Welcome back. Today we discuss AI."},
		{Start: sec(6), Duration: sec(8), Text: ">> Bob: first point made. >> Carol: second point made."},
	}

	out := r.Resplit(in)

	joinWords := func(segs []segment.Segment) string {
		return strings.Join(strings.Fields(strings.Join(texts(segs), " ")), " ")
	}
	if joinWords(out) != joinWords(in) {
		t.Errorf("content changed:\n in: %q\nout: %q", joinWords(in), joinWords(out))
	}
}

func TestResplitIdempotent(t *testing.T) {
	r := NewResegmenter()
	in := []segment.Segment{
		{Start: sec(0), Duration: sec(6), Text: "[MUSIC] Welcome back. Today we discuss AI."},
		{Start: sec(6), Duration: sec(3), Text: "A single clean sentence."},
		{Start: sec(9), Duration: sec(4), Text: ">> Bob: closing remarks now. Thanks for watching."},
	}

	once := r.Resplit(in)
	twice := r.Resplit(once)

	if len(once) != len(twice) {
		t.Fatalf("second pass changed unit count: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].Text != twice[i].Text {
			t.Errorf("unit %d text changed: %q vs %q", i, once[i].Text, twice[i].Text)
		}
		if once[i].Start != twice[i].Start || once[i].Duration != twice[i].Duration {
			t.Errorf("unit %d timing changed", i)
		}
	}
}

func TestResplitCopiesCustomBag(t *testing.T) {
	r := NewResegmenter()
	in := []segment.Segment{{
		Start:    sec(0),
		Duration: sec(4),
		Text:     "First sentence here. Second sentence here.",
		Custom:   map[string]any{"score": 0.9},
	}}

	out := r.Resplit(in)
	if len(out) != 2 {
		t.Fatalf("got %d units %v, want 2", len(out), texts(out))
	}
	if out[0].Custom["score"] != 0.9 || out[1].Custom["score"] != 0.9 {
		t.Fatal("custom bag not carried into pieces")
	}

	out[0].Custom["score"] = 0.1
	if out[1].Custom["score"] != 0.9 {
		t.Error("sibling pieces share one custom map")
	}
	if in[0].Custom["score"] != 0.9 {
		t.Error("source segment's custom map was mutated")
	}
}

func TestRedistributeFloor(t *testing.T) {
	r := NewResegmenter()
	// a very short segment still yields non-overlapping in-range pieces
	out := r.Resplit([]segment.Segment{{
		Start: sec(1), Duration: 150 * time.Millisecond,
		Text: "Short one here. Another short one.",
	}})
	if len(out) < 2 {
		t.Fatalf("expected a split, got %v", texts(out))
	}
	if out[len(out)-1].End() != sec(1)+150*time.Millisecond {
		t.Errorf("last end = %v, want original end", out[len(out)-1].End())
	}
	if err := segment.Validate(out); err != nil {
		t.Errorf("output violates invariants: %v", err)
	}
}
