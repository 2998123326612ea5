package caption

import (
	"strings"
	"testing"

	"github.com/capseg/capseg/internal/segment"
)

func TestSUBRead(t *testing.T) {
	content := "{25}{75}Hello world\n{100}{150}Second cue|second line\n"
	segs, warnings := mustRead(t, subCodec{}, content, ReadOptions{})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}

	// 25 frames at the default 25fps is one second
	if segs[0].Start != sec(1) || segs[0].End() != sec(3) {
		t.Errorf("cue times = %v..%v, want 1s..3s", segs[0].Start, segs[0].End())
	}
	if segs[1].Text != "Second cue\nsecond line" {
		t.Errorf("pipe not converted: %q", segs[1].Text)
	}
}

func TestSUBReadFrameRateOption(t *testing.T) {
	content := "{50}{100}Hi there\n"
	segs, _ := mustRead(t, subCodec{}, content, ReadOptions{FrameRate: 50})
	if len(segs) != 1 || segs[0].Start != sec(1) || segs[0].End() != sec(2) {
		t.Fatalf("cue at 50fps = %+v", segs)
	}
}

func TestSUBReadFPSHeaderCue(t *testing.T) {
	// a leading {1}{1}fps cue overrides the rate and emits no segment
	content := "{1}{1}50\n{50}{100}Hi there\n"
	segs, warnings := mustRead(t, subCodec{}, content, ReadOptions{})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1", len(segs))
	}
	if segs[0].Start != sec(1) || segs[0].End() != sec(2) {
		t.Errorf("cue times = %v..%v, want 1s..2s", segs[0].Start, segs[0].End())
	}
}

func TestSUBReadSkipsMalformed(t *testing.T) {
	content := "{25}{50}Good\nnot a sub line\n{100}{50}Backwards range\n"
	segs, warnings := mustRead(t, subCodec{}, content, ReadOptions{})
	if len(segs) != 1 || len(warnings) != 2 {
		t.Fatalf("got %d segments, %d warnings", len(segs), len(warnings))
	}
	if warnings[0].Line != 2 || warnings[1].Line != 3 {
		t.Errorf("warning lines = %d, %d", warnings[0].Line, warnings[1].Line)
	}
}

func TestSUBReadStrict(t *testing.T) {
	_, _, err := subCodec{}.Read(strings.NewReader("garbage\n"), ReadOptions{Strict: true})
	if err == nil {
		t.Fatal("strict mode accepted a malformed line")
	}
}

func TestSUBWriteRoundTrip(t *testing.T) {
	segs := []segment.Segment{
		{Start: sec(1), Duration: sec(2), Text: "Hello world"},
		{Start: sec(4), Duration: sec(2), Text: "Two\nlines"},
	}

	out := mustWrite(t, subCodec{}, segs, WriteOptions{})
	want := "{25}{75}Hello world\n{100}{150}Two|lines\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}

	reread, warnings := mustRead(t, subCodec{}, out, ReadOptions{})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	for i := range segs {
		if reread[i].Start != segs[i].Start || reread[i].Duration != segs[i].Duration ||
			reread[i].Text != segs[i].Text {
			t.Errorf("segment %d = %+v, want %+v", i, reread[i], segs[i])
		}
	}
}

func TestSUBWriteFrameRate(t *testing.T) {
	segs := []segment.Segment{{Start: sec(1), Duration: sec(1), Text: "Hi"}}
	out := mustWrite(t, subCodec{}, segs, WriteOptions{FrameRate: 30})
	if out != "{30}{60}Hi\n" {
		t.Errorf("output = %q", out)
	}
}
