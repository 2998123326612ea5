package caption

import (
	"strings"
	"testing"
	"time"

	"github.com/capseg/capseg/internal/segment"
)

func TestTTMLReadPlain(t *testing.T) {
	content := `<?xml version="1.0" encoding="utf-8"?>
<tt xmlns="http://www.w3.org/ns/ttml" xmlns:ttm="http://www.w3.org/ns/ttml#metadata">
  <body>
    <div>
      <p begin="00:00:01.000" end="00:00:03.000">Hello world</p>
      <p begin="00:00:04.000" end="00:00:06.500" ttm:agent="Alice">Second cue</p>
    </div>
  </body>
</tt>
`
	segs, warnings := mustRead(t, ttmlCodec{}, content, ReadOptions{})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if segs[0].Start != sec(1) || segs[0].End() != sec(3) || segs[0].Text != "Hello world" {
		t.Errorf("first cue = %+v", segs[0])
	}
	if segs[1].Speaker != "Alice" {
		t.Errorf("speaker = %q, want Alice from ttm:agent", segs[1].Speaker)
	}
}

func TestTTMLReadWordSpans(t *testing.T) {
	content := `<tt xmlns="http://www.w3.org/ns/ttml">
  <body>
    <div>
      <p begin="00:00:01.000" end="00:00:03.000"><span begin="00:00:01.000" end="00:00:01.450">Hello</span> <span begin="00:00:01.500" end="00:00:03.000">world</span></p>
    </div>
  </body>
</tt>
`
	segs, _ := mustRead(t, ttmlCodec{}, content, ReadOptions{})
	if len(segs) != 1 {
		t.Fatalf("got %d segments", len(segs))
	}
	if segs[0].Text != "Hello world" {
		t.Errorf("text = %q", segs[0].Text)
	}
	words := segs[0].Words()
	if len(words) != 2 {
		t.Fatalf("got %d words, want 2", len(words))
	}
	if words[0].Symbol != "Hello" || words[0].Start != sec(1) ||
		words[0].Duration != 450*time.Millisecond {
		t.Errorf("first word = %+v", words[0])
	}
}

func TestTTMLReadOffsetTimes(t *testing.T) {
	content := `<tt xmlns="http://www.w3.org/ns/ttml"><body><div>
<p begin="12.5s" end="14s">Offset form</p>
</div></body></tt>`
	segs, _ := mustRead(t, ttmlCodec{}, content, ReadOptions{})
	if len(segs) != 1 || segs[0].Start != sec(12.5) || segs[0].End() != sec(14) {
		t.Fatalf("segments = %+v", segs)
	}
}

func TestTTMLReadSkipsInvalidRange(t *testing.T) {
	content := `<tt xmlns="http://www.w3.org/ns/ttml"><body><div>
<p begin="bogus" end="also bogus">Bad</p>
<p begin="00:00:01.000" end="00:00:02.000">Good</p>
</div></body></tt>`
	segs, warnings := mustRead(t, ttmlCodec{}, content, ReadOptions{})
	if len(segs) != 1 || len(warnings) != 1 {
		t.Fatalf("got %d segments, %d warnings", len(segs), len(warnings))
	}
}

func TestTTMLWrite(t *testing.T) {
	segs := []segment.Segment{
		{Start: sec(1), Duration: sec(2), Text: "Tom & Jerry"},
	}
	got := mustWrite(t, ttmlCodec{}, segs, WriteOptions{})
	if !strings.Contains(got, `<p begin="00:00:01.000" end="00:00:03.000">Tom &amp; Jerry</p>`) {
		t.Errorf("output:\n%s", got)
	}
	if strings.Contains(got, "itunes:timing") {
		t.Error("line-level output carries itunes:timing")
	}
}

func TestTTMLWriteWordLevel(t *testing.T) {
	seg := segment.Segment{
		Start:    sec(1),
		Duration: sec(2),
		Text:     "Hello world",
	}.WithWords([]segment.AlignmentItem{
		{Symbol: "Hello", Start: sec(1), Duration: 450 * time.Millisecond, Confidence: 1},
		{Symbol: "world", Start: sec(1.5), Duration: sec(1.5), Confidence: 1},
	})

	got := mustWrite(t, ttmlCodec{}, []segment.Segment{seg}, WriteOptions{WordLevel: true})
	if !strings.Contains(got, `itunes:timing="Word"`) {
		t.Errorf("missing word timing attribute:\n%s", got)
	}
	if !strings.Contains(got,
		`<span begin="00:00:01.000" end="00:00:01.450">Hello</span> <span begin="00:00:01.500" end="00:00:03.000">world</span>`) {
		t.Errorf("spans wrong:\n%s", got)
	}
}

func TestTTMLWordRoundTrip(t *testing.T) {
	seg := segment.Segment{
		Start:    sec(1),
		Duration: sec(2),
		Text:     "Hello world",
	}.WithWords([]segment.AlignmentItem{
		{Symbol: "Hello", Start: sec(1), Duration: 450 * time.Millisecond, Confidence: 1},
		{Symbol: "world", Start: sec(1.5), Duration: sec(1.5), Confidence: 1},
	})

	out := mustWrite(t, ttmlCodec{}, []segment.Segment{seg}, WriteOptions{WordLevel: true})
	reread, warnings := mustRead(t, ttmlCodec{}, out, ReadOptions{})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(reread) != 1 {
		t.Fatalf("got %d segments", len(reread))
	}

	words := reread[0].Words()
	if len(words) != 2 {
		t.Fatalf("got %d words", len(words))
	}
	for i, want := range seg.Words() {
		if words[i] != want {
			t.Errorf("word %d = %+v, want %+v", i, words[i], want)
		}
	}
}
