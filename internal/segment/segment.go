package segment

import (
	"fmt"
	"time"
)

// WordKey is the alignment granularity every codec in this repo reads
// and writes. Other granularities may be carried but are passed through
// untouched.
const WordKey = "word"

// Kind classifies a segment for downstream filtering. Line-oriented
// subtitle formats only ever produce Dialogue; the structured transcript
// reader also produces Event and SectionHeader.
type Kind string

const (
	Dialogue      Kind = "dialogue"
	Event         Kind = "event"
	SectionHeader Kind = "section-header"
)

// AlignmentItem is one word's precise timing within a segment.
type AlignmentItem struct {
	Symbol     string
	Start      time.Duration
	Duration   time.Duration
	Confidence float64
}

func (a AlignmentItem) End() time.Duration {
	return a.Start + a.Duration
}

// Segment is one timed unit of text. Readers produce them, the
// re-segmenter and aligner replace or enrich them, writers consume them
// immutably.
type Segment struct {
	Start    time.Duration
	Duration time.Duration
	Text     string
	Speaker  string
	Kind     Kind
	// Alignment maps a granularity key (WordKey) to ordered items.
	Alignment map[string][]AlignmentItem
	// Custom carries free-form metadata (e.g. "score"). Only codecs
	// that can store it round-trip it; others drop it silently.
	Custom map[string]any
}

func (s Segment) End() time.Duration {
	return s.Start + s.Duration
}

// Words returns the word-level alignment, or nil if absent.
func (s Segment) Words() []AlignmentItem {
	if s.Alignment == nil {
		return nil
	}
	return s.Alignment[WordKey]
}

// WithWords returns a copy of the segment carrying the given word
// alignment.
func (s Segment) WithWords(words []AlignmentItem) Segment {
	out := s.Clone()
	if out.Alignment == nil {
		out.Alignment = make(map[string][]AlignmentItem, 1)
	}
	out.Alignment[WordKey] = words
	return out
}

// Clone deep-copies the segment so callers can mutate the result without
// aliasing the original's maps and slices.
func (s Segment) Clone() Segment {
	out := s
	if s.Alignment != nil {
		out.Alignment = make(map[string][]AlignmentItem, len(s.Alignment))
		for k, items := range s.Alignment {
			copied := make([]AlignmentItem, len(items))
			copy(copied, items)
			out.Alignment[k] = copied
		}
	}
	if s.Custom != nil {
		out.Custom = make(map[string]any, len(s.Custom))
		for k, v := range s.Custom {
			out.Custom[k] = v
		}
	}
	return out
}

// alignmentSlack tolerates small aligner rounding outside the parent
// segment's range before Validate treats it as an inconsistency.
const alignmentSlack = 50 * time.Millisecond

// ConsistencyError reports segments violating the ordering or bounds
// invariants. It is always fatal: it signals an upstream logic bug, not
// a bad input file.
type ConsistencyError struct {
	Index   int
	Message string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("segment %d: %s", e.Index, e.Message)
}

// Validate checks the document invariants: non-negative times, segments
// ordered by non-decreasing start, and word alignments ordered and
// contained within their parent segment (modulo alignmentSlack).
func Validate(segments []Segment) error {
	var prevStart time.Duration
	for i, seg := range segments {
		if seg.Start < 0 {
			return &ConsistencyError{Index: i, Message: "negative start"}
		}
		if seg.Duration < 0 {
			return &ConsistencyError{Index: i, Message: "negative duration"}
		}
		if i > 0 && seg.Start < prevStart {
			return &ConsistencyError{
				Index:   i,
				Message: fmt.Sprintf("start %v before previous start %v", seg.Start, prevStart),
			}
		}
		prevStart = seg.Start

		if err := validateWords(i, seg); err != nil {
			return err
		}
	}
	return nil
}

func validateWords(index int, seg Segment) error {
	words := seg.Words()
	var prev time.Duration
	for j, w := range words {
		if w.Duration < 0 {
			return &ConsistencyError{
				Index:   index,
				Message: fmt.Sprintf("word %d %q has negative duration", j, w.Symbol),
			}
		}
		if j > 0 && w.Start < prev {
			return &ConsistencyError{
				Index:   index,
				Message: fmt.Sprintf("word %d %q starts before previous word", j, w.Symbol),
			}
		}
		prev = w.Start
		if w.Start < seg.Start-alignmentSlack || w.End() > seg.End()+alignmentSlack {
			return &ConsistencyError{
				Index: index,
				Message: fmt.Sprintf("word %d %q [%v, %v) outside segment [%v, %v)",
					j, w.Symbol, w.Start, w.End(), seg.Start, seg.End()),
			}
		}
	}
	return nil
}
