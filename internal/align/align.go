// Package align defines the boundary to the forced-alignment engine.
// The engine itself (model inference) lives outside this module; this
// package only shapes what crosses the boundary and merges results
// back into segments.
package align

import (
	"context"
	"fmt"

	"github.com/capseg/capseg/internal/segment"
	"github.com/capseg/capseg/internal/timecode"
)

// Result is the aligner's answer for one input segment: refined
// segment timing plus per-word items ordered by start.
type Result struct {
	Start    float64 // seconds
	Duration float64 // seconds
	Words    []segment.AlignmentItem
}

// Aligner produces word-level timing for ordered text segments.
// Implementations wrap external inference engines.
type Aligner interface {
	Align(ctx context.Context, segments []segment.Segment) ([]Result, error)
}

// Apply merges aligner results into the segments, overwriting
// provisional timing, and re-validates the document invariants.
// Inconsistent aligner output fails with a ConsistencyError rather
// than being silently fixed.
func Apply(segments []segment.Segment, results []Result) ([]segment.Segment, error) {
	if len(results) != len(segments) {
		return nil, fmt.Errorf("aligner returned %d results for %d segments", len(results), len(segments))
	}

	out := make([]segment.Segment, len(segments))
	for i, seg := range segments {
		res := results[i]
		updated := seg.Clone()
		if res.Duration > 0 || res.Start > 0 {
			updated.Start = timecode.FromSeconds(res.Start)
			updated.Duration = timecode.FromSeconds(res.Duration)
		}
		if len(res.Words) > 0 {
			updated = updated.WithWords(res.Words)
		}
		out[i] = updated
	}

	if err := segment.Validate(out); err != nil {
		return nil, fmt.Errorf("aligner output rejected: %w", err)
	}
	return out, nil
}
