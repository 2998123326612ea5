package caption

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/capseg/capseg/internal/segment"
	"github.com/capseg/capseg/internal/timecode"
)

// JSON supervision export, write-only. The only format that round-trips
// word-level alignment and the custom bag losslessly; recommended as
// the interchange form between pipeline stages. Word alignments are
// serialized as positional [symbol, start, duration, confidence]
// tuples; the named struct stays the canonical in-memory shape.
type jsonCodec struct{}

type jsonSupervision struct {
	ID          string           `json:"id"`
	RecordingID string           `json:"recording_id"`
	Start       float64          `json:"start"`
	Duration    float64          `json:"duration"`
	Channel     int              `json:"channel"`
	Text        string           `json:"text"`
	Speaker     string           `json:"speaker,omitempty"`
	Custom      map[string]any   `json:"custom,omitempty"`
	Alignment   map[string][]any `json:"alignment,omitempty"`
}

func (jsonCodec) Write(w io.Writer, segments []segment.Segment, opts WriteOptions) error {
	out := make([]jsonSupervision, len(segments))

	for i, seg := range segments {
		text := seg.Text
		if opts.NormalizeText {
			text = Normalize(text)
		}

		sup := jsonSupervision{
			ID:       fmt.Sprintf("seg-%04d", i),
			Start:    timecode.ToSeconds(seg.Start),
			Duration: timecode.ToSeconds(seg.Duration),
			Text:     text,
			Custom:   seg.Custom,
		}
		if opts.IncludeSpeaker || seg.Speaker != "" {
			sup.Speaker = seg.Speaker
		}
		if id, ok := seg.Custom["id"].(string); ok {
			sup.ID = id
		}
		if rec, ok := seg.Custom["recording_id"].(string); ok {
			sup.RecordingID = rec
		}

		if seg.Alignment != nil {
			sup.Alignment = make(map[string][]any, len(seg.Alignment))
			for key, items := range seg.Alignment {
				tuples := make([]any, len(items))
				for j, item := range items {
					conf := item.Confidence
					if conf == 0 {
						conf = 1
					}
					tuples[j] = []any{
						item.Symbol,
						timecode.ToSeconds(item.Start),
						timecode.ToSeconds(item.Duration),
						conf,
					}
				}
				sup.Alignment[key] = tuples
			}
		}

		out[i] = sup
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
