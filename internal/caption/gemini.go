package caption

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/capseg/capseg/internal/segment"
	"github.com/capseg/capseg/internal/timecode"
)

// Structured markdown transcript dialect ("Gemini" transcripts),
// read-only. Three line shapes, each carrying an HH:MM:SS timestamp:
//
//	## [00:01:30] Section Title
//	**Speaker:** dialogue text [00:01:45]
//	[Applause] [00:02:10]
//
// A trailing timestamp marks the line's end; the start is the previous
// unit's end (the section start for the first line of a section).
type geminiCodec struct{}

var (
	geminiSectionRegex  = regexp.MustCompile(`^##\s*\[(\d{1,2}:\d{2}:\d{2})\]\s*(.*)$`)
	geminiDialogueRegex = regexp.MustCompile(`^\*\*([^*]+?):?\*\*:?\s*(.*?)\s*\[(\d{1,2}:\d{2}:\d{2})\]\s*$`)
	geminiEventRegex    = regexp.MustCompile(`^(\[[^\[\]]+\])\s*\[(\d{1,2}:\d{2}:\d{2})\]\s*$`)
)

func (geminiCodec) Read(r io.Reader, opts ReadOptions) ([]segment.Segment, []Warning, error) {
	lines, err := readLines(r, opts)
	if err != nil {
		return nil, nil, err
	}

	var segments []segment.Segment
	var warnings []Warning

	// cursor tracks the previous unit's end, which is the next unit's
	// inferred start
	var cursor time.Duration
	sawContent := false

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := geminiSectionRegex.FindStringSubmatch(line); m != nil {
			start, err := timecode.Parse(m[1], timecode.Seconds)
			if err != nil {
				warnings, err = geminiWarn(warnings, opts, i+1, err.Error())
				if err != nil {
					return nil, nil, err
				}
				continue
			}
			segments = append(segments, segment.Segment{
				Start: start,
				Text:  strings.TrimSpace(m[2]),
				Kind:  segment.SectionHeader,
			})
			cursor = start
			sawContent = true
			continue
		}

		if m := geminiDialogueRegex.FindStringSubmatch(line); m != nil {
			end, err := timecode.Parse(m[3], timecode.Seconds)
			if err != nil {
				warnings, err = geminiWarn(warnings, opts, i+1, err.Error())
				if err != nil {
					return nil, nil, err
				}
				continue
			}
			seg, warn := geminiUnit(cursor, end, i+1)
			if warn != nil {
				warnings, err = geminiWarn(warnings, opts, warn.Line, warn.Message)
				if err != nil {
					return nil, nil, err
				}
				continue
			}
			seg.Speaker = strings.TrimSpace(m[1])
			seg.Text = strings.TrimSpace(m[2])
			seg.Kind = segment.Dialogue
			segments = append(segments, seg)
			cursor = end
			sawContent = true
			continue
		}

		if m := geminiEventRegex.FindStringSubmatch(line); m != nil {
			end, err := timecode.Parse(m[2], timecode.Seconds)
			if err != nil {
				warnings, err = geminiWarn(warnings, opts, i+1, err.Error())
				if err != nil {
					return nil, nil, err
				}
				continue
			}
			seg, warn := geminiUnit(cursor, end, i+1)
			if warn != nil {
				warnings, err = geminiWarn(warnings, opts, warn.Line, warn.Message)
				if err != nil {
					return nil, nil, err
				}
				continue
			}
			seg.Text = m[1]
			seg.Kind = segment.Event
			segments = append(segments, seg)
			cursor = end
			sawContent = true
			continue
		}

		warnings, err = geminiWarn(warnings, opts, i+1, fmt.Sprintf("unrecognized line %q", line))
		if err != nil {
			return nil, nil, err
		}
	}

	if !sawContent {
		return nil, warnings, fmt.Errorf("gemini: no transcript lines recognized")
	}

	return segments, warnings, nil
}

func geminiUnit(start, end time.Duration, line int) (segment.Segment, *Warning) {
	if end < start {
		return segment.Segment{}, &Warning{
			Line:    line,
			Message: fmt.Sprintf("timestamp %s precedes the previous unit's end", timecode.Format(end, timecode.Seconds)),
		}
	}
	return segment.Segment{Start: start, Duration: end - start}, nil
}

func geminiWarn(warnings []Warning, opts ReadOptions, line int, msg string) ([]Warning, error) {
	if opts.Strict {
		return nil, fmt.Errorf("gemini: line %d: %s", line, msg)
	}
	return append(warnings, Warning{Line: line, Message: msg}), nil
}

// DialogueOnly filters re-usable transcript units for alignment:
// section headers and event markers carry no speech.
func DialogueOnly(segments []segment.Segment) []segment.Segment {
	out := make([]segment.Segment, 0, len(segments))
	for _, seg := range segments {
		if seg.Kind == segment.Dialogue || seg.Kind == "" {
			out = append(out, seg)
		}
	}
	return out
}
