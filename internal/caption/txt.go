package caption

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/capseg/capseg/internal/segment"
	"github.com/capseg/capseg/internal/speaker"
	"github.com/capseg/capseg/internal/timecode"
)

// Plain text. Two dialects, auto-detected on read: the bracketed-range
// form "[1.00-3.00] text" (used for word-level export) and plain
// timestamp-free dialogue lines.
type txtCodec struct{}

var txtRangeRegex = regexp.MustCompile(`^\[(\d+(?:\.\d+)?)-(\d+(?:\.\d+)?)\]\s*(.*)$`)

func (txtCodec) Read(r io.Reader, opts ReadOptions) ([]segment.Segment, []Warning, error) {
	lines, err := readLines(r, opts)
	if err != nil {
		return nil, nil, err
	}

	timed := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		timed = txtRangeRegex.MatchString(strings.TrimSpace(line))
		break
	}

	var segments []segment.Segment
	var warnings []Warning

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if !timed {
			segments = append(segments, segment.Segment{
				Text: line,
				Kind: segment.Dialogue,
			})
			continue
		}

		m := txtRangeRegex.FindStringSubmatch(line)
		if m == nil {
			warn := Warning{Line: i + 1, Message: fmt.Sprintf("line lacks [start-end] range: %q", line)}
			if opts.Strict {
				return nil, nil, fmt.Errorf("txt: %s", warn)
			}
			warnings = append(warnings, warn)
			continue
		}

		startSec, err1 := strconv.ParseFloat(m[1], 64)
		endSec, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil || endSec < startSec {
			warn := Warning{Line: i + 1, Message: "invalid time range"}
			if opts.Strict {
				return nil, nil, fmt.Errorf("txt: %s", warn)
			}
			warnings = append(warnings, warn)
			continue
		}

		start := timecode.FromSeconds(startSec)
		segments = append(segments, segment.Segment{
			Start:    start,
			Duration: timecode.FromSeconds(endSec) - start,
			Text:     m[3],
			Kind:     segment.Dialogue,
		})
	}

	return segments, warnings, nil
}

func (txtCodec) Write(w io.Writer, segments []segment.Segment, opts WriteOptions) error {
	var sb strings.Builder

	for _, seg := range segments {
		if words := seg.Words(); opts.WordLevel && len(words) > 0 {
			for _, word := range words {
				sb.WriteString(fmt.Sprintf("[%.2f-%.2f] %s\n",
					timecode.ToSeconds(word.Start),
					timecode.ToSeconds(word.End()),
					word.Symbol))
			}
			continue
		}

		text := seg.Text
		if opts.NormalizeText {
			text = Normalize(text)
		}
		if opts.IncludeSpeaker && seg.Speaker != "" {
			text = speaker.Restore(seg.Speaker, text, speaker.UpperColon)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
