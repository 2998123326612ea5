package caption

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/capseg/capseg/internal/segment"
	"github.com/capseg/capseg/internal/speaker"
	"github.com/capseg/capseg/internal/timecode"
)

// YouTube SubViewer format: "start,end" on one line, text below,
// blank-line separated.
type sbvCodec struct{}

var sbvTimeRangeRegex = regexp.MustCompile(
	`^(\d{1,2}:\d{2}:\d{2}\.\d{3}),(\d{1,2}:\d{2}:\d{2}\.\d{3})$`,
)

func (sbvCodec) Read(r io.Reader, opts ReadOptions) ([]segment.Segment, []Warning, error) {
	lines, err := readLines(r, opts)
	if err != nil {
		return nil, nil, err
	}

	var segments []segment.Segment
	var warnings []Warning

	for _, b := range splitBlocks(lines) {
		m := sbvTimeRangeRegex.FindStringSubmatch(strings.TrimSpace(b.lines[0]))
		if m == nil {
			warn := Warning{
				Line:    b.startLine,
				Message: fmt.Sprintf("missing or malformed timestamp line %q", b.lines[0]),
			}
			if opts.Strict {
				return nil, nil, fmt.Errorf("sbv: %s", warn)
			}
			warnings = append(warnings, warn)
			continue
		}

		start, err1 := timecode.Parse(m[1], timecode.DotMillis)
		end, err2 := timecode.Parse(m[2], timecode.DotMillis)
		if err1 != nil || err2 != nil || end < start {
			warn := Warning{Line: b.startLine, Message: "invalid cue time range"}
			if opts.Strict {
				return nil, nil, fmt.Errorf("sbv: %s", warn)
			}
			warnings = append(warnings, warn)
			continue
		}

		text := strings.Join(b.lines[1:], "\n")
		if text == "" {
			warn := Warning{Line: b.startLine, Message: "cue has no text"}
			if opts.Strict {
				return nil, nil, fmt.Errorf("sbv: %s", warn)
			}
			warnings = append(warnings, warn)
			continue
		}

		segments = append(segments, segment.Segment{
			Start:    start,
			Duration: end - start,
			Text:     text,
			Kind:     segment.Dialogue,
		})
	}

	return segments, warnings, nil
}

func (sbvCodec) Write(w io.Writer, segments []segment.Segment, opts WriteOptions) error {
	var sb strings.Builder
	for i, seg := range segments {
		text := seg.Text
		if opts.NormalizeText {
			text = Normalize(text)
		}
		// SBV has no native speaker field
		if opts.IncludeSpeaker && seg.Speaker != "" {
			text = speaker.Restore(seg.Speaker, text, speaker.UpperColon)
		}

		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%s,%s\n",
			timecode.Format(seg.Start, timecode.DotMillis),
			timecode.Format(seg.End(), timecode.DotMillis)))
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
