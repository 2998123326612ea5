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

// SubRip format.
type srtCodec struct{}

var srtTimeRangeRegex = regexp.MustCompile(
	`^(\d{1,2}:\d{2}:\d{2},\d{3})\s*-->\s*(\d{1,2}:\d{2}:\d{2},\d{3})$`,
)

func (srtCodec) Read(r io.Reader, opts ReadOptions) ([]segment.Segment, []Warning, error) {
	lines, err := readLines(r, opts)
	if err != nil {
		return nil, nil, err
	}

	var segments []segment.Segment
	var warnings []Warning

	for _, block := range splitBlocks(lines) {
		seg, warn := parseSRTBlock(block)
		if warn != nil {
			if opts.Strict {
				return nil, nil, fmt.Errorf("srt: %s", warn)
			}
			warnings = append(warnings, *warn)
			continue
		}
		segments = append(segments, seg)
	}

	return segments, warnings, nil
}

// block is a run of non-blank lines with the 1-based number of its
// first line.
type block struct {
	startLine int
	lines     []string
}

func splitBlocks(lines []string) []block {
	var blocks []block
	var current []string
	start := 0

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, block{startLine: start + 1, lines: current})
				current = nil
			}
			continue
		}
		if len(current) == 0 {
			start = i
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, block{startLine: start + 1, lines: current})
	}
	return blocks
}

func parseSRTBlock(b block) (segment.Segment, *Warning) {
	lines := b.lines

	// optional 1-based index line
	if len(lines) > 0 {
		if _, err := strconv.Atoi(strings.TrimSpace(lines[0])); err == nil {
			lines = lines[1:]
		}
	}
	if len(lines) == 0 {
		return segment.Segment{}, &Warning{Line: b.startLine, Message: "cue has no timestamp line"}
	}

	m := srtTimeRangeRegex.FindStringSubmatch(strings.TrimSpace(lines[0]))
	if m == nil {
		return segment.Segment{}, &Warning{
			Line:    b.startLine,
			Message: fmt.Sprintf("missing or malformed timestamp line %q", lines[0]),
		}
	}

	start, err := timecode.Parse(m[1], timecode.CommaMillis)
	if err != nil {
		return segment.Segment{}, &Warning{Line: b.startLine, Message: err.Error()}
	}
	end, err := timecode.Parse(m[2], timecode.CommaMillis)
	if err != nil {
		return segment.Segment{}, &Warning{Line: b.startLine, Message: err.Error()}
	}
	if end < start {
		return segment.Segment{}, &Warning{
			Line:    b.startLine,
			Message: fmt.Sprintf("cue ends before it starts: %s", lines[0]),
		}
	}

	text := strings.Join(lines[1:], "\n")
	if text == "" {
		return segment.Segment{}, &Warning{Line: b.startLine, Message: "cue has no text"}
	}

	return segment.Segment{
		Start:    start,
		Duration: end - start,
		Text:     text,
		Kind:     segment.Dialogue,
	}, nil
}

func (srtCodec) Write(w io.Writer, segments []segment.Segment, opts WriteOptions) error {
	var sb strings.Builder
	for i, seg := range segments {
		text := seg.Text
		if opts.NormalizeText {
			text = Normalize(text)
		}
		if opts.IncludeSpeaker && seg.Speaker != "" {
			text = speaker.Restore(seg.Speaker, text, speaker.UpperColon)
		}

		sb.WriteString(fmt.Sprintf("%d\n", i+1))
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			timecode.Format(seg.Start, timecode.CommaMillis),
			timecode.Format(seg.End(), timecode.CommaMillis)))
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
