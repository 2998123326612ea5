package caption

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/capseg/capseg/internal/segment"
	"github.com/capseg/capseg/internal/timecode"
)

// WebVTT format.
type vttCodec struct{}

var (
	vttTimeRangeRegex = regexp.MustCompile(
		`^(\d{1,2}:\d{2}:\d{2}\.\d{3})\s*-->\s*(\d{1,2}:\d{2}:\d{2}\.\d{3})(?:\s.*)?$`,
	)
	// the hours field is optional in WebVTT
	vttShortRangeRegex = regexp.MustCompile(
		`^(\d{1,2}:\d{2}\.\d{3})\s*-->\s*(\d{1,2}:\d{2}\.\d{3})(?:\s.*)?$`,
	)
	vttVoiceRegex = regexp.MustCompile(`^<v(?:\.[^\s>]*)?\s+([^>]+)>`)
)

func (vttCodec) Read(r io.Reader, opts ReadOptions) ([]segment.Segment, []Warning, error) {
	lines, err := readLines(r, opts)
	if err != nil {
		return nil, nil, err
	}

	if len(lines) == 0 || !strings.HasPrefix(strings.TrimSpace(lines[0]), "WEBVTT") {
		return nil, nil, fmt.Errorf("vtt: missing WEBVTT header")
	}
	lines = lines[1:]

	var segments []segment.Segment
	var warnings []Warning

	for _, b := range splitBlocks(lines) {
		head := strings.TrimSpace(b.lines[0])
		// NOTE and STYLE blocks carry no cues
		if strings.HasPrefix(head, "NOTE") || strings.HasPrefix(head, "STYLE") ||
			strings.HasPrefix(head, "REGION") {
			continue
		}

		seg, warn := parseVTTBlock(b)
		if warn != nil {
			if opts.Strict {
				return nil, nil, fmt.Errorf("vtt: %s", warn)
			}
			warnings = append(warnings, *warn)
			continue
		}
		segments = append(segments, seg)
	}

	return segments, warnings, nil
}

func parseVTTBlock(b block) (segment.Segment, *Warning) {
	lines := b.lines

	// optional cue identifier line precedes the timestamp line
	timeLine := -1
	for i := 0; i < len(lines) && i < 2; i++ {
		if strings.Contains(lines[i], "-->") {
			timeLine = i
			break
		}
	}
	if timeLine == -1 {
		return segment.Segment{}, &Warning{
			Line:    b.startLine,
			Message: fmt.Sprintf("cue has no timestamp line near %q", lines[0]),
		}
	}

	trimmed := strings.TrimSpace(lines[timeLine])
	var startText, endText string
	if m := vttTimeRangeRegex.FindStringSubmatch(trimmed); m != nil {
		startText, endText = m[1], m[2]
	} else if m := vttShortRangeRegex.FindStringSubmatch(trimmed); m != nil {
		startText, endText = expandShortVTTTime(m[1]), expandShortVTTTime(m[2])
	} else {
		return segment.Segment{}, &Warning{
			Line:    b.startLine + timeLine,
			Message: fmt.Sprintf("malformed timestamp line %q", lines[timeLine]),
		}
	}

	start, err := timecode.Parse(startText, timecode.DotMillis)
	if err != nil {
		return segment.Segment{}, &Warning{Line: b.startLine + timeLine, Message: err.Error()}
	}
	end, err := timecode.Parse(endText, timecode.DotMillis)
	if err != nil {
		return segment.Segment{}, &Warning{Line: b.startLine + timeLine, Message: err.Error()}
	}
	if end < start {
		return segment.Segment{}, &Warning{
			Line:    b.startLine + timeLine,
			Message: "cue ends before it starts",
		}
	}

	text := strings.Join(lines[timeLine+1:], "\n")
	if text == "" {
		return segment.Segment{}, &Warning{Line: b.startLine, Message: "cue has no text"}
	}

	seg := segment.Segment{
		Start:    start,
		Duration: end - start,
		Kind:     segment.Dialogue,
	}

	// a leading voice tag carries the speaker
	if m := vttVoiceRegex.FindStringSubmatch(text); m != nil {
		seg.Speaker = strings.TrimSpace(m[1])
		text = text[len(m[0]):]
		text = strings.TrimSuffix(text, "</v>")
	}
	seg.Text = text

	return seg, nil
}

// expandShortVTTTime turns an MM:SS.mmm timestamp into the full
// HH:MM:SS.mmm form, zero-padding a single-digit minute field.
func expandShortVTTTime(t string) string {
	if strings.Index(t, ":") == 1 {
		t = "0" + t
	}
	return "00:" + t
}

func (vttCodec) Write(w io.Writer, segments []segment.Segment, opts WriteOptions) error {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n")

	for _, seg := range segments {
		text := seg.Text
		if opts.NormalizeText {
			text = Normalize(text)
		}
		if opts.IncludeSpeaker && seg.Speaker != "" {
			text = fmt.Sprintf("<v %s>%s", seg.Speaker, text)
		}

		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			timecode.Format(seg.Start, timecode.DotMillis),
			timecode.Format(seg.End(), timecode.DotMillis)))
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
