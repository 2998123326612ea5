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

// MicroDVD .sub format: "{start}{end}text" with frame-based times and
// "|" line breaks. The frame rate comes from the options (default
// 25fps); a leading "{1}{1}25.000" cue overrides it, per the common
// player convention.
type subCodec struct{}

var subLineRegex = regexp.MustCompile(`^\{(\d+)\}\{(\d+)\}(.*)$`)

func (subCodec) Read(r io.Reader, opts ReadOptions) ([]segment.Segment, []Warning, error) {
	lines, err := readLines(r, opts)
	if err != nil {
		return nil, nil, err
	}

	rate := opts.FrameRate
	if rate <= 0 {
		rate = timecode.DefaultFrameRate
	}

	var segments []segment.Segment
	var warnings []Warning
	first := true

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		m := subLineRegex.FindStringSubmatch(line)
		if m == nil {
			warn := Warning{Line: i + 1, Message: fmt.Sprintf("line lacks {start}{end} frames: %q", line)}
			if opts.Strict {
				return nil, nil, fmt.Errorf("sub: %s", warn)
			}
			warnings = append(warnings, warn)
			continue
		}

		startFrame, err1 := strconv.Atoi(m[1])
		endFrame, err2 := strconv.Atoi(m[2])
		text := strings.TrimSpace(m[3])

		if first {
			first = false
			if fps, err := strconv.ParseFloat(text, 64); err == nil && fps > 0 {
				rate = fps
				continue
			}
		}

		if err1 != nil || err2 != nil || endFrame < startFrame {
			warn := Warning{Line: i + 1, Message: "invalid cue frame range"}
			if opts.Strict {
				return nil, nil, fmt.Errorf("sub: %s", warn)
			}
			warnings = append(warnings, warn)
			continue
		}
		if text == "" {
			warn := Warning{Line: i + 1, Message: "cue has no text"}
			if opts.Strict {
				return nil, nil, fmt.Errorf("sub: %s", warn)
			}
			warnings = append(warnings, warn)
			continue
		}

		start := timecode.FromFrames(startFrame, rate)
		segments = append(segments, segment.Segment{
			Start:    start,
			Duration: timecode.FromFrames(endFrame, rate) - start,
			Text:     strings.ReplaceAll(text, "|", "\n"),
			Kind:     segment.Dialogue,
		})
	}

	return segments, warnings, nil
}

func (subCodec) Write(w io.Writer, segments []segment.Segment, opts WriteOptions) error {
	rate := opts.FrameRate
	if rate <= 0 {
		rate = timecode.DefaultFrameRate
	}

	var sb strings.Builder
	for _, seg := range segments {
		text := seg.Text
		if opts.NormalizeText {
			text = Normalize(text)
		}
		if opts.IncludeSpeaker && seg.Speaker != "" {
			text = speaker.Restore(seg.Speaker, text, speaker.UpperColon)
		}
		text = strings.ReplaceAll(text, "\n", "|")

		sb.WriteString(fmt.Sprintf("{%d}{%d}%s\n",
			timecode.ToFrames(seg.Start, rate),
			timecode.ToFrames(seg.End(), rate),
			text))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
