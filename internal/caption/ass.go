package caption

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/capseg/capseg/internal/segment"
	"github.com/capseg/capseg/internal/timecode"
)

// Advanced SubStation Alpha / SubStation Alpha format. Writing emits a
// default style sheet plus an [Events] table; with WordLevel set and
// alignment present, each word gets a karaoke override tag whose value
// is the word's duration in centiseconds.
type assCodec struct {
	Title    string
	FontName string
	FontSize int
}

func newASSCodec() *assCodec {
	return &assCodec{
		Title:    "capseg export",
		FontName: "Arial",
		FontSize: 20,
	}
}

var assOverrideTagRegex = regexp.MustCompile(`\{[^}]*\}`)

func (c *assCodec) Read(r io.Reader, opts ReadOptions) ([]segment.Segment, []Warning, error) {
	lines, err := readLines(r, opts)
	if err != nil {
		return nil, nil, err
	}

	var segments []segment.Segment
	var warnings []Warning

	inEvents := false
	var formatColumns []string
	startIdx, endIdx, textIdx := -1, -1, -1

	for i, raw := range lines {
		lineNum := i + 1
		line := strings.TrimSpace(raw)

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inEvents = strings.EqualFold(line, "[Events]")
			continue
		}
		if !inEvents || line == "" || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "Format:") {
			formatColumns = splitCSV(strings.TrimPrefix(line, "Format:"))
			startIdx, endIdx, textIdx = -1, -1, -1
			for j, col := range formatColumns {
				switch strings.ToLower(col) {
				case "start":
					startIdx = j
				case "end":
					endIdx = j
				case "text":
					textIdx = j
				}
			}
			if startIdx == -1 || endIdx == -1 || textIdx == -1 {
				return nil, nil, fmt.Errorf("ass: Format line missing Start/End/Text column at line %d", lineNum)
			}
			continue
		}

		if !strings.HasPrefix(line, "Dialogue:") {
			continue
		}
		if formatColumns == nil {
			return nil, nil, fmt.Errorf("ass: Dialogue before Format line at line %d", lineNum)
		}

		fields := splitASSFields(strings.TrimSpace(strings.TrimPrefix(line, "Dialogue:")), len(formatColumns))
		if len(fields) < len(formatColumns) {
			warn := Warning{
				Line:    lineNum,
				Message: fmt.Sprintf("dialogue has %d fields, want %d", len(fields), len(formatColumns)),
			}
			if opts.Strict {
				return nil, nil, fmt.Errorf("ass: %s", warn)
			}
			warnings = append(warnings, warn)
			continue
		}

		start, err1 := timecode.Parse(fields[startIdx], timecode.ShortCentis)
		end, err2 := timecode.Parse(fields[endIdx], timecode.ShortCentis)
		if err1 != nil || err2 != nil || end < start {
			warn := Warning{Line: lineNum, Message: "invalid dialogue time range"}
			if opts.Strict {
				return nil, nil, fmt.Errorf("ass: %s", warn)
			}
			warnings = append(warnings, warn)
			continue
		}

		text := fields[textIdx]
		text = assOverrideTagRegex.ReplaceAllString(text, "")
		text = strings.ReplaceAll(text, "\\N", "\n")
		text = strings.ReplaceAll(text, "\\n", "\n")

		seg := segment.Segment{
			Start:    start,
			Duration: end - start,
			Text:     text,
			Kind:     segment.Dialogue,
		}
		// the Name column is the speaker field when populated
		for j, col := range formatColumns {
			if strings.EqualFold(col, "Name") && j < len(fields) && fields[j] != "" {
				seg.Speaker = fields[j]
			}
		}
		segments = append(segments, seg)
	}

	return segments, warnings, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// splitASSFields splits a Dialogue payload into exactly numFields
// parts; the final (Text) field keeps its embedded commas.
func splitASSFields(content string, numFields int) []string {
	if numFields <= 0 {
		return nil
	}
	parts := make([]string, 0, numFields)
	remaining := content
	for i := 0; i < numFields-1; i++ {
		idx := strings.Index(remaining, ",")
		if idx == -1 {
			parts = append(parts, remaining)
			remaining = ""
			break
		}
		parts = append(parts, strings.TrimSpace(remaining[:idx]))
		remaining = remaining[idx+1:]
	}
	parts = append(parts, remaining)
	return parts
}

func (c *assCodec) Write(w io.Writer, segments []segment.Segment, opts WriteOptions) error {
	var sb strings.Builder

	sb.WriteString("[Script Info]\n")
	sb.WriteString(fmt.Sprintf("Title: %s\n", c.Title))
	sb.WriteString("ScriptType: v4.00+\n")
	sb.WriteString("Collisions: Normal\n")
	sb.WriteString("PlayDepth: 0\n\n")

	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	sb.WriteString(fmt.Sprintf("Style: Default,%s,%d,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1\n\n",
		c.FontName, c.FontSize))

	sb.WriteString("[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	effect := opts.KaraokeEffect
	if effect == "" {
		effect = "kf"
	}

	for _, seg := range segments {
		text := seg.Text
		if opts.NormalizeText {
			text = Normalize(text)
		}
		if words := seg.Words(); opts.WordLevel && len(words) > 0 {
			text = karaokeText(words, effect)
		} else {
			text = strings.ReplaceAll(text, "\n", "\\N")
		}

		name := ""
		if opts.IncludeSpeaker {
			name = strings.ReplaceAll(seg.Speaker, ",", " ")
		}

		sb.WriteString(fmt.Sprintf("Dialogue: 0,%s,%s,Default,%s,0,0,0,,%s\n",
			timecode.Format(seg.Start, timecode.ShortCentis),
			timecode.Format(seg.End(), timecode.ShortCentis),
			name,
			text))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// karaokeText prefixes every word with an override tag carrying the
// word's duration in centiseconds, rounded to nearest.
func karaokeText(words []segment.AlignmentItem, effect string) string {
	var sb strings.Builder
	for i, word := range words {
		cs := int(math.Round(float64(word.Duration) / float64(10*time.Millisecond)))
		sb.WriteString(fmt.Sprintf("{\\%s%d}", effect, cs))
		sb.WriteString(strings.ReplaceAll(word.Symbol, "\n", " "))
		if i < len(words)-1 {
			sb.WriteString(" ")
		}
	}
	return sb.String()
}
