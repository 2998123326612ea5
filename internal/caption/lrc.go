package caption

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/capseg/capseg/internal/segment"
	"github.com/capseg/capseg/internal/timecode"
)

// Enhanced LRC lyric format. Lines are "[mm:ss.xxx]text"; the enhanced
// word-level form embeds "<mm:ss.xxx>word" tags inside the line. LRC
// carries no end timestamps, so each line's duration is the delta to
// the next line's start and the last line falls back to a fixed
// duration.
type lrcCodec struct{}

// lrcLastLineDuration is the synthesized duration of the final line.
const lrcLastLineDuration = 5 * time.Second

var (
	lrcLineRegex = regexp.MustCompile(`^\[(\d{1,3}:\d{2}\.\d{2,3})\](.*)$`)
	lrcMetaRegex = regexp.MustCompile(`^\[([a-zA-Z][a-zA-Z0-9]*):([^\]]*)\]$`)
	lrcWordRegex = regexp.MustCompile(`<(\d{1,3}:\d{2}\.\d{2,3})>([^<]*)`)
)

func (lrcCodec) Read(r io.Reader, opts ReadOptions) ([]segment.Segment, []Warning, error) {
	lines, err := readLines(r, opts)
	if err != nil {
		return nil, nil, err
	}

	type lrcLine struct {
		start time.Duration
		text  string
		words []segment.AlignmentItem
	}
	var parsed []lrcLine
	var warnings []Warning

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		m := lrcLineRegex.FindStringSubmatch(line)
		if m == nil {
			// metadata header tags ([ar:], [ti:], [al:], [by:], ...)
			if lrcMetaRegex.MatchString(line) {
				continue
			}
			warn := Warning{Line: i + 1, Message: fmt.Sprintf("unrecognized line %q", line)}
			if opts.Strict {
				return nil, nil, fmt.Errorf("lrc: %s", warn)
			}
			warnings = append(warnings, warn)
			continue
		}

		start, err := timecode.ParseLyric(m[1])
		if err != nil {
			warn := Warning{Line: i + 1, Message: err.Error()}
			if opts.Strict {
				return nil, nil, fmt.Errorf("lrc: %s", warn)
			}
			warnings = append(warnings, warn)
			continue
		}

		body := m[2]
		entry := lrcLine{start: start}

		if tags := lrcWordRegex.FindAllStringSubmatch(body, -1); len(tags) > 0 {
			symbols := make([]string, 0, len(tags)+1)
			// untagged text before the first word tag keeps the line's
			// own timestamp instead of being dropped
			if loc := lrcWordRegex.FindStringIndex(body); loc[0] > 0 {
				if prefix := strings.TrimSpace(body[:loc[0]]); prefix != "" {
					entry.words = append(entry.words, segment.AlignmentItem{
						Symbol:     prefix,
						Start:      start,
						Confidence: 1,
					})
					symbols = append(symbols, prefix)
				}
			}
			for _, tag := range tags {
				wordStart, err := timecode.ParseLyric(tag[1])
				if err != nil {
					continue
				}
				word := strings.TrimSpace(tag[2])
				if word == "" {
					// a bare trailing tag marks the line end
					if n := len(entry.words); n > 0 && entry.words[n-1].Duration == 0 {
						entry.words[n-1].Duration = wordStart - entry.words[n-1].Start
					}
					continue
				}
				entry.words = append(entry.words, segment.AlignmentItem{
					Symbol:     word,
					Start:      wordStart,
					Confidence: 1,
				})
				symbols = append(symbols, word)
			}
			entry.text = strings.Join(symbols, " ")
		} else {
			entry.text = strings.TrimSpace(body)
		}

		parsed = append(parsed, entry)
	}

	sort.SliceStable(parsed, func(i, j int) bool { return parsed[i].start < parsed[j].start })

	segments := make([]segment.Segment, 0, len(parsed))
	for i, entry := range parsed {
		end := entry.start + lrcLastLineDuration
		if i+1 < len(parsed) {
			end = parsed[i+1].start
		}

		// word durations: delta to the next word, last word runs to
		// the line end
		for j := range entry.words {
			if entry.words[j].Duration != 0 {
				continue
			}
			if j+1 < len(entry.words) {
				entry.words[j].Duration = entry.words[j+1].Start - entry.words[j].Start
			} else {
				entry.words[j].Duration = end - entry.words[j].Start
			}
		}

		seg := segment.Segment{
			Start:    entry.start,
			Duration: end - entry.start,
			Text:     entry.text,
			Kind:     segment.Dialogue,
		}
		if len(entry.words) > 0 {
			seg = seg.WithWords(entry.words)
		}
		segments = append(segments, seg)
	}

	return segments, warnings, nil
}

func (lrcCodec) Write(w io.Writer, segments []segment.Segment, opts WriteOptions) error {
	fracDigits := 3
	if opts.LRCCentiseconds {
		fracDigits = 2
	}

	var sb strings.Builder

	// metadata header block
	for _, key := range []string{"ar", "ti", "al"} {
		if val, ok := opts.Metadata[key]; ok && val != "" {
			sb.WriteString(fmt.Sprintf("[%s:%s]\n", key, val))
		}
	}

	for _, seg := range segments {
		sb.WriteString(fmt.Sprintf("[%s]", timecode.FormatLyric(seg.Start, fracDigits)))

		if words := seg.Words(); opts.WordLevel && len(words) > 0 {
			for _, word := range words {
				sb.WriteString(fmt.Sprintf("<%s>%s",
					timecode.FormatLyric(word.Start, fracDigits),
					word.Symbol))
			}
		} else {
			text := seg.Text
			if opts.NormalizeText {
				text = Normalize(text)
			}
			text = strings.ReplaceAll(text, "\n", " ")
			sb.WriteString(text)
		}
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
