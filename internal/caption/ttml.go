package caption

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/capseg/capseg/internal/segment"
	"github.com/capseg/capseg/internal/timecode"
)

// TTML (Timed Text Markup Language). One <p begin end> per segment;
// with WordLevel and alignment present, each word becomes a nested
// <span begin end> and the root carries itunes:timing="Word". Words are
// separated by the spans' trailing text, not by spaces inside the
// spans, so players highlight words without the separator.
type ttmlCodec struct{}

type ttmlDoc struct {
	XMLName xml.Name  `xml:"tt"`
	Timing  string    `xml:"timing,attr"`
	Divs    []ttmlDiv `xml:"body>div"`
}

type ttmlDiv struct {
	Paragraphs []ttmlPara `xml:"p"`
}

type ttmlPara struct {
	Begin    string     `xml:"begin,attr"`
	End      string     `xml:"end,attr"`
	Agent    string     `xml:"agent,attr"`
	Chardata string     `xml:",chardata"`
	Spans    []ttmlSpan `xml:"span"`
}

type ttmlSpan struct {
	Begin string `xml:"begin,attr"`
	End   string `xml:"end,attr"`
	Text  string `xml:",chardata"`
}

func (ttmlCodec) Read(r io.Reader, opts ReadOptions) ([]segment.Segment, []Warning, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("ttml: failed to read input: %w", err)
	}
	text, err := decodeText(data, opts.FallbackLatin1)
	if err != nil {
		return nil, nil, err
	}

	var doc ttmlDoc
	if err := xml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, nil, fmt.Errorf("ttml: invalid XML: %w", err)
	}

	var segments []segment.Segment
	var warnings []Warning

	for _, div := range doc.Divs {
		for _, p := range div.Paragraphs {
			start, err1 := parseTTMLTime(p.Begin)
			end, err2 := parseTTMLTime(p.End)
			if err1 != nil || err2 != nil || end < start {
				warn := Warning{Message: fmt.Sprintf("invalid p time range begin=%q end=%q", p.Begin, p.End)}
				if opts.Strict {
					return nil, nil, fmt.Errorf("ttml: %s", warn.Message)
				}
				warnings = append(warnings, warn)
				continue
			}

			seg := segment.Segment{
				Start:    start,
				Duration: end - start,
				Speaker:  p.Agent,
				Kind:     segment.Dialogue,
			}

			if len(p.Spans) > 0 {
				words := make([]segment.AlignmentItem, 0, len(p.Spans))
				symbols := make([]string, 0, len(p.Spans))
				for _, span := range p.Spans {
					ws, err1 := parseTTMLTime(span.Begin)
					we, err2 := parseTTMLTime(span.End)
					symbol := strings.TrimSpace(span.Text)
					if err1 != nil || err2 != nil || symbol == "" {
						continue
					}
					words = append(words, segment.AlignmentItem{
						Symbol:     symbol,
						Start:      ws,
						Duration:   we - ws,
						Confidence: 1,
					})
					symbols = append(symbols, symbol)
				}
				seg.Text = strings.Join(symbols, " ")
				if len(words) > 0 {
					seg = seg.WithWords(words)
				}
			} else {
				seg.Text = strings.TrimSpace(p.Chardata)
			}

			segments = append(segments, seg)
		}
	}

	return segments, warnings, nil
}

// parseTTMLTime accepts the clock-time form (HH:MM:SS.mmm, with comma
// tolerated) and the offset-time form (12.5s).
func parseTTMLTime(text string) (time.Duration, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, ",", "."))
	if strings.HasSuffix(text, "s") && !strings.Contains(text, ":") {
		var sec float64
		if _, err := fmt.Sscanf(text, "%fs", &sec); err != nil {
			return 0, fmt.Errorf("invalid offset time %q", text)
		}
		return timecode.FromSeconds(sec), nil
	}
	return timecode.Parse(text, timecode.DotMillis)
}

func (ttmlCodec) Write(w io.Writer, segments []segment.Segment, opts WriteOptions) error {
	var sb strings.Builder

	wordLevel := false
	if opts.WordLevel {
		for _, seg := range segments {
			if len(seg.Words()) > 0 {
				wordLevel = true
				break
			}
		}
	}

	sb.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	sb.WriteString(`<tt xmlns="http://www.w3.org/ns/ttml" xmlns:ttm="http://www.w3.org/ns/ttml#metadata"`)
	if wordLevel {
		sb.WriteString(` xmlns:itunes="http://music.apple.com/lyric-ttml-internal" itunes:timing="Word"`)
	}
	sb.WriteString(">\n  <body>\n    <div>\n")

	for _, seg := range segments {
		text := seg.Text
		if opts.NormalizeText {
			text = Normalize(text)
		}

		agent := ""
		if opts.IncludeSpeaker && seg.Speaker != "" {
			agent = fmt.Sprintf(` ttm:agent="%s"`, xmlEscape(seg.Speaker))
		}

		sb.WriteString(fmt.Sprintf(`      <p begin="%s" end="%s"%s>`,
			timecode.Format(seg.Start, timecode.DotMillis),
			timecode.Format(seg.End(), timecode.DotMillis),
			agent))

		if words := seg.Words(); wordLevel && len(words) > 0 {
			for i, word := range words {
				sb.WriteString(fmt.Sprintf(`<span begin="%s" end="%s">%s</span>`,
					timecode.Format(word.Start, timecode.DotMillis),
					timecode.Format(word.End(), timecode.DotMillis),
					xmlEscape(word.Symbol)))
				// the separating space lives between spans, as span
				// tail text, so highlighting excludes it
				if i < len(words)-1 {
					sb.WriteString(" ")
				}
			}
		} else {
			sb.WriteString(xmlEscape(strings.ReplaceAll(text, "\n", " ")))
		}
		sb.WriteString("</p>\n")
	}

	sb.WriteString("    </div>\n  </body>\n</tt>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func xmlEscape(s string) string {
	var sb strings.Builder
	if err := xml.EscapeText(&sb, []byte(s)); err != nil {
		return s
	}
	return sb.String()
}
