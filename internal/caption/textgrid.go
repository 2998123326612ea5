package caption

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/capseg/capseg/internal/segment"
	"github.com/capseg/capseg/internal/timecode"
)

// Praat TextGrid, write-only. Produces an "utterances" interval tier;
// with WordLevel and alignment present, a second "words" tier; and a
// "scores" tier holding word confidences when any differ from 1.
// Interval tiers must tile the whole time range, so gaps between
// segments become empty intervals.
type textGridCodec struct{}

type tgInterval struct {
	xmin, xmax time.Duration
	text       string
}

func (textGridCodec) Write(w io.Writer, segments []segment.Segment, opts WriteOptions) error {
	var xmax time.Duration
	for _, seg := range segments {
		if seg.End() > xmax {
			xmax = seg.End()
		}
	}

	utterances := make([]tgInterval, 0, len(segments))
	var words []tgInterval
	var scores []tgInterval
	hasScores := false

	for _, seg := range segments {
		text := seg.Text
		if opts.NormalizeText {
			text = Normalize(text)
		}
		text = strings.ReplaceAll(text, "\n", " ")
		utterances = append(utterances, tgInterval{seg.Start, seg.End(), text})

		if !opts.WordLevel {
			continue
		}
		for _, word := range seg.Words() {
			words = append(words, tgInterval{word.Start, word.End(), word.Symbol})
			conf := word.Confidence
			if conf == 0 {
				conf = 1
			}
			if conf != 1 {
				hasScores = true
			}
			scores = append(scores, tgInterval{word.Start, word.End(), fmt.Sprintf("%.2f", conf)})
		}
	}

	tiers := []struct {
		name      string
		intervals []tgInterval
	}{
		{"utterances", utterances},
	}
	if opts.WordLevel && len(words) > 0 {
		tiers = append(tiers, struct {
			name      string
			intervals []tgInterval
		}{"words", words})
		if hasScores {
			tiers = append(tiers, struct {
				name      string
				intervals []tgInterval
			}{"scores", scores})
		}
	}

	var sb strings.Builder
	sb.WriteString("File type = \"ooTextFile\"\n")
	sb.WriteString("Object class = \"TextGrid\"\n\n")
	sb.WriteString("xmin = 0\n")
	sb.WriteString(fmt.Sprintf("xmax = %s\n", tgSeconds(xmax)))
	sb.WriteString("tiers? <exists>\n")
	sb.WriteString(fmt.Sprintf("size = %d\n", len(tiers)))
	sb.WriteString("item []:\n")

	for t, tier := range tiers {
		filled := tileIntervals(tier.intervals, xmax)
		sb.WriteString(fmt.Sprintf("    item [%d]:\n", t+1))
		sb.WriteString("        class = \"IntervalTier\"\n")
		sb.WriteString(fmt.Sprintf("        name = %q\n", tier.name))
		sb.WriteString("        xmin = 0\n")
		sb.WriteString(fmt.Sprintf("        xmax = %s\n", tgSeconds(xmax)))
		sb.WriteString(fmt.Sprintf("        intervals: size = %d\n", len(filled)))
		for i, iv := range filled {
			sb.WriteString(fmt.Sprintf("        intervals [%d]:\n", i+1))
			sb.WriteString(fmt.Sprintf("            xmin = %s\n", tgSeconds(iv.xmin)))
			sb.WriteString(fmt.Sprintf("            xmax = %s\n", tgSeconds(iv.xmax)))
			sb.WriteString(fmt.Sprintf("            text = %s\n", tgQuote(iv.text)))
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// tileIntervals inserts empty intervals so the tier covers [0, xmax]
// without gaps, dropping overlap by clamping each interval's start to
// the previous end.
func tileIntervals(intervals []tgInterval, xmax time.Duration) []tgInterval {
	var out []tgInterval
	cursor := time.Duration(0)
	for _, iv := range intervals {
		if iv.xmin > cursor {
			out = append(out, tgInterval{cursor, iv.xmin, ""})
		}
		start := iv.xmin
		if start < cursor {
			start = cursor
		}
		if iv.xmax <= start {
			continue
		}
		out = append(out, tgInterval{start, iv.xmax, iv.text})
		cursor = iv.xmax
	}
	if cursor < xmax {
		out = append(out, tgInterval{cursor, xmax, ""})
	}
	if len(out) == 0 {
		out = append(out, tgInterval{0, xmax, ""})
	}
	return out
}

func tgSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", timecode.ToSeconds(d))
}

func tgQuote(s string) string {
	// Praat escapes embedded quotes by doubling them
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
