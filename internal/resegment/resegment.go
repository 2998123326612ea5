package resegment

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/capseg/capseg/internal/segment"
	"github.com/capseg/capseg/internal/speaker"
)

// Resegmenter splits rough transcript segments into alignment-ready
// units. The rules run in a fixed order (event markers, then speaker
// boundaries, then sentence punctuation) and are deterministic: the
// same input always yields the same output, and re-running on its own
// output is a no-op.
type Resegmenter struct {
	// MinTokens is the minimum token count a sentence piece needs
	// before a punctuation split is taken. Guards against fragmenting
	// abbreviations like "Dr." into their own units.
	MinTokens int
	// MinPieceDuration is the floor for any redistributed piece.
	MinPieceDuration time.Duration
	// MarkerDuration is the provisional duration of an isolated event
	// marker unit.
	MarkerDuration time.Duration
}

func NewResegmenter() *Resegmenter {
	return &Resegmenter{
		MinTokens:        2,
		MinPieceDuration: 100 * time.Millisecond,
		MarkerDuration:   100 * time.Millisecond,
	}
}

// a leading bracketed marker is an event ([MUSIC], [applause]) when its
// label has uniform case; mixed case ([Alice]) is a speaker convention
// and left to the speaker rules.
var eventMarkerRegex = regexp.MustCompile(`^\s*(\[[^\[\]:：]+\])\s*`)

// mid-text speaker handoffs: a chevron prefix or an all-caps name with
// a colon after a sentence break.
var (
	chevronBoundaryRegex = regexp.MustCompile(`\s*(?:>>|&gt;&gt;)`)
	upperBoundaryRegex   = regexp.MustCompile(`\s([A-Z][A-Z0-9_]{1,}(?: [A-Z][A-Z0-9_]{1,})?[:：])\s`)
)

// Resplit re-segments each input segment independently. The output
// covers the same text content in the same order (only boundaries
// change), and every piece's time range lies within its source
// segment's range. Redistributed times are provisional; real alignment
// supersedes them.
func (r *Resegmenter) Resplit(segments []segment.Segment) []segment.Segment {
	out := make([]segment.Segment, 0, len(segments))
	for _, seg := range segments {
		out = append(out, r.resplitOne(seg)...)
	}
	return out
}

type piece struct {
	text  string
	event bool
}

func (r *Resegmenter) resplitOne(seg segment.Segment) []segment.Segment {
	pieces := r.split(seg.Text)
	if len(pieces) <= 1 {
		// nothing to do, keep the segment untouched (alignment included)
		return []segment.Segment{seg}
	}

	out := make([]segment.Segment, len(pieces))
	durations := r.redistribute(seg.Duration, pieces)

	start := seg.Start
	for i, p := range pieces {
		unit := segment.Segment{
			Start:    start,
			Duration: durations[i],
			Text:     p.text,
			Kind:     segment.Dialogue,
		}
		if seg.Custom != nil {
			// each piece gets its own bag so later mutations do not
			// leak across siblings
			unit.Custom = make(map[string]any, len(seg.Custom))
			for k, v := range seg.Custom {
				unit.Custom[k] = v
			}
		}
		if p.event {
			unit.Kind = segment.Event
		} else if label, _ := speaker.Extract(p.text); label != "" {
			unit.Speaker = label
		} else {
			unit.Speaker = seg.Speaker
		}
		out[i] = unit
		start = unit.End()
	}
	return out
}

// split applies the boundary rules to one segment's text, producing the
// ordered piece list. Joining the pieces with single spaces reproduces
// the input text modulo collapsed boundary whitespace.
func (r *Resegmenter) split(text string) []piece {
	var pieces []piece

	rest := text
	for {
		m := eventMarkerRegex.FindStringSubmatch(rest)
		if m == nil || !uniformCase(m[1]) {
			break
		}
		pieces = append(pieces, piece{text: m[1], event: true})
		rest = rest[len(m[0]):]
	}

	if strings.TrimSpace(rest) == "" {
		// marker-only segment, never split further
		if len(pieces) == 0 {
			return []piece{{text: text}}
		}
		return pieces
	}

	for _, chunk := range splitSpeakerBoundaries(rest) {
		for _, sentence := range r.splitSentences(chunk) {
			pieces = append(pieces, piece{text: sentence})
		}
	}
	return pieces
}

// uniformCase reports whether the bracketed label is all-caps or
// all-lowercase. Event markers are conventionally uniform; speaker
// names are mixed.
func uniformCase(marker string) bool {
	label := strings.Trim(marker, "[]")
	hasLetter := false
	for _, r := range label {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	if !hasLetter {
		return false
	}
	return label == strings.ToUpper(label) || label == strings.ToLower(label)
}

// splitSpeakerBoundaries cuts the text before every mid-text speaker
// handoff. Boundaries at position zero stay attached to their piece.
func splitSpeakerBoundaries(text string) []string {
	cuts := []int{0}

	for _, loc := range chevronBoundaryRegex.FindAllStringIndex(text, -1) {
		at := loc[0]
		for at < len(text) && (text[at] == ' ' || text[at] == '\t') {
			at++
		}
		if at > 0 && !containsCut(cuts, at) {
			cuts = append(cuts, at)
		}
	}
	for _, loc := range upperBoundaryRegex.FindAllStringSubmatchIndex(text, -1) {
		at := loc[2] // start of the captured name
		label := text[loc[2]:loc[3]]
		if !validUpperLabel(label) {
			continue
		}
		// a name right after a chevron belongs to that handoff's cut
		if before := strings.TrimRight(text[:at], " \t"); strings.HasSuffix(before, ">>") ||
			strings.HasSuffix(before, "&gt;&gt;") {
			continue
		}
		if at > 0 && !containsCut(cuts, at) {
			cuts = append(cuts, at)
		}
	}

	if len(cuts) == 1 {
		return []string{strings.TrimSpace(text)}
	}

	sortInts(cuts)
	var out []string
	for i, at := range cuts {
		end := len(text)
		if i+1 < len(cuts) {
			end = cuts[i+1]
		}
		part := strings.TrimSpace(text[at:end])
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validUpperLabel(label string) bool {
	label = strings.TrimRight(label, ":：")
	letters := 0
	for _, r := range label {
		if r >= 'A' && r <= 'Z' {
			letters++
		}
	}
	return letters >= 3 || strings.Contains(label, " ")
}

func containsCut(cuts []int, at int) bool {
	for _, c := range cuts {
		if c == at {
			return true
		}
	}
	return false
}

func sortInts(v []int) {
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j] < v[j-1]; j-- {
			v[j], v[j-1] = v[j-1], v[j]
		}
	}
}

// splitSentences cuts a dialogue chunk at sentence-final punctuation.
// Ellipses, decimal numbers and pieces below MinTokens never produce a
// cut; consecutive punctuation ("?!") stays with its sentence.
func (r *Resegmenter) splitSentences(text string) []string {
	runes := []rune(text)
	var out []string
	pieceStart := 0

	i := 0
	for i < len(runes) {
		c := runes[i]
		if !isSentencePunct(c) {
			i++
			continue
		}

		// consume the whole punctuation run
		runEnd := i
		for runEnd+1 < len(runes) && isSentencePunct(runes[runEnd+1]) {
			runEnd++
		}

		if c == '.' && runEnd == i {
			// decimal number, e.g. "3.5"
			if i > 0 && i+1 < len(runes) &&
				unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]) {
				i++
				continue
			}
		}
		if c == '.' && runEnd > i {
			// ellipsis is not a boundary
			i = runEnd + 1
			continue
		}

		// ASCII punctuation needs a following space or end of text;
		// CJK sentence enders split anywhere
		next := runEnd + 1
		if isASCIIPunct(c) && next < len(runes) && !unicode.IsSpace(runes[next]) {
			i = next
			continue
		}

		candidate := strings.TrimSpace(string(runes[pieceStart:next]))
		if len(strings.Fields(candidate)) < r.MinTokens && !isCJK(c) {
			i = next
			continue
		}
		if candidate != "" {
			out = append(out, candidate)
		}
		pieceStart = next
		i = next
	}

	if tail := strings.TrimSpace(string(runes[pieceStart:])); tail != "" {
		if len(strings.Fields(tail)) < r.MinTokens && len(out) > 0 {
			// a trailing fragment joins the previous sentence rather
			// than becoming its own unit
			out[len(out)-1] = out[len(out)-1] + " " + tail
		} else {
			out = append(out, tail)
		}
	}
	if len(out) == 0 {
		return []string{strings.TrimSpace(text)}
	}
	return out
}

func isSentencePunct(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '｡', '！', '？':
		return true
	}
	return false
}

func isASCIIPunct(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isCJK(r rune) bool {
	switch r {
	case '。', '｡', '！', '？':
		return true
	}
	return false
}

// redistribute allocates the segment's duration across pieces
// proportional to rune count, with event markers pinned to
// MarkerDuration and every piece floored at MinPieceDuration. The last
// piece absorbs rounding so the final end matches the source end.
func (r *Resegmenter) redistribute(total time.Duration, pieces []piece) []time.Duration {
	durations := make([]time.Duration, len(pieces))
	if total <= 0 {
		return durations
	}

	totalRunes := 0
	reserved := time.Duration(0)
	for _, p := range pieces {
		if p.event {
			reserved += r.MarkerDuration
			continue
		}
		totalRunes += utf8.RuneCountInString(p.text)
	}

	remaining := total - reserved
	if remaining < 0 {
		remaining = 0
	}

	var sum time.Duration
	for i, p := range pieces {
		if p.event {
			durations[i] = r.MarkerDuration
		} else if totalRunes > 0 {
			share := time.Duration(float64(remaining) *
				float64(utf8.RuneCountInString(p.text)) / float64(totalRunes))
			if share < r.MinPieceDuration {
				share = r.MinPieceDuration
			}
			durations[i] = share
		}
		sum += durations[i]
	}

	// scale down when floors overshoot the available duration
	if sum > total {
		for i := range durations {
			durations[i] = time.Duration(float64(durations[i]) * float64(total) / float64(sum))
		}
		sum = 0
		for _, d := range durations {
			sum += d
		}
	}

	if n := len(durations); n > 0 {
		durations[n-1] += total - sum
		if durations[n-1] < 0 {
			durations[n-1] = 0
		}
	}
	return durations
}
