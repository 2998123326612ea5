// Package caption holds the codec registry and the per-format readers
// and writers that convert between caption files and the in-memory
// segment model.
package caption

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/capseg/capseg/internal/segment"
)

// Warning records a recoverable per-record problem a reader skipped
// over. Callers inspect the list to report precise messages.
type Warning struct {
	Line    int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s", w.Line, w.Message)
}

// ReadOptions control reader behavior shared across codecs.
type ReadOptions struct {
	// Strict escalates the first recoverable malformation to an error
	// instead of a warning.
	Strict bool
	// FallbackLatin1 re-decodes non-UTF-8 input as latin-1 instead of
	// failing with an EncodingError.
	FallbackLatin1 bool
	// FrameRate applies to frame-based timestamps. Zero means the
	// 25fps default.
	FrameRate float64
}

// WriteOptions control writer behavior shared across codecs. Codecs
// ignore options that do not apply to their format.
type WriteOptions struct {
	// IncludeSpeaker inlines the speaker label into the emitted text
	// (or the format's native speaker field where one exists).
	IncludeSpeaker bool
	// WordLevel emits per-word timing when alignment is present,
	// falling back to line level silently when it is not.
	WordLevel bool
	// NormalizeText decodes HTML entities and collapses whitespace.
	NormalizeText bool
	// KaraokeEffect selects the ASS override tag: "kf" (sweep,
	// default), "k" (instant) or "ko" (outline).
	KaraokeEffect string
	// LRCCentiseconds switches LRC tags from millisecond to
	// centisecond precision.
	LRCCentiseconds bool
	// Metadata feeds format header blocks (LRC [ar:]/[ti:]/[al:]).
	Metadata map[string]string
	// FrameRate applies to frame-based timestamps. Zero means the
	// 25fps default.
	FrameRate float64
}

// Reader parses one caption format into segments. Recoverable
// per-record malformations are skipped and accumulated as warnings
// unless ReadOptions.Strict is set.
type Reader interface {
	Read(r io.Reader, opts ReadOptions) ([]segment.Segment, []Warning, error)
}

// Writer renders segments in one caption format. It is a pure function
// of its inputs and never reads ambient state.
type Writer interface {
	Write(w io.Writer, segments []segment.Segment, opts WriteOptions) error
}

// UnsupportedFormatError reports a format with no registered codec, or
// a registered format asked for a direction it does not implement.
type UnsupportedFormatError struct {
	Format    string
	Operation string // "read" or "write"
	Signature string // extension or content signature that failed detection
}

func (e *UnsupportedFormatError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("no format matches %q", e.Signature)
	}
	if e.Operation != "" {
		return fmt.Sprintf("format %q does not support %s", e.Format, e.Operation)
	}
	return fmt.Sprintf("unsupported format %q", e.Format)
}

var multiSpaceRegex = regexp.MustCompile(`\s+`)

// Normalize decodes HTML entities and collapses all whitespace runs
// (newlines included) to single spaces. Readers never do this on their
// own; it is opt-in via WriteOptions.NormalizeText.
func Normalize(text string) string {
	text = html.UnescapeString(text)
	text = multiSpaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
