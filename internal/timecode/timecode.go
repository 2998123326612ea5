package timecode

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// notation for a timestamp on the wire
type Kind int

const (
	// 00:00:01,234 (SRT)
	CommaMillis Kind = iota
	// 00:00:01.234 (VTT, SBV, TTML)
	DotMillis
	// 0:00:01.23 (ASS/SSA, LRC line tags)
	ShortCentis
	// 00:00:01:12 with a frame rate (SUB/MicroDVD family)
	Frames
	// 00:00:01, no fractional part (structured transcripts)
	Seconds
)

// DefaultFrameRate is used for frame-based timestamps when the caller
// supplies none.
const DefaultFrameRate = 25.0

func (k Kind) String() string {
	switch k {
	case CommaMillis:
		return "comma-millis"
	case DotMillis:
		return "dot-millis"
	case ShortCentis:
		return "short-centis"
	case Frames:
		return "frames"
	case Seconds:
		return "seconds"
	default:
		return "unknown"
	}
}

// ParseError reports a malformed timestamp or structurally invalid line.
// Callers decide whether to skip the record or abort the read.
type ParseError struct {
	Line    int
	Input   string
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %q", e.Line, e.Message, e.Input)
	}
	return fmt.Sprintf("%s: %q", e.Message, e.Input)
}

var (
	commaMillisRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2}),(\d{3})$`)
	dotMillisRegex   = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})\.(\d{1,3})$`)
	shortCentisRegex = regexp.MustCompile(`^(?:(\d{1,2}):)?(\d{1,2}):(\d{2})\.(\d{1,3})$`)
	framesRegex      = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2}):(\d{1,2})$`)
	secondsRegex     = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})$`)
)

// Parse converts a timestamp in the given notation to a duration.
// Frame-based notations use DefaultFrameRate; use ParseFrames for an
// explicit rate.
func Parse(text string, kind Kind) (time.Duration, error) {
	return parse(text, kind, DefaultFrameRate)
}

// ParseFrames parses an HH:MM:SS:FF timestamp at the given frame rate.
func ParseFrames(text string, frameRate float64) (time.Duration, error) {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	return parse(text, Frames, frameRate)
}

func parse(text string, kind Kind, frameRate float64) (time.Duration, error) {
	trimmed := strings.TrimSpace(text)

	switch kind {
	case CommaMillis:
		m := commaMillisRegex.FindStringSubmatch(trimmed)
		if m == nil {
			return 0, &ParseError{Input: text, Message: "invalid HH:MM:SS,mmm timestamp"}
		}
		return hmsFrac(m[1], m[2], m[3], m[4], 3)

	case DotMillis:
		m := dotMillisRegex.FindStringSubmatch(trimmed)
		if m == nil {
			return 0, &ParseError{Input: text, Message: "invalid HH:MM:SS.mmm timestamp"}
		}
		return hmsFrac(m[1], m[2], m[3], m[4], 3)

	case ShortCentis:
		m := shortCentisRegex.FindStringSubmatch(trimmed)
		if m == nil {
			return 0, &ParseError{Input: text, Message: "invalid MM:SS.cc timestamp"}
		}
		hours := m[1]
		if hours == "" {
			hours = "0"
		}
		return hmsFrac(hours, m[2], m[3], m[4], len(m[4]))

	case Frames:
		m := framesRegex.FindStringSubmatch(trimmed)
		if m == nil {
			return 0, &ParseError{Input: text, Message: "invalid HH:MM:SS:FF timestamp"}
		}
		base, err := hmsFrac(m[1], m[2], m[3], "0", 3)
		if err != nil {
			return 0, err
		}
		frames, err := strconv.Atoi(m[4])
		if err != nil {
			return 0, &ParseError{Input: text, Message: "invalid frame count"}
		}
		if float64(frames) >= frameRate {
			return 0, &ParseError{
				Input:   text,
				Message: fmt.Sprintf("frame count %d exceeds rate %g", frames, frameRate),
			}
		}
		frameDur := time.Duration(float64(frames) / frameRate * float64(time.Second))
		return base + frameDur, nil

	case Seconds:
		m := secondsRegex.FindStringSubmatch(trimmed)
		if m == nil {
			return 0, &ParseError{Input: text, Message: "invalid HH:MM:SS timestamp"}
		}
		return hmsFrac(m[1], m[2], m[3], "0", 3)

	default:
		return 0, &ParseError{Input: text, Message: "unknown timestamp notation"}
	}
}

// hmsFrac assembles a duration from hour/minute/second strings plus a
// fractional field of the given digit count (3 = millis, 2 = centis).
func hmsFrac(hours, minutes, seconds, frac string, fracDigits int) (time.Duration, error) {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, &ParseError{Input: hours, Message: "invalid hours"}
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, &ParseError{Input: minutes, Message: "invalid minutes"}
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, &ParseError{Input: seconds, Message: "invalid seconds"}
	}
	if m >= 60 || s >= 60 {
		return 0, &ParseError{
			Input:   fmt.Sprintf("%s:%s:%s", hours, minutes, seconds),
			Message: "minutes/seconds out of range",
		}
	}

	f, err := strconv.Atoi(frac)
	if err != nil {
		return 0, &ParseError{Input: frac, Message: "invalid fractional seconds"}
	}
	var fracDur time.Duration
	switch fracDigits {
	case 1:
		fracDur = time.Duration(f) * 100 * time.Millisecond
	case 2:
		fracDur = time.Duration(f) * 10 * time.Millisecond
	default:
		fracDur = time.Duration(f) * time.Millisecond
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		fracDur, nil
}

// Format renders a duration in the given notation. Output is zero padded
// and deterministic; sub-precision remainders are truncated, so a
// ShortCentis round-trip may lose up to 9.99ms.
func Format(d time.Duration, kind Kind) string {
	return format(d, kind, DefaultFrameRate)
}

// FormatFrames renders an HH:MM:SS:FF timestamp at the given frame rate.
func FormatFrames(d time.Duration, frameRate float64) string {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	return format(d, Frames, frameRate)
}

func format(d time.Duration, kind Kind, frameRate float64) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	switch kind {
	case CommaMillis:
		return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
	case DotMillis:
		return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
	case ShortCentis:
		return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, seconds, millis/10)
	case Frames:
		frames := int(float64(millis) / 1000.0 * frameRate)
		return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
	case Seconds:
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	default:
		return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
	}
}

var lyricRegex = regexp.MustCompile(`^(\d{1,3}):(\d{2})\.(\d{2,3})$`)

// ParseLyric parses the mm:ss.xx / mm:ss.xxx form used by LRC tags.
// Minutes are not wrapped at 60.
func ParseLyric(text string) (time.Duration, error) {
	m := lyricRegex.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, &ParseError{Input: text, Message: "invalid mm:ss.xx timestamp"}
	}
	mins, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, &ParseError{Input: text, Message: "invalid minutes"}
	}
	secs, err := strconv.Atoi(m[2])
	if err != nil || secs >= 60 {
		return 0, &ParseError{Input: text, Message: "invalid seconds"}
	}
	frac, err := strconv.Atoi(m[3])
	if err != nil {
		return 0, &ParseError{Input: text, Message: "invalid fractional seconds"}
	}
	fracDur := time.Duration(frac) * time.Millisecond
	if len(m[3]) == 2 {
		fracDur *= 10
	}
	return time.Duration(mins)*time.Minute +
		time.Duration(secs)*time.Second +
		fracDur, nil
}

// FormatLyric renders the LRC mm:ss tag form. fracDigits is 2 for
// centisecond precision, 3 for millisecond.
func FormatLyric(d time.Duration, fracDigits int) string {
	if d < 0 {
		d = 0
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000
	if fracDigits == 2 {
		return fmt.Sprintf("%02d:%02d.%02d", mins, secs, millis/10)
	}
	return fmt.Sprintf("%02d:%02d.%03d", mins, secs, millis)
}

// FromFrames converts a raw frame count at the given rate to a
// duration.
func FromFrames(frames int, frameRate float64) time.Duration {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	if frames < 0 {
		frames = 0
	}
	return time.Duration(float64(frames) / frameRate * float64(time.Second))
}

// ToFrames converts a duration to a frame count at the given rate,
// rounded to nearest.
func ToFrames(d time.Duration, frameRate float64) int {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	if d < 0 {
		d = 0
	}
	return int(math.Round(d.Seconds() * frameRate))
}

// FromSeconds converts float seconds (the JSON boundary form) to a
// duration, rounding to the nearest millisecond.
func FromSeconds(sec float64) time.Duration {
	if sec < 0 {
		sec = 0
	}
	return time.Duration(sec*1000+0.5) * time.Millisecond
}

// ToSeconds converts a duration to float seconds.
func ToSeconds(d time.Duration) float64 {
	return d.Seconds()
}
