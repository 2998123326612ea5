package speaker

import (
	"fmt"
	"regexp"
	"strings"
)

// Style selects how Restore inlines a speaker label into text.
type Style int

const (
	// [Name] dialogue
	Bracket Style = iota
	// >> Name: dialogue
	Chevron
	// NAME: dialogue
	UpperColon
)

// Label conventions, checked in order; first match wins. The colon may
// be ASCII or fullwidth. The all-caps form requires one or two words of
// at least 2 letters each and at least 3 letters total, so that short
// interjections like "OK:" are left alone.
var (
	bracketRegex = regexp.MustCompile(`^\s*\[([^\[\]]+)\]\s*[:：]?\s*(.*)$`)
	chevronRegex = regexp.MustCompile(`^\s*(?:>>|&gt;&gt;)\s*([^:：]+?)\s*[:：]\s*(.*)$`)
	upperRegex   = regexp.MustCompile(`^\s*([A-Z][A-Z0-9_]{1,}(?: [A-Z][A-Z0-9_]{1,})?)\s*[:：]\s*(.*)$`)
	speakerRegex = regexp.MustCompile(`^\s*(SPEAKER_\d+)\s*[:：]\s*(.*)$`)
)

// minUpperLabelLetters rejects one-word all-caps prefixes that are too
// short to be a name.
const minUpperLabelLetters = 3

// Extract recognizes a leading speaker label and separates it from the
// dialogue. Unrecognized text comes back unchanged with an empty
// speaker.
func Extract(text string) (speakerLabel, dialogue string) {
	if m := bracketRegex.FindStringSubmatch(text); m != nil {
		label := strings.TrimSpace(m[1])
		if label != "" && !looksLikeEventMarker(label) {
			return label, m[2]
		}
	}

	if m := chevronRegex.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), m[2]
	}

	if m := speakerRegex.FindStringSubmatch(text); m != nil {
		return m[1], m[2]
	}

	if m := upperRegex.FindStringSubmatch(text); m != nil {
		label := m[1]
		if letterCount(label) >= minUpperLabelLetters || strings.Contains(label, " ") {
			return label, m[2]
		}
	}

	return "", text
}

// Restore inlines a speaker label so that Extract recovers the same
// pair. An empty speaker returns the dialogue untouched.
func Restore(speakerLabel, dialogue string, style Style) string {
	if speakerLabel == "" {
		return dialogue
	}
	switch style {
	case Bracket:
		// a single all-caps bracketed word would read back as an event
		// marker, so such labels get the chevron form instead
		if looksLikeEventMarker(speakerLabel) {
			return fmt.Sprintf(">> %s: %s", speakerLabel, dialogue)
		}
		return fmt.Sprintf("[%s] %s", speakerLabel, dialogue)
	case Chevron:
		return fmt.Sprintf(">> %s: %s", speakerLabel, dialogue)
	default:
		// the bare colon form only reads back for the all-caps
		// convention; anything else keeps the chevron prefix
		if rest, _ := upperRegexMatch(speakerLabel); !rest {
			return fmt.Sprintf(">> %s: %s", speakerLabel, dialogue)
		}
		return fmt.Sprintf("%s: %s", speakerLabel, dialogue)
	}
}

// event markers like [MUSIC] or [APPLAUSE] are single all-caps words;
// the bracket speaker form must not swallow them.
func looksLikeEventMarker(label string) bool {
	if strings.Contains(label, " ") {
		return false
	}
	return label == strings.ToUpper(label) && label != strings.ToLower(label)
}

// upperRegexMatch reports whether a label satisfies the all-caps name
// convention Extract accepts for the bare colon form.
func upperRegexMatch(label string) (bool, string) {
	if speakerRegex.MatchString(label + ": x") {
		return true, label
	}
	m := upperRegex.FindStringSubmatch(label + ": x")
	if m == nil || m[1] != label {
		return false, ""
	}
	if letterCount(label) < minUpperLabelLetters && !strings.Contains(label, " ") {
		return false, ""
	}
	return true, label
}

func letterCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			n++
		}
	}
	return n
}
