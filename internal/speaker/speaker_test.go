package speaker

import "testing"

func TestExtract(t *testing.T) {
	tests := []struct {
		input        string
		wantSpeaker  string
		wantDialogue string
	}{
		{"[Alice] Hello there", "Alice", "Hello there"},
		{"[Dr. Smith]: Good morning", "Dr. Smith", "Good morning"},
		{">> Bob: How are you", "Bob", "How are you"},
		{"&gt;&gt; Carol: fine thanks", "Carol", "fine thanks"},
		{"JOHN DOE: Welcome to the show", "JOHN DOE", "Welcome to the show"},
		{"SPEAKER_01: hi", "SPEAKER_01", "hi"},
		{"HOST: and we're back", "HOST", "and we're back"},
		{"NARRATOR： fullwidth colon", "NARRATOR", "fullwidth colon"},

		// not speakers
		{"OK: fine", "", "OK: fine"},
		{"[MUSIC] playing", "", "[MUSIC] playing"},
		{"[APPLAUSE]", "", "[APPLAUSE]"},
		{"plain dialogue with no label", "", "plain dialogue with no label"},
		{"The ratio is 3:1 today", "", "The ratio is 3:1 today"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			gotSpeaker, gotDialogue := Extract(tt.input)
			if gotSpeaker != tt.wantSpeaker {
				t.Errorf("speaker: got %q, want %q", gotSpeaker, tt.wantSpeaker)
			}
			if gotDialogue != tt.wantDialogue {
				t.Errorf("dialogue: got %q, want %q", gotDialogue, tt.wantDialogue)
			}
		})
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	tests := []struct {
		speaker  string
		dialogue string
		style    Style
	}{
		{"Alice", "Hello there", Bracket},
		{"Dr. Smith", "Good morning", Bracket},
		{"Bob", "How are you", Chevron},
		{"JOHN DOE", "Welcome to the show", UpperColon},
		{"SPEAKER_01", "hi", UpperColon},
		// labels that do not fit the requested convention still round-trip
		{"MUSIC", "not actually music", Bracket},
		{"Jane", "mixed case name", UpperColon},
	}

	for _, tt := range tests {
		t.Run(tt.speaker, func(t *testing.T) {
			text := Restore(tt.speaker, tt.dialogue, tt.style)
			gotSpeaker, gotDialogue := Extract(text)
			if gotSpeaker != tt.speaker || gotDialogue != tt.dialogue {
				t.Errorf("Extract(Restore(...)) = (%q, %q), want (%q, %q); text was %q",
					gotSpeaker, gotDialogue, tt.speaker, tt.dialogue, text)
			}
		})
	}
}

func TestRestoreEmptySpeaker(t *testing.T) {
	if got := Restore("", "just text", Bracket); got != "just text" {
		t.Errorf("got %q, want unchanged text", got)
	}
}
