package fingerprint

import (
	"fmt"
	"strings"
	"testing"
)

// TestDeriveKeyDeterministic verifies that identical inputs always produce
// identical keys.
func TestDeriveKeyDeterministic(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		voice string
	}{
		{"simple", "In the beginning God created the heaven and the earth.", "alloy"},
		{"empty text", "", "alloy"},
		{"empty voice", "some text", ""},
		{"unicode", "Au commencement, Dieu créa les cieux et la terre. 起初", "nova"},
		{"long passage", strings.Repeat("And God said, Let there be light. ", 200), "onyx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := DeriveKey(tt.text, tt.voice)
			second := DeriveKey(tt.text, tt.voice)
			if first != second {
				t.Errorf("DeriveKey not deterministic: %q != %q", first, second)
			}
			if !strings.HasPrefix(first, "tts_") {
				t.Errorf("DeriveKey() = %q, want tts_ prefix", first)
			}
		})
	}
}

// TestDeriveKeyDistinguishesVoice verifies that the voice participates in
// the fingerprint.
func TestDeriveKeyDistinguishesVoice(t *testing.T) {
	text := "The LORD is my shepherd; I shall not want."
	if DeriveKey(text, "alloy") == DeriveKey(text, "nova") {
		t.Error("same key for different voices")
	}
}

// TestDeriveKeyCollisions runs the fingerprint over a corpus of distinct
// (text, voice) pairs and expects no collisions in practice. Collisions are
// tolerated by the cache design, but should be vanishingly rare.
func TestDeriveKeyCollisions(t *testing.T) {
	voices := []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}

	seen := make(map[string]string)
	pairs := 0
	for i := 0; i < 250; i++ {
		for _, voice := range voices {
			text := fmt.Sprintf("Verse %d: and it came to pass in those days, chapter %d.", i, i*7)
			key := DeriveKey(text, voice)
			id := text + "|" + voice
			if prev, ok := seen[key]; ok {
				t.Fatalf("collision between %q and %q on key %q", prev, id, key)
			}
			seen[key] = id
			pairs++
		}
	}

	if pairs < 1000 {
		t.Fatalf("corpus too small: %d pairs", pairs)
	}
}

// TestDeriveKeyNeverPanics feeds awkward printable input through the hash.
func TestDeriveKeyNeverPanics(t *testing.T) {
	inputs := []string{
		"\x00 embedded nul",
		strings.Repeat("𝔊", 1000),
		"newlines\nand\ttabs",
		"[1] markers [2] everywhere [3]",
	}
	for _, in := range inputs {
		if got := DeriveKey(in, "alloy"); got == "" {
			t.Errorf("DeriveKey(%q) returned empty key", in)
		}
	}
}
