// Package highlight maps a playback position to the verse being narrated.
//
// Two strategies exist. When word-level timing survived transcription the
// timing highlighter resolves positions exactly; otherwise a proportional
// fallback assumes verses take equal time. ForTiming picks between them.
package highlight

import (
	"math"

	"github.com/dgnsrekt/versecast/narration"
	"github.com/dgnsrekt/versecast/verse"
)

// NoVerse means the position maps to no verse, either because playback ran
// past the narrated text or because no duration is known yet.
const NoVerse = -1

// Highlighter resolves a playback position in seconds to a zero-based verse
// index, or NoVerse.
type Highlighter interface {
	VerseAt(position float64) int
}

// ForTiming returns the best highlighter available for a narration: exact
// word timing when present, proportional estimation otherwise.
func ForTiming(timing []narration.WordTiming, verses []verse.Verse, duration float64) Highlighter {
	if len(timing) > 0 {
		return NewTimingHighlighter(timing, verses)
	}
	return NewProportionalHighlighter(len(verses), duration)
}

// TimingHighlighter locates the word spoken at a position and maps its
// ordinal to a verse through cumulative per-verse word counts.
type TimingHighlighter struct {
	timing []narration.WordTiming

	// boundaries[i] is the number of words in verses 0..i inclusive, so the
	// word with ordinal w belongs to the first verse whose boundary exceeds w.
	boundaries []int
}

func NewTimingHighlighter(timing []narration.WordTiming, verses []verse.Verse) *TimingHighlighter {
	boundaries := make([]int, len(verses))
	total := 0
	for i, v := range verses {
		total += v.Words()
		boundaries[i] = total
	}
	return &TimingHighlighter{timing: timing, boundaries: boundaries}
}

func (h *TimingHighlighter) VerseAt(position float64) int {
	if len(h.timing) == 0 || len(h.boundaries) == 0 {
		return NoVerse
	}

	word := h.wordAt(position)
	if word == NoVerse {
		return NoVerse
	}

	for i, boundary := range h.boundaries {
		if word < boundary {
			return i
		}
	}

	// Transcript counted more words than the segmenter did. Pin to the last
	// verse rather than dropping the highlight.
	return len(h.boundaries) - 1
}

// wordAt returns the ordinal of the word whose span contains the position.
// A word's span runs from its start to the next word's start, which absorbs
// inter-word silence. Positions before the first word highlight word zero;
// positions past the final word's end return NoVerse.
func (h *TimingHighlighter) wordAt(position float64) int {
	if position < h.timing[0].StartSecond {
		return 0
	}

	last := len(h.timing) - 1
	for i := 0; i < last; i++ {
		if position >= h.timing[i].StartSecond && position < h.timing[i+1].StartSecond {
			return i
		}
	}

	if position <= h.timing[last].EndSecond {
		return last
	}
	return NoVerse
}

// ProportionalHighlighter divides the total duration evenly across verses.
type ProportionalHighlighter struct {
	verses   int
	duration float64
}

func NewProportionalHighlighter(verses int, duration float64) *ProportionalHighlighter {
	return &ProportionalHighlighter{verses: verses, duration: duration}
}

func (h *ProportionalHighlighter) VerseAt(position float64) int {
	if h.verses == 0 || h.duration <= 0 {
		return NoVerse
	}
	if position < 0 {
		return 0
	}

	idx := int(math.Floor(position / h.duration * float64(h.verses)))
	if idx >= h.verses {
		idx = h.verses - 1
	}
	return idx
}

var (
	_ Highlighter = (*TimingHighlighter)(nil)
	_ Highlighter = (*ProportionalHighlighter)(nil)
)
