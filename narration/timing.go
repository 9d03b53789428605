package narration

import (
	"strings"

	"github.com/dgnsrekt/versecast/speech"
)

// InterpolateTimings expands coarse transcription segments into per-word
// timings by dividing each segment's duration evenly across its words.
//
// This is an approximation, not true word timing: every word in a segment is
// assumed to take the same time to speak. It is close enough to drive verse
// highlighting, and it degrades gracefully: an empty segment list yields an
// empty timing list.
func InterpolateTimings(segments []speech.Segment) []WordTiming {
	var timings []WordTiming

	for _, seg := range segments {
		words := strings.Fields(seg.Text)
		if len(words) == 0 {
			continue
		}

		span := seg.End - seg.Start
		if span < 0 {
			span = 0
		}
		perWord := span / float64(len(words))

		for i, word := range words {
			start := seg.Start + perWord*float64(i)
			timings = append(timings, WordTiming{
				Word:        word,
				StartSecond: start,
				EndSecond:   start + perWord,
			})
		}
	}

	return timings
}
