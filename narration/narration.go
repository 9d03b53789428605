// Package narration turns passage text into playable narrated audio with
// word-level timing, backed by a tiered cache and a speech synthesis gateway.
package narration

// WordTiming marks when a single spoken word starts and ends, in seconds
// from the beginning of the narration. Timings are ordered ascending by
// StartSecond.
type WordTiming struct {
	Word        string  `json:"word"`
	StartSecond float64 `json:"startSecond"`
	EndSecond   float64 `json:"endSecond"`
}

// Narration is the playable result of a load: synthesized audio plus
// optional per-word timing. Timing may be empty when transcription failed
// or was never attempted; consumers degrade to proportional estimates.
type Narration struct {
	Key    string
	Voice  string
	Audio  []byte
	Timing []WordTiming

	// Source names where the audio came from: a cache tier name, or
	// "synthesis" on a full cache miss. Diagnostic only.
	Source string
}

// SourceSynthesis is the Source value for a freshly synthesized narration.
const SourceSynthesis = "synthesis"
