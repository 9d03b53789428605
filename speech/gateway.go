// Package speech defines the synthesis gateway consumed by the narration
// loader, along with its OpenAI-backed and mock implementations.
package speech

import (
	"context"
	"errors"
)

// Common errors for the speech gateway.
var (
	// ErrNotConfigured indicates missing credentials. Fatal; never retried.
	ErrNotConfigured = errors.New("speech gateway is not configured")

	// ErrSynthesisFailed indicates the upstream TTS call failed. Fatal to the
	// narration request that triggered it.
	ErrSynthesisFailed = errors.New("speech synthesis failed")

	// ErrTranscriptionFailed indicates the timing transcription failed.
	// Non-fatal: callers degrade to estimated highlighting.
	ErrTranscriptionFailed = errors.New("speech transcription failed")
)

// Segment is a transcription-returned span of text with start and end times
// in seconds. Segments are coarser than word level; per-word timing is
// interpolated from them downstream.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Gateway converts text to narrated audio and, optionally, audio back to
// timed text. Implementations are slow and billed; callers must check their
// caches before reaching for one.
type Gateway interface {
	// Synthesize renders text as MP3 audio in the given voice.
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)

	// Transcribe returns timed segments for previously synthesized audio.
	Transcribe(ctx context.Context, audio []byte) ([]Segment, error)
}
