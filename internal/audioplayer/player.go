// Package audioplayer plays synthesized MP3 narration through the system
// audio device and reports playback position for verse highlighting.
package audioplayer

import "errors"

// ErrNoAudio is returned when playback control is requested with no audio
// loaded.
var ErrNoAudio = errors.New("audioplayer: no audio loaded")

// PlayerState identifies the playback lifecycle stage.
type PlayerState int32

const (
	StateStopped PlayerState = iota
	StatePlaying
	StatePaused
	StateClosed
)

func (s PlayerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Player abstracts audio output. Position and Duration are in seconds so
// they line up with transcript word timing.
//
// OnFinished fires once when playback reaches the natural end of the audio,
// not when Stop interrupts it. OnError fires when the device fails mid
// playback. Both callbacks run on a player-owned goroutine.
type Player interface {
	Play(audio []byte) error
	Pause() error
	Resume() error
	Stop() error
	Close() error

	Position() float64
	Duration() float64
	IsPlaying() bool

	SetOnFinished(fn func())
	SetOnError(fn func(error))
}
