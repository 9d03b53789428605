package audioplayer

import (
	"sync"
	"sync/atomic"
)

// MockPlayer simulates playback without touching an audio device. Tests
// drive it deterministically: FinishPlayback raises the natural-completion
// callback and FailPlayback raises the error callback, exactly as the real
// player's device watcher would.
type MockPlayer struct {
	mu sync.Mutex

	state    PlayerState
	audio    []byte
	position float64
	duration float64

	onFinished func()
	onError    func(error)

	// FixedDuration, when set, overrides the duration reported for every
	// clip. Otherwise one second per kilobyte of audio is assumed.
	FixedDuration float64

	// PlayErr makes Play fail without loading the clip.
	PlayErr error

	playCount   atomic.Int64
	pauseCount  atomic.Int64
	resumeCount atomic.Int64
	stopCount   atomic.Int64
}

func NewMockPlayer() *MockPlayer {
	return &MockPlayer{state: StateStopped}
}

func (m *MockPlayer) Play(audio []byte) error {
	if len(audio) == 0 {
		return ErrNoAudio
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PlayErr != nil {
		return m.PlayErr
	}

	m.audio = append([]byte(nil), audio...)
	m.position = 0
	m.duration = m.FixedDuration
	if m.duration == 0 {
		m.duration = float64(len(audio)) / 1024
	}
	m.state = StatePlaying
	m.playCount.Add(1)
	return nil
}

func (m *MockPlayer) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StatePlaying {
		return ErrNoAudio
	}
	m.state = StatePaused
	m.pauseCount.Add(1)
	return nil
}

func (m *MockPlayer) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StatePaused {
		return ErrNoAudio
	}
	m.state = StatePlaying
	m.resumeCount.Add(1)
	return nil
}

func (m *MockPlayer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audio = nil
	m.position = 0
	m.duration = 0
	m.state = StateStopped
	m.stopCount.Add(1)
	return nil
}

func (m *MockPlayer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateClosed
	return nil
}

func (m *MockPlayer) Position() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *MockPlayer) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *MockPlayer) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StatePlaying
}

func (m *MockPlayer) SetOnFinished(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFinished = fn
}

func (m *MockPlayer) SetOnError(fn func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onError = fn
}

// Test drivers.

// Seek moves the simulated position so highlight code can be exercised.
func (m *MockPlayer) Seek(position float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = position
}

// FinishPlayback simulates the clip reaching its natural end.
func (m *MockPlayer) FinishPlayback() {
	m.mu.Lock()
	m.position = m.duration
	m.state = StateStopped
	fn := m.onFinished
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// FailPlayback simulates a device failure mid clip.
func (m *MockPlayer) FailPlayback(err error) {
	m.mu.Lock()
	m.state = StateStopped
	fn := m.onError
	m.mu.Unlock()

	if fn != nil {
		fn(err)
	}
}

// State returns the current lifecycle stage.
func (m *MockPlayer) State() PlayerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Audio returns a copy of the clip currently loaded.
func (m *MockPlayer) Audio() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.audio...)
}

func (m *MockPlayer) PlayCalls() int64   { return m.playCount.Load() }
func (m *MockPlayer) PauseCalls() int64  { return m.pauseCount.Load() }
func (m *MockPlayer) ResumeCalls() int64 { return m.resumeCount.Load() }
func (m *MockPlayer) StopCalls() int64   { return m.stopCount.Load() }

var _ Player = (*MockPlayer)(nil)
