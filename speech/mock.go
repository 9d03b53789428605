package speech

import (
	"context"
	"sync"
	"time"
)

// MockGateway implements Gateway for testing. It returns scripted audio and
// segments, counts calls, and can be configured to fail either method.
type MockGateway struct {
	mu sync.Mutex

	// Scripted results.
	Audio    []byte
	Segments []Segment

	// Failure injection.
	SynthesizeErr error
	TranscribeErr error

	// Simulated latency.
	Delay time.Duration

	synthesizeCalls int
	transcribeCalls int
}

// NewMock creates a mock gateway that returns a small fixed audio payload
// and no segments.
func NewMock() *MockGateway {
	return &MockGateway{
		Audio: []byte("mock-mp3-audio"),
	}
}

// Synthesize returns the scripted audio after the configured delay.
func (m *MockGateway) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	m.mu.Lock()
	m.synthesizeCalls++
	err := m.SynthesizeErr
	audio := m.Audio
	delay := m.Delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return audio, nil
}

// Transcribe returns the scripted segments.
func (m *MockGateway) Transcribe(ctx context.Context, audio []byte) ([]Segment, error) {
	m.mu.Lock()
	m.transcribeCalls++
	err := m.TranscribeErr
	segments := m.Segments
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return segments, nil
}

// SynthesizeCalls reports how many synthesis calls were made.
func (m *MockGateway) SynthesizeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.synthesizeCalls
}

// TranscribeCalls reports how many transcription calls were made.
func (m *MockGateway) TranscribeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transcribeCalls
}

// Compile-time interface check.
var _ Gateway = (*MockGateway)(nil)
