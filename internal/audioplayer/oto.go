package audioplayer

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always decodes to 16-bit stereo, 4 bytes per sample frame.
const bytesPerFrame = 4

const watchInterval = 50 * time.Millisecond

// OtoPlayer plays MP3 narration through the system audio device.
//
// The oto context binds to the sample rate of the first clip played and is
// reused for the life of the process. Synthesized narration from a single
// voice shares one sample rate, so this never rebinds in practice.
type OtoPlayer struct {
	mu sync.Mutex

	context     *oto.Context
	contextRate int

	player   *oto.Player
	duration time.Duration

	// Keeps decoded source alive while oto streams from it.
	source *bytes.Reader

	state      PlayerState
	startTime  time.Time
	pausedAt   time.Duration
	totalPause time.Duration

	stopWatch chan struct{}
	watchWg   sync.WaitGroup

	onFinished func()
	onError    func(error)
}

func NewOtoPlayer() *OtoPlayer {
	return &OtoPlayer{state: StateStopped}
}

// Play decodes the MP3 data and starts playback, replacing any clip already
// playing. It returns once the device has accepted the stream.
func (p *OtoPlayer) Play(audio []byte) error {
	if len(audio) == 0 {
		return ErrNoAudio
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateClosed {
		return fmt.Errorf("audioplayer: player is closed")
	}

	p.stopLocked()

	decoder, err := mp3.NewDecoder(bytes.NewReader(audio))
	if err != nil {
		return fmt.Errorf("audioplayer: decode mp3: %w", err)
	}

	if err := p.ensureContext(decoder.SampleRate()); err != nil {
		return err
	}

	frames := decoder.Length() / bytesPerFrame
	p.duration = time.Duration(frames) * time.Second / time.Duration(decoder.SampleRate())
	p.source = bytes.NewReader(audio)

	p.player = p.context.NewPlayer(decoder)
	p.player.Play()

	p.startTime = time.Now()
	p.pausedAt = 0
	p.totalPause = 0
	p.state = StatePlaying

	p.stopWatch = make(chan struct{})
	p.watchWg.Add(1)
	go p.watch(p.player, p.stopWatch)

	return nil
}

// ensureContext lazily initializes the oto context for the given sample rate.
func (p *OtoPlayer) ensureContext(sampleRate int) error {
	if p.context != nil {
		if p.contextRate != sampleRate {
			return fmt.Errorf("audioplayer: sample rate %d does not match device rate %d", sampleRate, p.contextRate)
		}
		return nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("audioplayer: open audio device: %w", err)
	}
	<-ready

	p.context = ctx
	p.contextRate = sampleRate
	return nil
}

// watch polls the device player for natural completion or a device error
// and fires the matching callback exactly once.
func (p *OtoPlayer) watch(player *oto.Player, stop chan struct{}) {
	defer p.watchWg.Done()

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := player.Err(); err != nil {
				p.mu.Lock()
				if p.stopWatch != stop {
					// Play restarted with a new clip while we waited on
					// the lock. The new watcher owns the player now.
					p.mu.Unlock()
					return
				}
				p.stopWatchLocked()
				p.finishLocked()
				onError := p.onError
				p.mu.Unlock()
				if onError != nil {
					onError(err)
				}
				return
			}

			p.mu.Lock()
			if p.stopWatch != stop {
				p.mu.Unlock()
				return
			}
			if p.state != StatePlaying {
				p.mu.Unlock()
				continue
			}
			if player.IsPlaying() {
				p.mu.Unlock()
				continue
			}

			// Device drained the stream: natural end of the clip.
			p.stopWatchLocked()
			p.finishLocked()
			onFinished := p.onFinished
			p.mu.Unlock()

			if onFinished != nil {
				onFinished()
			}
			return
		}
	}
}

// stopWatchLocked detaches the watcher channel so stopLocked will not wait
// on the calling goroutine.
func (p *OtoPlayer) stopWatchLocked() {
	if p.stopWatch != nil {
		close(p.stopWatch)
		p.stopWatch = nil
	}
}

// finishLocked releases the device player after playback ended.
func (p *OtoPlayer) finishLocked() {
	if p.player != nil {
		p.player.Close()
		p.player = nil
	}
	p.source = nil
	p.pausedAt = 0
	p.totalPause = 0
	p.state = StateStopped
}

func (p *OtoPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePlaying {
		return fmt.Errorf("audioplayer: cannot pause while %s", p.state)
	}

	p.player.Pause()
	p.pausedAt = p.positionLocked()
	p.state = StatePaused
	return nil
}

func (p *OtoPlayer) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePaused {
		return fmt.Errorf("audioplayer: cannot resume while %s", p.state)
	}

	p.player.Play()
	p.totalPause += time.Since(p.startTime.Add(p.pausedAt + p.totalPause))
	p.state = StatePlaying
	return nil
}

func (p *OtoPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

func (p *OtoPlayer) stopLocked() {
	if p.state == StateStopped || p.state == StateClosed {
		return
	}
	p.stopWatchLocked()
	if p.player != nil {
		p.player.Pause()
		p.player.Close()
		p.player = nil
	}
	p.source = nil
	p.duration = 0
	p.pausedAt = 0
	p.totalPause = 0
	p.state = StateStopped
}

func (p *OtoPlayer) Close() error {
	p.mu.Lock()
	p.stopLocked()
	p.state = StateClosed
	p.mu.Unlock()

	p.watchWg.Wait()
	return nil
}

// Position reports the playback position in seconds, clamped to the clip
// duration.
func (p *OtoPlayer) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked().Seconds()
}

func (p *OtoPlayer) positionLocked() time.Duration {
	switch p.state {
	case StatePlaying:
		elapsed := time.Since(p.startTime) - p.totalPause
		if elapsed > p.duration {
			elapsed = p.duration
		}
		return elapsed
	case StatePaused:
		return p.pausedAt
	default:
		return 0
	}
}

func (p *OtoPlayer) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration.Seconds()
}

func (p *OtoPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == StatePlaying
}

func (p *OtoPlayer) SetOnFinished(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onFinished = fn
}

func (p *OtoPlayer) SetOnError(fn func(error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onError = fn
}

var _ Player = (*OtoPlayer)(nil)
