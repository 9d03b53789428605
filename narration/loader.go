package narration

import (
	"context"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/dgnsrekt/versecast/internal/fingerprint"
	"github.com/dgnsrekt/versecast/speech"
)

// CachedAudio is a cache-store hit: audio, its timing, and the name of the
// tier that served it.
type CachedAudio struct {
	Audio  []byte
	Timing []WordTiming
	Tier   string
}

// Store is the cache consumed by the loader. Implementations try their tiers
// in order (device-local before shared-remote, never raced) and treat every
// tier failure as a miss. Put populates the local tier before returning and
// any remote tiers in the background.
type Store interface {
	Get(ctx context.Context, key string) (*CachedAudio, error)
	Put(ctx context.Context, key string, audio []byte, timing []WordTiming) error
}

// Loader orchestrates narration retrieval: derive the fingerprint, consult
// the cache, and only then pay for synthesis. A given (text, voice) pair is
// synthesized at most once per local-cache lifetime on a device; concurrent
// identical requests are coalesced so overlapping loads share one synthesis.
type Loader struct {
	store   Store
	gateway speech.Gateway
	group   singleflight.Group
}

// NewLoader creates a loader over the given cache store and gateway.
func NewLoader(store Store, gateway speech.Gateway) *Loader {
	return &Loader{store: store, gateway: gateway}
}

// Load returns playable narration for the text in the given voice.
//
// Cache failures of any kind fall through to synthesis and are never
// surfaced. Synthesis failure is fatal to the load. Transcription failure is
// absorbed: the narration comes back with empty timing and the caller falls
// back to proportional highlighting.
func (l *Loader) Load(ctx context.Context, text, voice string) (*Narration, error) {
	key := fingerprint.DeriveKey(text, voice)

	v, err, _ := l.group.Do(key, func() (any, error) {
		return l.load(ctx, key, text, voice)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Narration), nil
}

func (l *Loader) load(ctx context.Context, key, text, voice string) (*Narration, error) {
	if cached, err := l.store.Get(ctx, key); err == nil {
		log.Debug("narration cache hit", "key", key, "tier", cached.Tier)
		return &Narration{
			Key:    key,
			Voice:  voice,
			Audio:  cached.Audio,
			Timing: cached.Timing,
			Source: cached.Tier,
		}, nil
	} else if ctx.Err() != nil {
		return nil, ctx.Err()
	} else {
		log.Debug("narration cache miss", "key", key, "reason", err)
	}

	audio, err := l.gateway.Synthesize(ctx, text, voice)
	if err != nil {
		return nil, err
	}

	var timing []WordTiming
	if segments, err := l.gateway.Transcribe(ctx, audio); err != nil {
		// Degrade to empty timing; highlighting falls back to estimation.
		log.Warn("transcription failed, narration will use estimated highlighting", "key", key, "error", err)
	} else {
		timing = InterpolateTimings(segments)
	}

	if err := l.store.Put(ctx, key, audio, timing); err != nil {
		log.Warn("narration cache write failed", "key", key, "error", err)
	}

	return &Narration{
		Key:    key,
		Voice:  voice,
		Audio:  audio,
		Timing: timing,
		Source: SourceSynthesis,
	}, nil
}
