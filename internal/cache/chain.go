package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/versecast/narration"
)

// Chain composes cache tiers into an ordered fallback: tiers are tried
// sequentially (never raced) until one hits. Per-tier failures are treated
// as misses and never propagate; the worst a broken tier can do is force a
// fresh synthesis.
//
// Population policy is local-first: Put writes the first tier before
// returning and the remaining tiers in detached background tasks whose
// results are discarded.
type Chain struct {
	tiers []Tier
	bg    sync.WaitGroup
}

// NewChain builds a chain over the given tiers, ordered cheapest first.
func NewChain(tiers ...Tier) *Chain {
	return &Chain{tiers: tiers}
}

// Get tries each tier in order. On a hit in a later tier, the entry is
// written through to every earlier tier synchronously (so an immediate
// re-read hits locally) and the serving tier's access accounting runs in
// the background.
func (c *Chain) Get(ctx context.Context, key string) (*narration.CachedAudio, error) {
	for i, tier := range c.tiers {
		entry, err := tier.Get(ctx, key)
		if err != nil {
			if !errors.Is(err, ErrMiss) {
				log.Debug("cache tier read failed", "tier", tier.Name(), "key", key, "error", err)
			}
			continue
		}

		for j := 0; j < i; j++ {
			if err := c.tiers[j].Put(ctx, key, entry); err != nil {
				log.Debug("cache write-through failed", "tier", c.tiers[j].Name(), "key", key, "error", err)
			}
		}

		if i > 0 {
			// The local tier accounts for its own hits inside Get; shared
			// tiers are updated without blocking the audio response.
			bgCtx := context.WithoutCancel(ctx)
			c.detach(func() { tier.RecordAccess(bgCtx, key) })
		}

		return &narration.CachedAudio{
			Audio:  entry.Audio,
			Timing: entry.Timing,
			Tier:   tier.Name(),
		}, nil
	}

	return nil, ErrMiss
}

// Put stores a freshly synthesized narration. The first tier is written
// synchronously; later tiers are populated fire-and-forget so a slow or
// failing shared store never delays the audio becoming playable.
func (c *Chain) Put(ctx context.Context, key string, audio []byte, timing []narration.WordTiming) error {
	if len(c.tiers) == 0 {
		return nil
	}

	entry := &Entry{Key: key, Audio: audio, Timing: timing}

	err := c.tiers[0].Put(ctx, key, entry)
	if err != nil {
		log.Warn("cache write failed", "tier", c.tiers[0].Name(), "key", key, "error", err)
	}

	bgCtx := context.WithoutCancel(ctx)
	for _, tier := range c.tiers[1:] {
		tier := tier
		c.detach(func() {
			if err := tier.Put(bgCtx, key, entry); err != nil {
				log.Warn("background cache write failed", "tier", tier.Name(), "key", key, "error", err)
			}
		})
	}

	return err
}

// Wait blocks until all detached background tasks have settled. Tests use
// it to observe fire-and-forget writes; shutdown uses it to avoid tearing
// down mid-upload.
func (c *Chain) Wait() {
	c.bg.Wait()
}

// detach runs fn as a tracked background task whose outcome is discarded.
func (c *Chain) detach(fn func()) {
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error("background cache task panicked", "panic", r)
			}
		}()
		fn()
	}()
}

// Compile-time check: the chain is the loader's cache store.
var _ narration.Store = (*Chain)(nil)
