// Package cache implements the two-tier narration audio cache: a persistent
// device-local tier and a shared remote tier, composed into an ordered
// fallback chain.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/dgnsrekt/versecast/narration"
)

// Common errors for cache operations.
var (
	// ErrMiss is returned when a key is not present in a tier. The chain
	// treats every tier failure, expected or not, as a miss.
	ErrMiss = errors.New("cache miss")

	// ErrCorrupted is returned when stored data cannot be decoded.
	ErrCorrupted = errors.New("cache data corrupted")
)

// Entry is a cached narration with its bookkeeping metadata. The audio
// payload travels separately from the metadata on disk and in the remote
// store; Audio is populated on reads and excluded from metadata encoding.
type Entry struct {
	Key   string `json:"cache_key"`
	Voice string `json:"voice,omitempty"`
	Audio []byte `json:"-"`

	Timing []narration.WordTiming `json:"timing,omitempty"`

	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	AccessCount    int64     `json:"access_count"`

	// AudioSize is the uncompressed audio payload size in bytes.
	AudioSize int64 `json:"audio_size"`

	// StoragePath locates the audio blob within the owning tier: a file
	// name for the local tier, an object key for the remote tier.
	StoragePath string `json:"storage_path"`
}

// Tier is one cache layer in the fallback chain. Implementations own their
// entries' lifecycle; callers never delete through this interface (eviction
// is a storage-lifecycle concern outside this subsystem).
type Tier interface {
	// Name identifies the tier in logs and narration sources.
	Name() string

	// Get returns the entry for key, including its audio payload, or ErrMiss.
	Get(ctx context.Context, key string) (*Entry, error)

	// Put stores audio and timing under key. Failure is non-fatal to
	// callers; they proceed without caching.
	Put(ctx context.Context, key string, entry *Entry) error

	// RecordAccess bumps the hit counter and last-access timestamp.
	// Best-effort: errors are swallowed and accounting may be lost.
	RecordAccess(ctx context.Context, key string)
}

// Stats summarizes a tier's contents for the cache CLI.
type Stats struct {
	ItemCount int64
	TotalSize int64
}
