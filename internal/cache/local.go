package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
)

const (
	// compressThreshold is the minimum audio size worth compressing.
	compressThreshold = 1024

	audioSuffix      = ".mp3"
	compressedSuffix = ".mp3.zst"
	metaSuffix       = ".json"
)

// LocalTier is the device-local persistent cache. Each entry is an audio
// file (zstd-compressed when that actually shrinks it) plus a JSON metadata
// sidecar holding the word timing and access counters. An in-memory index of
// sidecars is built at open.
//
// The tier is exclusively owned by one device. Concurrent same-device
// processes race on the sidecar files; those races are accepted as
// best-effort, matching the advisory nature of the counters.
type LocalTier struct {
	dir string

	mu    sync.Mutex
	index map[string]*Entry

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewLocalTier opens (or creates) a local cache rooted at dir.
func NewLocalTier(dir string) (*LocalTier, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}

	t := &LocalTier{
		dir:     dir,
		index:   make(map[string]*Entry),
		encoder: encoder,
		decoder: decoder,
	}
	t.loadIndex()
	return t, nil
}

// Name implements Tier.
func (t *LocalTier) Name() string { return "local" }

// Get implements Tier. A readable sidecar whose audio file is missing or
// corrupt is dropped from the index and reported as a miss.
func (t *LocalTier) Get(ctx context.Context, key string) (*Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.index[key]
	if !ok {
		return nil, ErrMiss
	}

	data, err := os.ReadFile(filepath.Join(t.dir, entry.StoragePath))
	if err != nil {
		t.dropLocked(key, entry)
		return nil, ErrMiss
	}

	if strings.HasSuffix(entry.StoragePath, compressedSuffix) {
		data, err = t.decoder.DecodeAll(data, nil)
		if err != nil {
			t.dropLocked(key, entry)
			return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
		}
	}

	entry.AccessCount++
	entry.LastAccessedAt = time.Now()
	t.writeSidecarLocked(entry)

	out := *entry
	out.Audio = data
	return &out, nil
}

// Put implements Tier. The write is synchronous: once Put returns, a second
// load on this device is a local hit.
func (t *LocalTier) Put(ctx context.Context, key string, entry *Entry) error {
	data := entry.Audio
	storagePath := key + audioSuffix
	if len(data) > compressThreshold {
		if compressed := t.encoder.EncodeAll(data, nil); len(compressed) < len(data) {
			data = compressed
			storagePath = key + compressedSuffix
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.index[key]; ok && existing.StoragePath != storagePath {
		os.Remove(filepath.Join(t.dir, existing.StoragePath))
	}

	if err := os.WriteFile(filepath.Join(t.dir, storagePath), data, 0o644); err != nil {
		return fmt.Errorf("writing audio file: %w", err)
	}

	now := time.Now()
	stored := &Entry{
		Key:            key,
		Voice:          entry.Voice,
		Timing:         entry.Timing,
		CreatedAt:      now,
		LastAccessedAt: now,
		AudioSize:      int64(len(entry.Audio)),
		StoragePath:    storagePath,
	}
	if err := t.writeSidecarLocked(stored); err != nil {
		return err
	}

	t.index[key] = stored
	return nil
}

// RecordAccess implements Tier. Local accounting already happens on Get;
// this exists for callers that served the audio from elsewhere.
func (t *LocalTier) RecordAccess(ctx context.Context, key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.index[key]
	if !ok {
		return
	}
	entry.AccessCount++
	entry.LastAccessedAt = time.Now()
	t.writeSidecarLocked(entry)
}

// Stats reports the number of cached narrations and their on-disk size.
func (t *LocalTier) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	var s Stats
	for _, entry := range t.index {
		s.ItemCount++
		if info, err := os.Stat(filepath.Join(t.dir, entry.StoragePath)); err == nil {
			s.TotalSize += info.Size()
		}
	}
	return s
}

// Clear removes every cached narration from disk.
func (t *LocalTier) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var firstErr error
	for key, entry := range t.index {
		if err := os.Remove(filepath.Join(t.dir, entry.StoragePath)); err != nil && firstErr == nil && !os.IsNotExist(err) {
			firstErr = err
		}
		if err := os.Remove(filepath.Join(t.dir, key+metaSuffix)); err != nil && firstErr == nil && !os.IsNotExist(err) {
			firstErr = err
		}
		delete(t.index, key)
	}
	return firstErr
}

// loadIndex scans the cache directory for metadata sidecars. Unreadable
// sidecars are skipped; their audio files become orphans cleaned up on the
// next Clear.
func (t *LocalTier) loadIndex() {
	matches, err := filepath.Glob(filepath.Join(t.dir, "*"+metaSuffix))
	if err != nil {
		return
	}

	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil || entry.Key == "" {
			log.Debug("skipping corrupt cache sidecar", "path", path)
			continue
		}
		t.index[entry.Key] = &entry
	}
}

// dropLocked removes a broken entry from the index and disk.
func (t *LocalTier) dropLocked(key string, entry *Entry) {
	delete(t.index, key)
	os.Remove(filepath.Join(t.dir, entry.StoragePath))
	os.Remove(filepath.Join(t.dir, key+metaSuffix))
}

func (t *LocalTier) writeSidecarLocked(entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(t.dir, entry.Key+metaSuffix), data, 0o644); err != nil {
		return fmt.Errorf("writing cache metadata: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ Tier = (*LocalTier)(nil)
