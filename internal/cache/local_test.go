package cache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgnsrekt/versecast/narration"
)

func TestLocalTierPutGet(t *testing.T) {
	tier, err := NewLocalTier(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalTier() error: %v", err)
	}

	audio := []byte("tiny-mp3")
	timing := []narration.WordTiming{{Word: "In", StartSecond: 0, EndSecond: 0.5}}

	if err := tier.Put(context.Background(), "tts_abc", &Entry{Key: "tts_abc", Audio: audio, Timing: timing}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	entry, err := tier.Get(context.Background(), "tts_abc")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !bytes.Equal(entry.Audio, audio) {
		t.Errorf("Get() audio = %q, want %q", entry.Audio, audio)
	}
	if len(entry.Timing) != 1 || entry.Timing[0].Word != "In" {
		t.Errorf("Get() timing = %+v, want the stored timing", entry.Timing)
	}
	if entry.AccessCount != 1 {
		t.Errorf("AccessCount after first hit = %d, want 1", entry.AccessCount)
	}
}

func TestLocalTierMiss(t *testing.T) {
	tier, err := NewLocalTier(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tier.Get(context.Background(), "tts_nope"); err != ErrMiss {
		t.Errorf("Get() on empty tier = %v, want ErrMiss", err)
	}
}

func TestLocalTierCompressesLargeAudio(t *testing.T) {
	dir := t.TempDir()
	tier, err := NewLocalTier(dir)
	if err != nil {
		t.Fatal(err)
	}

	// Highly compressible payload well over the threshold.
	audio := bytes.Repeat([]byte("abcdefgh"), 4096)
	if err := tier.Put(context.Background(), "tts_big", &Entry{Key: "tts_big", Audio: audio}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "tts_big"+compressedSuffix)); err != nil {
		t.Fatalf("expected compressed audio file: %v", err)
	}

	entry, err := tier.Get(context.Background(), "tts_big")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !bytes.Equal(entry.Audio, audio) {
		t.Error("round-tripped audio differs from original")
	}
}

// TestLocalTierSurvivesReopen verifies persistence across tier lifetimes:
// the second open rebuilds its index from sidecars.
func TestLocalTierSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	first, err := NewLocalTier(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Put(context.Background(), "tts_keep", &Entry{Key: "tts_keep", Audio: []byte("payload")}); err != nil {
		t.Fatal(err)
	}

	second, err := NewLocalTier(dir)
	if err != nil {
		t.Fatal(err)
	}
	entry, err := second.Get(context.Background(), "tts_keep")
	if err != nil {
		t.Fatalf("Get() after reopen error: %v", err)
	}
	if string(entry.Audio) != "payload" {
		t.Errorf("Get() after reopen audio = %q", entry.Audio)
	}
}

// TestLocalTierMissingAudioFileIsMiss verifies that a sidecar without its
// audio file degrades to a miss instead of an error.
func TestLocalTierMissingAudioFileIsMiss(t *testing.T) {
	dir := t.TempDir()
	tier, err := NewLocalTier(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := tier.Put(context.Background(), "tts_gone", &Entry{Key: "tts_gone", Audio: []byte("payload")}); err != nil {
		t.Fatal(err)
	}

	os.Remove(filepath.Join(dir, "tts_gone"+audioSuffix))

	if _, err := tier.Get(context.Background(), "tts_gone"); err != ErrMiss {
		t.Errorf("Get() with missing audio file = %v, want ErrMiss", err)
	}
}

func TestLocalTierStatsAndClear(t *testing.T) {
	tier, err := NewLocalTier(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	tier.Put(ctx, "tts_a", &Entry{Key: "tts_a", Audio: []byte("aaa")})
	tier.Put(ctx, "tts_b", &Entry{Key: "tts_b", Audio: []byte("bbb")})

	stats := tier.Stats()
	if stats.ItemCount != 2 {
		t.Errorf("Stats().ItemCount = %d, want 2", stats.ItemCount)
	}
	if stats.TotalSize == 0 {
		t.Error("Stats().TotalSize = 0, want > 0")
	}

	if err := tier.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if got := tier.Stats().ItemCount; got != 0 {
		t.Errorf("ItemCount after Clear() = %d, want 0", got)
	}
	if _, err := tier.Get(ctx, "tts_a"); err != ErrMiss {
		t.Errorf("Get() after Clear() = %v, want ErrMiss", err)
	}
}

func TestLocalTierAccessAccounting(t *testing.T) {
	tier, err := NewLocalTier(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	tier.Put(ctx, "tts_hit", &Entry{Key: "tts_hit", Audio: []byte("x")})

	for i := 0; i < 3; i++ {
		if _, err := tier.Get(ctx, "tts_hit"); err != nil {
			t.Fatal(err)
		}
	}
	tier.RecordAccess(ctx, "tts_hit")

	entry, err := tier.Get(ctx, "tts_hit")
	if err != nil {
		t.Fatal(err)
	}
	// 3 gets + 1 explicit record + this get.
	if entry.AccessCount != 5 {
		t.Errorf("AccessCount = %d, want 5", entry.AccessCount)
	}
	if entry.LastAccessedAt.IsZero() {
		t.Error("LastAccessedAt not set")
	}
}
