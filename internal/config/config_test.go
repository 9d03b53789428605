package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)
	t.Setenv("VERSECAST_CACHE_DIR", t.TempDir())
	t.Setenv("VERSECAST_DATA_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Translation != "de4e12af7f28f599-02" {
		t.Errorf("Translation = %q, want KJV default", cfg.Translation)
	}
	if cfg.Voice != "alloy" {
		t.Errorf("Voice = %q, want alloy", cfg.Voice)
	}
	if cfg.Book != "Genesis" || cfg.Chapter != 1 {
		t.Errorf("plan position = %s %d, want Genesis 1", cfg.Book, cfg.Chapter)
	}
	if cfg.RemoteCache.Enabled() {
		t.Error("remote cache should be disabled without a bucket")
	}
	if cfg.RemoteCache.Prefix != "audio" {
		t.Errorf("remote prefix = %q, want audio", cfg.RemoteCache.Prefix)
	}
}

func TestLoadResolvesPlatformDirs(t *testing.T) {
	resetViper(t)
	t.Setenv("VERSECAST_CACHE_DIR", "")
	t.Setenv("VERSECAST_DATA_DIR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.CacheDir == "" {
		t.Error("CacheDir should fall back to the platform cache dir")
	}
	if !strings.HasSuffix(cfg.CacheDir, "narration") {
		t.Errorf("CacheDir = %q, want a narration subdirectory", cfg.CacheDir)
	}
	if cfg.DataDir == "" {
		t.Error("DataDir should fall back to the platform data dir")
	}
}

func TestLoadFileValues(t *testing.T) {
	resetViper(t)
	t.Setenv("VERSECAST_CACHE_DIR", t.TempDir())
	t.Setenv("VERSECAST_DATA_DIR", t.TempDir())

	viper.SetConfigType("yaml")
	err := viper.ReadConfig(strings.NewReader(`
voice: nova
book: John
chapter: 3
family:
  - name: Noah
    age: 6
  - name: Abigail
    age: 11
remote_cache:
  bucket: family-audio
  region: us-east-1
`))
	if err != nil {
		t.Fatalf("ReadConfig() error: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Voice != "nova" {
		t.Errorf("Voice = %q, want nova", cfg.Voice)
	}
	if cfg.Book != "John" || cfg.Chapter != 3 {
		t.Errorf("plan position = %s %d, want John 3", cfg.Book, cfg.Chapter)
	}
	if len(cfg.Family) != 2 || cfg.Family[0].Name != "Noah" || cfg.Family[1].Age != 11 {
		t.Errorf("Family = %#v", cfg.Family)
	}
	if !cfg.RemoteCache.Enabled() || cfg.RemoteCache.Bucket != "family-audio" {
		t.Errorf("RemoteCache = %#v", cfg.RemoteCache)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	resetViper(t)
	t.Setenv("VERSECAST_CACHE_DIR", t.TempDir())
	t.Setenv("VERSECAST_DATA_DIR", t.TempDir())
	t.Setenv("VERSECAST_VOICE", "onyx")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	viper.SetConfigType("yaml")
	if err := viper.ReadConfig(strings.NewReader("voice: nova\n")); err != nil {
		t.Fatalf("ReadConfig() error: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Voice != "onyx" {
		t.Errorf("Voice = %q, environment should win over file", cfg.Voice)
	}
	if cfg.OpenAIAPIKey != "sk-test" {
		t.Errorf("OpenAIAPIKey = %q", cfg.OpenAIAPIKey)
	}
}

func TestSessionDBDir(t *testing.T) {
	resetViper(t)
	t.Setenv("VERSECAST_CACHE_DIR", t.TempDir())
	dataDir := t.TempDir()
	t.Setenv("VERSECAST_DATA_DIR", dataDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := cfg.SessionDBDir(); !strings.HasPrefix(got, dataDir) || !strings.HasSuffix(got, "sessions") {
		t.Errorf("SessionDBDir() = %q", got)
	}
}
