// Package config assembles runtime configuration from the environment and
// the viper-loaded config file. Environment variables win over file values.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/versecast/internal/passage"
	"github.com/dgnsrekt/versecast/internal/questions"
)

// RemoteCache configures the optional S3 narration cache tier. It is
// enabled whenever a bucket is set.
type RemoteCache struct {
	Bucket   string `env:"VERSECAST_CACHE_BUCKET"`
	Region   string `env:"VERSECAST_CACHE_REGION"`
	Endpoint string `env:"VERSECAST_CACHE_ENDPOINT"`
	Prefix   string `env:"VERSECAST_CACHE_PREFIX"`
}

// Enabled reports whether the remote tier should be wired in.
func (r RemoteCache) Enabled() bool {
	return r.Bucket != ""
}

// Config holds everything the application needs to run a reading session.
type Config struct {
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	BibleAPIKey  string `env:"API_BIBLE_KEY"`

	Translation string `env:"VERSECAST_TRANSLATION"`
	Voice       string `env:"VERSECAST_VOICE"`

	CacheDir string `env:"VERSECAST_CACHE_DIR"`
	DataDir  string `env:"VERSECAST_DATA_DIR"`

	RemoteCache RemoteCache

	Debug bool `env:"DEBUG"`

	// Reading plan position and participants come from the config file
	// only, so they carry no env tags.
	Book    string
	Chapter int
	Family  []questions.FamilyMember
}

// Load builds the configuration: config-file values first, environment
// overrides second, derived defaults last.
func Load() (*Config, error) {
	cfg := &Config{
		Translation: viper.GetString("translation"),
		Voice:       viper.GetString("voice"),
		CacheDir:    viper.GetString("cache_dir"),
		DataDir:     viper.GetString("data_dir"),
		Book:        viper.GetString("book"),
		Chapter:     viper.GetInt("chapter"),
		Debug:       viper.GetBool("debug"),
		RemoteCache: RemoteCache{
			Bucket:   viper.GetString("remote_cache.bucket"),
			Region:   viper.GetString("remote_cache.region"),
			Endpoint: viper.GetString("remote_cache.endpoint"),
			Prefix:   viper.GetString("remote_cache.prefix"),
		},
	}

	if err := viper.UnmarshalKey("family", &cfg.Family); err != nil {
		return nil, fmt.Errorf("config: parse family: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.Translation == "" {
		c.Translation = passage.DefaultTranslation
	}
	if c.Voice == "" {
		c.Voice = "alloy"
	}
	if c.Book == "" {
		c.Book = "Genesis"
	}
	if c.Chapter == 0 {
		c.Chapter = 1
	}
	if c.RemoteCache.Prefix == "" {
		c.RemoteCache.Prefix = "audio"
	}

	scope := gap.NewScope(gap.User, "versecast")

	if c.CacheDir == "" {
		dir, err := scope.CacheDir()
		if err != nil {
			return fmt.Errorf("config: resolve cache dir: %w", err)
		}
		c.CacheDir = filepath.Join(dir, "narration")
	}
	if c.DataDir == "" {
		dirs, err := scope.DataDirs()
		if err != nil {
			return fmt.Errorf("config: resolve data dir: %w", err)
		}
		if len(dirs) == 0 {
			return fmt.Errorf("config: no data dir available")
		}
		c.DataDir = dirs[0]
	}
	return nil
}

// SessionDBDir is where the badger session log lives.
func (c *Config) SessionDBDir() string {
	return filepath.Join(c.DataDir, "sessions")
}
