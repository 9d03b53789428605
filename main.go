// Package main provides the entry point for the versecast CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/versecast/internal/audioplayer"
	"github.com/dgnsrekt/versecast/internal/cache"
	"github.com/dgnsrekt/versecast/internal/config"
	"github.com/dgnsrekt/versecast/internal/passage"
	"github.com/dgnsrekt/versecast/internal/questions"
	"github.com/dgnsrekt/versecast/internal/sessionlog"
	"github.com/dgnsrekt/versecast/narration"
	"github.com/dgnsrekt/versecast/reading"
	"github.com/dgnsrekt/versecast/speech"
	"github.com/dgnsrekt/versecast/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	bookFlag   string
	chapter    int
	voiceFlag  string

	rootCmd = &cobra.Command{
		Use:              "versecast",
		Short:            "Narrated family scripture reading at the terminal",
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		RunE:             execute,
	}
)

func execute(*cobra.Command, []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cfg)

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if len(cfg.Family) == 0 {
		return fmt.Errorf("no family members configured: add them with `versecast config`")
	}

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer store.Wait()

	gateway, err := speech.NewOpenAI(cfg.OpenAIAPIKey)
	if err != nil {
		return err
	}
	loader := narration.NewLoader(store, gateway)

	provider, err := passage.NewProvider(cfg.BibleAPIKey, passage.WithTranslation(cfg.Translation))
	if err != nil {
		return err
	}
	generator, err := questions.NewGenerator(cfg.OpenAIAPIKey)
	if err != nil {
		return err
	}

	sessions, err := sessionlog.Open(cfg.SessionDBDir())
	if err != nil {
		return err
	}
	defer sessions.Close() //nolint:errcheck

	player := audioplayer.NewOtoPlayer()
	defer player.Close() //nolint:errcheck

	session := reading.NewSession(player, sessions, cfg.Book, cfg.Chapter, cfg.Voice)
	session.SetFamily(cfg.Family)

	program := ui.NewProgram(session, ui.Config{
		Provider:  provider,
		Generator: generator,
		Loader:    loader,
	})
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func applyFlags(cfg *config.Config) {
	if bookFlag != "" {
		cfg.Book = bookFlag
	}
	if chapter > 0 {
		cfg.Chapter = chapter
	}
	if voiceFlag != "" {
		cfg.Voice = voiceFlag
	}
}

// buildStore assembles the narration cache chain: local disk always, S3
// behind it when a bucket is configured.
func buildStore(cfg *config.Config) (*cache.Chain, error) {
	local, err := cache.NewLocalTier(cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	tiers := []cache.Tier{local}
	if cfg.RemoteCache.Enabled() {
		client, err := buildS3Client(cfg)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, cache.NewRemoteTier(client, cfg.RemoteCache.Bucket, cfg.RemoteCache.Prefix))
	}

	return cache.NewChain(tiers...), nil
}

func buildS3Client(cfg *config.Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.RemoteCache.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.RemoteCache.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.RemoteCache.Endpoint != "" {
			o.BaseEndpoint = &cfg.RemoteCache.Endpoint
			o.UsePathStyle = true
		}
	}), nil
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the narration cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show local narration cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		local, err := cache.NewLocalTier(cfg.CacheDir)
		if err != nil {
			return err
		}

		stats := local.Stats()
		fmt.Printf("Narration cache: %s\n", cfg.CacheDir)
		fmt.Printf("  entries: %d\n", stats.ItemCount)
		fmt.Printf("  size:    %s\n", humanize.Bytes(uint64(stats.TotalSize))) //nolint:gosec
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all locally cached narration",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		local, err := cache.NewLocalTier(cfg.CacheDir)
		if err != nil {
			return err
		}
		if err := local.Clear(); err != nil {
			return err
		}
		fmt.Println("Cleared narration cache:", cfg.CacheDir)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently completed readings",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := sessionlog.Open(cfg.SessionDBDir())
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		sessions, err := store.Recent(10)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No completed readings yet.")
			return nil
		}

		for _, s := range sessions {
			fmt.Printf("%s  %s (%d questions)\n",
				s.CompletedAt.Local().Format("2006-01-02"), s.Reference, len(s.Questions))
		}
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().StringVarP(&bookFlag, "book", "b", "", "book to read (overrides config)")
	rootCmd.Flags().IntVarP(&chapter, "chapter", "c", 0, "chapter to read (overrides config)")
	rootCmd.Flags().StringVar(&voiceFlag, "voice", "", "narration voice (alloy, echo, fable, onyx, nova, shimmer)")

	_ = viper.BindPFlag("book", rootCmd.Flags().Lookup("book"))
	_ = viper.BindPFlag("chapter", rootCmd.Flags().Lookup("chapter"))
	_ = viper.BindPFlag("voice", rootCmd.Flags().Lookup("voice"))

	viper.SetDefault("voice", "alloy")
	viper.SetDefault("translation", passage.DefaultTranslation)

	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
	rootCmd.AddCommand(configCmd, cacheCmd, historyCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "versecast")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "versecast")}, dirs...)
	}

	if c := os.Getenv("VERSECAST_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("versecast")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("versecast")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return
	}

	configFile = filepath.Join(dirs[0], "versecast.yml")
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
