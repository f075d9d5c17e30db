// Package main provides the entry point for the readaloud CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/Christian-Gennari/local-digital-library-sub001/internal/renderer"
	"github.com/Christian-Gennari/local-digital-library-sub001/speech"
	"github.com/Christian-Gennari/local-digital-library-sub001/speech/audio"
	"github.com/Christian-Gennari/local-digital-library-sub001/speech/document"
	"github.com/Christian-Gennari/local-digital-library-sub001/speech/segment"
	"github.com/Christian-Gennari/local-digital-library-sub001/speech/store"
	"github.com/Christian-Gennari/local-digital-library-sub001/speech/synth"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	voice      string
	rate       float64
	volume     float64
	paged      bool
	serverURL  string
	storeURL   string
	listVoices bool
	width      uint

	keyword = lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Render

	rootCmd = &cobra.Command{
		Use:   "readaloud [FILE]",
		Short: "Read documents aloud, sentence by sentence",
		Long: fmt.Sprintf(
			"\nRead a document aloud with %s, resumable bookmarks and sentence highlighting.",
			keyword("synchronized playback"),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return validateOptions()
		},
		RunE: execute,
	}
)

// envConfig holds environment-only settings.
type envConfig struct {
	LogFile string `env:"READALOUD_LOGFILE"`
	Debug   bool   `env:"READALOUD_DEBUG"`
}

func validateOptions() error {
	serverURL = viper.GetString("server")
	storeURL = viper.GetString("store")
	if serverURL == "" {
		return fmt.Errorf("no synthesis server configured; set %s or the server config key", keyword("--server"))
	}
	if rate != 0 {
		if rate < speech.MinRate || rate > speech.MaxRate {
			return fmt.Errorf("rate must be between %.2f and %.2f", speech.MinRate, speech.MaxRate)
		}
	}
	if volume < 0 || volume > speech.MaxVolume {
		return fmt.Errorf("volume must be between 0 and %.0f", speech.MaxVolume)
	}
	return nil
}

func execute(_ *cobra.Command, args []string) error {
	logger := log.Default()

	client := synth.New(synth.Config{
		BaseURL:           serverURL,
		RequestsPerMinute: viper.GetInt("requests_per_minute"),
		CacheSize:         viper.GetInt("synthesis_cache_size"),
		Voices:            viper.GetStringSlice("voices"),
	}, logger)

	if listVoices {
		for _, v := range client.Voices() {
			fmt.Println(v)
		}
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("missing document; usage: readaloud %s", keyword("FILE"))
	}
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("unable to resolve path: %w", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read document: %w", err)
	}

	st, err := buildStore(logger)
	if err != nil {
		return err
	}

	w, h := terminalSize()
	adapter, view := buildAdapter(string(raw), path, w, h, logger)
	defer adapter.Destroy()

	worker := segment.NewWorker(logger)
	defer worker.Close()

	player, err := audio.NewOtoPlayer(viper.GetInt("sample_rate"), 2)
	if err != nil {
		return err
	}
	defer player.Close() //nolint:errcheck

	index := speech.NewSentenceIndex(st, worker, logger)
	ctrl := speech.NewController(index, client, audio.MP3Decoder{}, player, st, speech.DefaultControllerConfig(), logger)
	defer ctrl.Close() //nolint:errcheck

	applySettingFlags(ctrl)

	ctx := context.Background()
	if err := ctrl.Open(ctx, path, adapter); err != nil {
		return err
	}

	return runLoop(ctx, ctrl, adapter, view)
}

// buildStore picks the persistence backend: a remote library server when
// configured, the local data directory otherwise.
func buildStore(logger *log.Logger) (speech.Storage, error) {
	if storeURL != "" {
		return store.NewHTTPStore(storeURL, nil, logger), nil
	}
	scope := gap.NewScope(gap.User, "readaloud")
	dirs, err := scope.DataDirs()
	if err != nil || len(dirs) == 0 {
		return nil, fmt.Errorf("unable to locate data directory: %w", err)
	}
	return store.NewFileStore(filepath.Join(dirs[0], "documents"), logger)
}

// buildAdapter selects the document format. Markdown flows by chapter;
// anything else is pre-paginated.
func buildAdapter(content, path string, w, h int, logger *log.Logger) (speech.DocumentAdapter, viewer) {
	if !paged && isMarkdown(path) {
		r := renderer.NewFlowing(content, w, h-2)
		return document.NewFlowingAdapter(r, logger), r
	}
	r := renderer.NewPaged(content, w, h-2)
	return document.NewPagedAdapter(r, logger), r
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdown":
		return true
	}
	return false
}

func applySettingFlags(ctrl *speech.Controller) {
	if voice != "" {
		ctrl.SetVoice(voice)
	}
	if rate != 0 {
		ctrl.SetRate(rate)
	}
	if volume != 0 {
		ctrl.SetVolume(volume)
	}
}

func terminalSize() (int, int) {
	w, h := int(width), 24
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if tw, th, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			if w == 0 {
				w = tw
			}
			h = th
		}
	}
	if w == 0 {
		w = 80
	}
	if w > 120 {
		w = 120
	}
	return w, h
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

// setupLog routes logging to READALOUD_LOGFILE when set, discarding it
// otherwise so it never corrupts the reading view.
func setupLog() (func() error, error) {
	cfg, err := env.ParseAs[envConfig]()
	if err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if cfg.LogFile == "" {
		log.SetOutput(io.Discard)
		return func() error { return nil }, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}
	log.SetOutput(f)
	return f.Close, nil
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
	rootCmd.Flags().StringVar(&voice, "voice", "", "synthesis voice")
	rootCmd.Flags().Float64Var(&rate, "rate", 0, "speech rate multiplier")
	rootCmd.Flags().Float64Var(&volume, "volume", 0, "playback volume (0 to 1)")
	rootCmd.Flags().BoolVar(&paged, "paged", false, "force page-based layout")
	rootCmd.Flags().StringVar(&serverURL, "server", "", "synthesis server base URL")
	rootCmd.Flags().StringVar(&storeURL, "store", "", "library server base URL (local files when unset)")
	rootCmd.Flags().BoolVar(&listVoices, "voices", false, "list configured voices and exit")
	rootCmd.Flags().UintVarP(&width, "width", "w", 0, "word-wrap at width (set to 0 to autodetect)")

	_ = viper.BindPFlag("server", rootCmd.Flags().Lookup("server"))
	_ = viper.BindPFlag("store", rootCmd.Flags().Lookup("store"))
	_ = viper.BindPFlag("width", rootCmd.Flags().Lookup("width"))

	viper.SetDefault("server", "http://localhost:5002")
	viper.SetDefault("store", "")
	viper.SetDefault("sample_rate", 22050)
	viper.SetDefault("requests_per_minute", 120)
	viper.SetDefault("synthesis_cache_size", 100)
	viper.SetDefault("voices", []string{"default"})

	rootCmd.AddCommand(configCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "readaloud")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "readaloud")}, dirs...)
	}

	if c := os.Getenv("READALOUD_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("readaloud")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("readaloud")
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

	configFile = filepath.Join(dirs[0], "readaloud.yml")
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
