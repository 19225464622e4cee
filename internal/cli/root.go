// Package cli wires the readaloud commands.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mhutchins/readaloud/internal/config"
	"github.com/mhutchins/readaloud/internal/speech"
)

var version = "0.3.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "readaloud",
	Short: "Read documents aloud, page by page",
	Long: `readaloud converts paginated documents (PDF, text, Markdown, HTML,
DOCX) to speech, reading page by page with pause, resume and stop controls
and live progress reporting.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default ~/.readaloud/config.toml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file named by --config, falling back to the
// default location.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return config.Config{}, err
		}
	}
	return config.Load(path)
}

// newSink builds the speech sink selected by the configuration.
func newSink(cfg config.Config, log *slog.Logger) (speech.Sink, error) {
	switch cfg.Speech.Engine {
	case "remote":
		return speech.NewRemoteSink(speech.RemoteConfig{
			URL:    cfg.Speech.URL,
			APIKey: cfg.Speech.APIKey,
			Voice:  cfg.Speech.Voice,
			Player: cfg.Speech.Player,
			Rate:   cfg.Speech.RateWPM,
			Volume: cfg.Speech.Volume,
		}, log)
	case "command":
		return speech.NewCommandSink(speech.CommandConfig{
			Binary: cfg.Speech.Command,
			Voice:  cfg.Speech.Voice,
			Rate:   cfg.Speech.RateWPM,
			Volume: cfg.Speech.Volume,
		}, log)
	default:
		return nil, fmt.Errorf("unknown speech engine %q", cfg.Speech.Engine)
	}
}
