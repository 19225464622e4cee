// Package config loads readaloud configuration from a TOML file with
// environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfig wraps validation failures.
var ErrInvalidConfig = errors.New("invalid configuration")

// ServerConfig configures the HTTP control API. An empty APIKey leaves the
// API unauthenticated, which is the expected setup for local use.
type ServerConfig struct {
	Port   string `toml:"port"`
	APIKey string `toml:"api_key"`
}

// SpeechConfig selects and tunes the speech engine.
type SpeechConfig struct {
	// Engine is "command" (local synthesizer binary) or "remote" (HTTP
	// synthesis endpoint plus local player).
	Engine  string `toml:"engine"`
	Command string `toml:"command"`
	Voice   string `toml:"voice"`
	URL     string `toml:"url"`
	APIKey  string `toml:"api_key"`
	Player  string `toml:"player"`
	RateWPM int    `toml:"rate_wpm"`
	Volume  int    `toml:"volume"`
}

// PlaybackConfig tunes the playback controller.
type PlaybackConfig struct {
	ChunkSize         int `toml:"chunk_size"`
	ParagraphsPerPage int `toml:"paragraphs_per_page"`
	JoinTimeoutMS     int `toml:"join_timeout_ms"`
}

// JoinTimeout returns the Stop join timeout as a duration.
func (p PlaybackConfig) JoinTimeout() time.Duration {
	return time.Duration(p.JoinTimeoutMS) * time.Millisecond
}

// StorageConfig locates on-disk state. An empty DataDir disables the
// resume-position store.
type StorageConfig struct {
	DataDir string `toml:"data_dir"`
}

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Speech   SpeechConfig   `toml:"speech"`
	Playback PlaybackConfig `toml:"playback"`
	Storage  StorageConfig  `toml:"storage"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: "8870"},
		Speech: SpeechConfig{
			Engine:  "command",
			Command: "espeak-ng",
			Player:  "aplay",
			RateWPM: 200,
			Volume:  100,
		},
		Playback: PlaybackConfig{
			ChunkSize:         5,
			ParagraphsPerPage: 10,
			JoinTimeoutMS:     1000,
		},
	}
}

// DefaultPath returns the standard config file location,
// ~/.readaloud/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".readaloud", "config.toml"), nil
}

// Load reads the config file at path, applies READALOUD_* environment
// overrides on top, and validates the result. A missing file is not an
// error; defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// Defaults apply.
		default:
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = envOr("READALOUD_PORT", cfg.Server.Port)
	cfg.Server.APIKey = envOr("READALOUD_API_KEY", cfg.Server.APIKey)
	cfg.Speech.Engine = envOr("READALOUD_SPEECH_ENGINE", cfg.Speech.Engine)
	cfg.Speech.Command = envOr("READALOUD_SPEECH_COMMAND", cfg.Speech.Command)
	cfg.Speech.Voice = envOr("READALOUD_SPEECH_VOICE", cfg.Speech.Voice)
	cfg.Speech.URL = envOr("READALOUD_SPEECH_URL", cfg.Speech.URL)
	cfg.Speech.APIKey = envOr("READALOUD_SPEECH_API_KEY", cfg.Speech.APIKey)
	cfg.Speech.Player = envOr("READALOUD_SPEECH_PLAYER", cfg.Speech.Player)
	cfg.Speech.RateWPM = envInt("READALOUD_RATE_WPM", cfg.Speech.RateWPM)
	cfg.Speech.Volume = envInt("READALOUD_VOLUME", cfg.Speech.Volume)
	cfg.Playback.ChunkSize = envInt("READALOUD_CHUNK_SIZE", cfg.Playback.ChunkSize)
	cfg.Playback.ParagraphsPerPage = envInt("READALOUD_PARAGRAPHS_PER_PAGE", cfg.Playback.ParagraphsPerPage)
	cfg.Playback.JoinTimeoutMS = envInt("READALOUD_JOIN_TIMEOUT_MS", cfg.Playback.JoinTimeoutMS)
	cfg.Storage.DataDir = envOr("READALOUD_DATA_DIR", cfg.Storage.DataDir)
}

// Validate checks cross-field consistency.
func (c Config) Validate() error {
	switch c.Speech.Engine {
	case "command":
		if c.Speech.Command == "" {
			return fmt.Errorf("%w: speech.command is required for the command engine", ErrInvalidConfig)
		}
	case "remote":
		if c.Speech.URL == "" {
			return fmt.Errorf("%w: speech.url is required for the remote engine", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown speech engine %q", ErrInvalidConfig, c.Speech.Engine)
	}
	if c.Speech.RateWPM < 100 || c.Speech.RateWPM > 500 {
		return fmt.Errorf("%w: rate_wpm %d not in [100, 500]", ErrInvalidConfig, c.Speech.RateWPM)
	}
	if c.Speech.Volume < 0 || c.Speech.Volume > 100 {
		return fmt.Errorf("%w: volume %d not in [0, 100]", ErrInvalidConfig, c.Speech.Volume)
	}
	if c.Playback.ChunkSize <= 0 {
		return fmt.Errorf("%w: playback.chunk_size must be positive", ErrInvalidConfig)
	}
	if c.Playback.ParagraphsPerPage <= 0 {
		return fmt.Errorf("%w: playback.paragraphs_per_page must be positive", ErrInvalidConfig)
	}
	if c.Playback.JoinTimeoutMS <= 0 {
		return fmt.Errorf("%w: playback.join_timeout_ms must be positive", ErrInvalidConfig)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
