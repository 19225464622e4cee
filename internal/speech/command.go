package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
)

// CommandSink speaks by running a synthesizer binary per utterance. The
// default binary is espeak-ng; any program accepting espeak-style -s/-a/-v
// flags works. Cancelling the Speak context kills the process, which keeps
// Stop latency below a second regardless of utterance length.
type CommandSink struct {
	mu     sync.Mutex
	binary string
	voice  string
	rate   int
	volume int
	log    *slog.Logger
}

// CommandConfig configures a CommandSink.
type CommandConfig struct {
	Binary string // synthesizer binary, default "espeak-ng"
	Voice  string // voice identifier passed via -v, empty for engine default
	Rate   int    // words per minute, default 200
	Volume int    // percent 0-100, default 100
}

// NewCommandSink creates a sink shelling out to cfg.Binary.
func NewCommandSink(cfg CommandConfig, log *slog.Logger) (*CommandSink, error) {
	if cfg.Binary == "" {
		cfg.Binary = "espeak-ng"
	}
	if cfg.Rate == 0 {
		cfg.Rate = 200
	}
	if cfg.Volume == 0 {
		cfg.Volume = 100
	}
	if err := validRate(cfg.Rate); err != nil {
		return nil, fmt.Errorf("%w: %d", err, cfg.Rate)
	}
	if err := validVolume(cfg.Volume); err != nil {
		return nil, fmt.Errorf("%w: %d", err, cfg.Volume)
	}
	return &CommandSink{
		binary: cfg.Binary,
		voice:  cfg.Voice,
		rate:   cfg.Rate,
		volume: cfg.Volume,
		log:    log,
	}, nil
}

// SetRate sets the speech rate in words per minute.
func (s *CommandSink) SetRate(wordsPerMinute int) error {
	if err := validRate(wordsPerMinute); err != nil {
		return fmt.Errorf("%w: %d", err, wordsPerMinute)
	}
	s.mu.Lock()
	s.rate = wordsPerMinute
	s.mu.Unlock()
	return nil
}

// SetVolume sets the volume as a percentage in [0, 100].
func (s *CommandSink) SetVolume(percent int) error {
	if err := validVolume(percent); err != nil {
		return fmt.Errorf("%w: %d", err, percent)
	}
	s.mu.Lock()
	s.volume = percent
	s.mu.Unlock()
	return nil
}

// SetVoice switches the synthesizer voice for subsequent utterances.
func (s *CommandSink) SetVoice(voice string) {
	s.mu.Lock()
	s.voice = voice
	s.mu.Unlock()
}

// Speak runs the synthesizer and blocks until the utterance has played or
// ctx is cancelled.
func (s *CommandSink) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	s.mu.Lock()
	// espeak amplitude is 0-200 with 100 as the nominal level, so percent
	// maps 1:2.
	args := []string{"-s", strconv.Itoa(s.rate), "-a", strconv.Itoa(s.volume * 2)}
	if s.voice != "" {
		args = append(args, "-v", s.voice)
	}
	binary := s.binary
	s.mu.Unlock()
	args = append(args, text)

	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrInterrupted, ctx.Err())
		}
		return fmt.Errorf("%s failed: %w - output: %s", binary, err, string(output))
	}
	return nil
}
