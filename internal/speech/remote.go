package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"sync"
)

// RemoteSink synthesizes speech through an HTTP TTS endpoint and plays the
// returned audio with a local player command. Both the synthesis request and
// the player process honor the Speak context, so cancellation interrupts an
// utterance in either phase.
type RemoteSink struct {
	mu         sync.Mutex
	url        string
	apiKey     string
	voice      string
	player     string
	rate       int
	volume     int
	httpClient *http.Client
	log        *slog.Logger
}

// RemoteConfig configures a RemoteSink.
type RemoteConfig struct {
	URL    string // synthesis endpoint returning WAV audio
	APIKey string // bearer token, empty for unauthenticated endpoints
	Voice  string
	Player string // local playback command, default "aplay"
	Rate   int
	Volume int
}

// synthesisRequest is the JSON body sent to the synthesis endpoint.
type synthesisRequest struct {
	Text        string  `json:"text"`
	Voice       string  `json:"voice,omitempty"`
	WordsPerMin int     `json:"words_per_minute"`
	Volume      float64 `json:"volume"`
}

// NewRemoteSink creates a sink backed by an HTTP synthesis endpoint.
func NewRemoteSink(cfg RemoteConfig, log *slog.Logger) (*RemoteSink, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("remote sink requires a synthesis URL")
	}
	if cfg.Player == "" {
		cfg.Player = "aplay"
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
	return &RemoteSink{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		voice:      cfg.Voice,
		player:     cfg.Player,
		rate:       cfg.Rate,
		volume:     cfg.Volume,
		httpClient: &http.Client{},
		log:        log,
	}, nil
}

// SetRate sets the speech rate in words per minute.
func (s *RemoteSink) SetRate(wordsPerMinute int) error {
	if err := validRate(wordsPerMinute); err != nil {
		return fmt.Errorf("%w: %d", err, wordsPerMinute)
	}
	s.mu.Lock()
	s.rate = wordsPerMinute
	s.mu.Unlock()
	return nil
}

// SetVolume sets the volume as a percentage in [0, 100].
func (s *RemoteSink) SetVolume(percent int) error {
	if err := validVolume(percent); err != nil {
		return fmt.Errorf("%w: %d", err, percent)
	}
	s.mu.Lock()
	s.volume = percent
	s.mu.Unlock()
	return nil
}

// Speak synthesizes text and blocks until local playback finishes or ctx is
// cancelled.
func (s *RemoteSink) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	audio, err := s.synthesize(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrInterrupted, ctx.Err())
		}
		return err
	}
	return s.play(ctx, audio)
}

func (s *RemoteSink) synthesize(ctx context.Context, text string) ([]byte, error) {
	s.mu.Lock()
	req := synthesisRequest{
		Text:        text,
		Voice:       s.voice,
		WordsPerMin: s.rate,
		Volume:      float64(s.volume) / 100.0,
	}
	s.mu.Unlock()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal synthesis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create synthesis request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("synthesis endpoint returned %s: %s", resp.Status, string(respBody))
	}
	return io.ReadAll(resp.Body)
}

// play writes the audio to a temp file and runs the player on it. The file
// is removed once the player exits.
func (s *RemoteSink) play(ctx context.Context, audio []byte) error {
	tmp, err := os.CreateTemp("", "readaloud-*.wav")
	if err != nil {
		return fmt.Errorf("create temp audio file: %w", err)
	}
	defer func() {
		if removeErr := os.Remove(tmp.Name()); removeErr != nil {
			s.log.Warn("failed to remove temp audio file", "path", tmp.Name(), "error", removeErr)
		}
	}()

	if _, err := tmp.Write(audio); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp audio file: %w", err)
	}
	tmp.Close()

	cmd := exec.CommandContext(ctx, s.player, tmp.Name())
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrInterrupted, ctx.Err())
		}
		return fmt.Errorf("%s failed: %w - output: %s", s.player, err, string(output))
	}
	return nil
}
