package tui

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mhutchins/readaloud/internal/playback"
	"github.com/mhutchins/readaloud/internal/source"
	"github.com/mhutchins/readaloud/internal/speech"
)

type nopSink struct {
	rates []int
}

func (s *nopSink) SetRate(wpm int) error {
	if wpm < speech.MinRate || wpm > speech.MaxRate {
		return speech.ErrInvalidRate
	}
	s.rates = append(s.rates, wpm)
	return nil
}

func (s *nopSink) SetVolume(int) error { return nil }

func (s *nopSink) Speak(context.Context, string) error { return nil }

// stubSource serves one fixed page, enough to get a session running.
type stubSource struct{ text string }

func (s *stubSource) Document() source.Document {
	return source.Document{Title: "Stub", Path: "/stub.txt", PageCount: 1}
}
func (s *stubSource) PageCount() int              { return 1 }
func (s *stubSource) Extract(int) (string, error) { return s.text, nil }
func (s *stubSource) Close() error                { return nil }

// heldSink pins every utterance open until released, ignoring cancellation.
type heldSink struct{ release chan struct{} }

func (s *heldSink) SetRate(int) error   { return nil }
func (s *heldSink) SetVolume(int) error { return nil }

func (s *heldSink) Speak(context.Context, string) error {
	<-s.release
	return nil
}

func newTestModel(t *testing.T, sink speech.Sink) Model {
	t.Helper()
	ctrl := playback.New(sink, slog.New(slog.DiscardHandler), playback.Options{})
	t.Cleanup(ctrl.Close)
	doc := source.Document{Title: "Test Book", Path: "/b.txt", PageCount: 10}
	return NewModel(ctrl, doc, 1, 200)
}

func TestModel_ProgressUpdates(t *testing.T) {
	m := newTestModel(t, &nopSink{})

	updated, _ := m.Update(progressMsg{page: 4, percent: 35, etaSeconds: 120})
	got := updated.(Model)
	if got.page != 4 || got.percent != 35 || got.etaSeconds != 120 {
		t.Errorf("model = page %d percent %v eta %v", got.page, got.percent, got.etaSeconds)
	}
}

func TestModel_FinishedQuits(t *testing.T) {
	m := newTestModel(t, &nopSink{})

	updated, cmd := m.Update(finishedMsg{})
	got := updated.(Model)
	if !got.finished || got.percent != 100 {
		t.Errorf("finished = %v, percent = %v", got.finished, got.percent)
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestModel_SessionErrorQuits(t *testing.T) {
	m := newTestModel(t, &nopSink{})

	// Per-utterance failures keep the view alive.
	updated, cmd := m.Update(playbackErrMsg{kind: playback.KindSpeech, message: "synth hiccup"})
	if cmd != nil {
		t.Error("speech error should not quit")
	}
	m = updated.(Model)
	if m.lastErr != "synth hiccup" {
		t.Errorf("lastErr = %q", m.lastErr)
	}

	_, cmd = m.Update(playbackErrMsg{kind: playback.KindSession, message: "sink gone"})
	if cmd == nil {
		t.Error("session error should quit")
	}
}

func TestModel_RateAdjustClamps(t *testing.T) {
	sink := &nopSink{}
	m := newTestModel(t, sink)

	m = m.adjustRate(rateStep)
	if m.rate != 225 {
		t.Errorf("rate = %d, want 225", m.rate)
	}

	// Push far past the maximum; the rate pins at the bound.
	for i := 0; i < 20; i++ {
		m = m.adjustRate(rateStep)
	}
	if m.rate != speech.MaxRate {
		t.Errorf("rate = %d, want %d", m.rate, speech.MaxRate)
	}

	for i := 0; i < 40; i++ {
		m = m.adjustRate(-rateStep)
	}
	if m.rate != speech.MinRate {
		t.Errorf("rate = %d, want %d", m.rate, speech.MinRate)
	}

	for _, r := range sink.rates {
		if r < speech.MinRate || r > speech.MaxRate {
			t.Errorf("sink received out-of-range rate %d", r)
		}
	}
}

func TestModel_StopKeyDoesNotBlockEventLoop(t *testing.T) {
	sink := &heldSink{release: make(chan struct{})}
	t.Cleanup(func() { close(sink.release) })
	ctrl := playback.New(sink, slog.New(slog.DiscardHandler), playback.Options{JoinTimeout: time.Second})
	t.Cleanup(ctrl.Close)
	ctrl.Load(&stubSource{text: "Hello there."})
	if err := ctrl.Play(1); err != nil {
		t.Fatalf("Play: %v", err)
	}
	m := NewModel(ctrl, source.Document{Title: "Stub", PageCount: 1}, 1, 200)

	// The stop key must not join the worker inside Update; with the sink
	// pinned open an inline Stop would stall the loop for the join timeout.
	start := time.Now()
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Fatalf("Update blocked for %v on the stop key", elapsed)
	}
	if cmd == nil {
		t.Fatal("expected a command carrying the stop")
	}
	got := updated.(Model)
	if got.percent != 0 || got.etaSeconds != -1 {
		t.Errorf("progress not reset: percent %v eta %v", got.percent, got.etaSeconds)
	}

	// The deferred command performs the actual stop.
	m.stopCmd()()
	if state := ctrl.State(); state != playback.StateIdle {
		t.Errorf("state after stop command = %q, want idle", state)
	}
}

func TestModel_ViewShowsProgress(t *testing.T) {
	m := newTestModel(t, &nopSink{})
	updated, _ := m.Update(progressMsg{page: 3, percent: 30, etaSeconds: 90})
	m = updated.(Model)
	updated, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = updated.(Model)

	view := m.View()
	for _, want := range []string{"Test Book", "Page 3/10", "200 wpm", "ETA 1m30s"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestFormatETA(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{-1, ""},
		{0, ""},
		{0.2, ""},
		{59, "59s"},
		{90, "1m30s"},
		{3700, "1h1m40s"},
	}

	for _, tt := range tests {
		if got := formatETA(tt.seconds); got != tt.want {
			t.Errorf("formatETA(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
