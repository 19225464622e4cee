// Package tui is the interactive terminal reader: a progress view over an
// active playback session with pause, stop and rate controls.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mhutchins/readaloud/internal/playback"
	"github.com/mhutchins/readaloud/internal/source"
	"github.com/mhutchins/readaloud/internal/speech"
)

const rateStep = 25

// Messages delivered from the playback hooks into the event loop.
type (
	progressMsg struct {
		page       int
		percent    float64
		etaSeconds float64
	}
	playbackErrMsg struct {
		kind    string
		message string
	}
	finishedMsg struct{}
)

// Model is the bubbletea model for the reader.
type Model struct {
	ctrl   *playback.Controller
	doc    source.Document
	keys   *KeyMap
	styles *Styles
	bar    progress.Model

	page       int
	percent    float64
	etaSeconds float64
	rate       int
	width      int
	lastErr    string
	finished   bool
}

// NewModel creates the reader model for a loaded controller.
func NewModel(ctrl *playback.Controller, doc source.Document, startPage, rateWPM int) Model {
	return Model{
		ctrl:       ctrl,
		doc:        doc,
		keys:       DefaultKeyMap(),
		styles:     DefaultStyles(),
		bar:        progress.New(progress.WithDefaultGradient()),
		page:       startPage,
		etaSeconds: -1,
		rate:       rateWPM,
		width:      80,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 4
		if m.bar.Width > 60 {
			m.bar.Width = 60
		}
		return m, nil

	case progressMsg:
		m.page = msg.page
		m.percent = msg.percent
		m.etaSeconds = msg.etaSeconds
		return m, nil

	case playbackErrMsg:
		m.lastErr = msg.message
		if msg.kind == playback.KindSession {
			return m, tea.Quit
		}
		return m, nil

	case finishedMsg:
		m.finished = true
		m.percent = 100
		m.etaSeconds = 0
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Sequence(m.stopCmd(), tea.Quit)

	case key.Matches(msg, m.keys.Stop):
		m.percent = 0
		m.etaSeconds = -1
		return m, tea.Sequence(m.stopCmd(), tea.Quit)

	case key.Matches(msg, m.keys.PauseResume):
		switch m.ctrl.State() {
		case playback.StatePlaying:
			m.ctrl.Pause()
		case playback.StatePaused:
			m.ctrl.Resume()
		}
		return m, nil

	case key.Matches(msg, m.keys.RateUp):
		return m.adjustRate(rateStep), nil

	case key.Matches(msg, m.keys.RateDown):
		return m.adjustRate(-rateStep), nil
	}
	return m, nil
}

// stopCmd runs Stop off the event loop. Its bounded join can last up to the
// configured timeout while the worker is blocked sending into this program;
// calling it from Update would freeze the view for that long.
func (m Model) stopCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.Stop()
		return nil
	}
}

func (m Model) adjustRate(delta int) Model {
	rate := m.rate + delta
	if rate < speech.MinRate {
		rate = speech.MinRate
	}
	if rate > speech.MaxRate {
		rate = speech.MaxRate
	}
	if rate == m.rate {
		return m
	}
	if err := m.ctrl.SetRate(rate); err != nil {
		m.lastErr = err.Error()
		return m
	}
	m.rate = rate
	return m
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(m.doc.Title))
	b.WriteString("\n\n")
	b.WriteString("  " + m.bar.ViewAs(m.percent/100))
	b.WriteString("\n\n")
	b.WriteString("  " + m.statusLine())
	b.WriteString("\n")
	if m.lastErr != "" {
		b.WriteString("  " + m.styles.Error.Render(m.lastErr))
		b.WriteString("\n")
	}
	b.WriteString("\n  " + m.helpLine())
	b.WriteString("\n")
	return b.String()
}

func (m Model) statusLine() string {
	state := string(m.ctrl.State())
	if m.finished {
		state = "finished"
	}
	parts := []string{
		m.styles.Normal.Render(fmt.Sprintf("Page %d/%d", m.page, m.doc.PageCount)),
		m.styles.State.Render(state),
		m.styles.Muted.Render(fmt.Sprintf("%d wpm", m.rate)),
	}
	if eta := formatETA(m.etaSeconds); eta != "" {
		parts = append(parts, m.styles.Muted.Render("ETA "+eta))
	}
	return strings.Join(parts, m.styles.Muted.Render(" · "))
}

func (m Model) helpLine() string {
	hints := make([]string, 0, len(m.keys.ShortHelp()))
	for _, binding := range m.keys.ShortHelp() {
		h := binding.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return m.styles.Help.Render(strings.Join(hints, " | "))
}

// formatETA renders a projection like "2m10s". Negative means no estimate
// yet; that and sub-second remainders render as empty.
func formatETA(seconds float64) string {
	if seconds < 0 {
		return ""
	}
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	if d <= 0 {
		return ""
	}
	return d.String()
}

// Run plays doc from startPage and blocks in the reader UI until the session
// ends or the user quits.
func Run(ctrl *playback.Controller, startPage, rateWPM int) error {
	doc, ok := ctrl.Document()
	if !ok {
		return source.ErrNoDocument
	}

	p := tea.NewProgram(NewModel(ctrl, doc, startPage, rateWPM))

	ctrl.SetHooks(playback.Hooks{
		OnProgress: func(page int, percent float64, etaSeconds float64) {
			p.Send(progressMsg{page: page, percent: percent, etaSeconds: etaSeconds})
		},
		OnError: func(kind, message string) {
			p.Send(playbackErrMsg{kind: kind, message: message})
		},
		OnFinished: func() {
			p.Send(finishedMsg{})
		},
	})
	defer ctrl.SetHooks(playback.Hooks{})
	defer ctrl.Stop()

	if err := ctrl.Play(startPage); err != nil {
		return err
	}

	_, err := p.Run()
	return err
}
