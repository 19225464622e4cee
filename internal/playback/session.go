package playback

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the controller's externally observable state.
type State string

const (
	StateIdle     State = "idle"
	StatePlaying  State = "playing"
	StatePaused   State = "paused"
	StateStopping State = "stopping"
)

// Session tracks one playback run from a start page until Stop or the end of
// the document. Only the background worker mutates it; observers read
// Snapshot copies.
type Session struct {
	mu sync.Mutex

	id         string
	startPage  int // 1-based
	totalPages int
	startedAt  time.Time

	currentPage int // 1-based page being read
	segIndex    int // segments spoken on the current page
	segCount    int // segments on the current page
	pagesRead   int
}

func newSession(startPage, totalPages int) *Session {
	return &Session{
		id:          uuid.NewString(),
		startPage:   startPage,
		totalPages:  totalPages,
		startedAt:   time.Now(),
		currentPage: startPage,
	}
}

// setSegmentProgress records that index of count segments on the current
// page have been spoken.
func (s *Session) setSegmentProgress(index, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segIndex = index
	s.segCount = count
}

// advancePage moves to the next page and resets per-page segment progress.
// The published page never exceeds the document; stepping past the last page
// pins it there while the terminal announcement plays out.
func (s *Session) advancePage(next int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next > s.totalPages {
		next = s.totalPages
	}
	s.currentPage = next
	s.segIndex = 0
	s.segCount = 0
	s.pagesRead++
}

// Snapshot is a read-only copy of session progress, safe to publish to
// observers on the foreground side.
type Snapshot struct {
	SessionID  string    `json:"session_id,omitempty"`
	State      State     `json:"state"`
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
	Percent    float64   `json:"percent"`
	ETASeconds float64   `json:"eta_seconds"`
	StartedAt  time.Time `json:"started_at,omitzero"`
}

// Snapshot returns a copy of the current progress. ETASeconds is -1 while no
// page has completed or elapsed time is non-positive (clock skew).
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	percent := 0.0
	if s.segCount > 0 {
		percent = float64(s.segIndex) / float64(s.segCount) * 100
	}

	return Snapshot{
		SessionID:  s.id,
		Page:       s.currentPage,
		TotalPages: s.totalPages,
		Percent:    percent,
		ETASeconds: s.etaLocked(time.Now()),
		StartedAt:  s.startedAt,
	}
}

// etaLocked projects elapsed-per-page over the remaining pages. Callers hold
// s.mu.
func (s *Session) etaLocked(now time.Time) float64 {
	elapsed := now.Sub(s.startedAt)
	if s.pagesRead <= 0 || elapsed <= 0 {
		return -1
	}
	remaining := s.totalPages - (s.startPage - 1) - s.pagesRead
	if remaining <= 0 {
		return 0
	}
	perPage := elapsed.Seconds() / float64(s.pagesRead)
	return perPage * float64(remaining)
}
