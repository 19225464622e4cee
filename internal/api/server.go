// Package api exposes the playback controller over HTTP, with a websocket
// feed for progress events.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mhutchins/readaloud/internal/config"
	"github.com/mhutchins/readaloud/internal/playback"
	"github.com/mhutchins/readaloud/internal/position"
	"github.com/mhutchins/readaloud/internal/watch"
)

// Server is the HTTP control API for readaloud.
type Server struct {
	router    chi.Router
	ctrl      *playback.Controller
	positions *position.Store // nil disables resume positions
	hub       *eventHub
	log       *slog.Logger
	cfg       config.Config

	mu            sync.Mutex
	watcher       *watch.Watcher
	lastSavedPage int
}

// NewServer creates and configures the HTTP server. positions may be nil.
func NewServer(ctrl *playback.Controller, positions *position.Store, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		ctrl:      ctrl,
		positions: positions,
		hub:       newEventHub(log),
		log:       log,
		cfg:       cfg,
	}
	ctrl.SetHooks(playback.Hooks{
		OnProgress: s.onProgress,
		OnError:    s.onError,
		OnFinished: s.onFinished,
	})
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops the document watcher and disconnects event subscribers.
func (s *Server) Close() {
	s.mu.Lock()
	watcher := s.watcher
	s.watcher = nil
	s.mu.Unlock()
	if watcher != nil {
		watcher.Close()
	}
	s.hub.closeAll()
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Control endpoints, authenticated when an API key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.Server.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.Server.APIKey, s.log))
		}

		r.Post("/api/documents/open", s.handleOpenDocument)
		r.Get("/api/documents/current", s.handleCurrentDocument)
		r.Get("/api/documents/recent", s.handleRecentDocuments)

		r.Post("/api/playback/play", s.handlePlay)
		r.Post("/api/playback/pause", s.handlePause)
		r.Post("/api/playback/resume", s.handleResume)
		r.Post("/api/playback/stop", s.handleStop)
		r.Post("/api/playback/rate", s.handleRate)
		r.Post("/api/playback/volume", s.handleVolume)
		r.Get("/api/playback/status", s.handleStatus)
		r.Get("/api/playback/events", s.handleEvents)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// onProgress fans progress out to event subscribers and persists the page as
// the document's resume position.
func (s *Server) onProgress(page int, percent float64, etaSeconds float64) {
	s.hub.broadcast(event{
		Type:       "progress",
		Page:       page,
		Percent:    percent,
		ETASeconds: etaSeconds,
	})
	s.savePosition(page)
}

func (s *Server) onError(kind, message string) {
	s.hub.broadcast(event{Type: "error", Kind: kind, Message: message})
}

func (s *Server) onFinished() {
	s.hub.broadcast(event{Type: "finished"})
	s.clearPosition()
}

func (s *Server) savePosition(page int) {
	if s.positions == nil {
		return
	}
	s.mu.Lock()
	if page == s.lastSavedPage {
		s.mu.Unlock()
		return
	}
	s.lastSavedPage = page
	s.mu.Unlock()

	doc, ok := s.ctrl.Document()
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.positions.Save(ctx, position.Position{
		DocumentPath: doc.Path,
		Page:         page,
		TotalPages:   doc.PageCount,
	}); err != nil {
		s.log.Warn("saving resume position", "path", doc.Path, "error", err)
	}
}

func (s *Server) clearPosition() {
	if s.positions == nil {
		return
	}
	doc, ok := s.ctrl.Document()
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.positions.Delete(ctx, doc.Path); err != nil {
		s.log.Warn("clearing resume position", "path", doc.Path, "error", err)
	}
}
