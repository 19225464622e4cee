package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/mhutchins/readaloud/internal/position"
	"github.com/mhutchins/readaloud/internal/source"
	"github.com/mhutchins/readaloud/internal/watch"
)

type openDocumentRequest struct {
	Path              string `json:"path"`
	ParagraphsPerPage int    `json:"paragraphs_per_page,omitempty"`
}

type openDocumentResponse struct {
	Document   source.Document `json:"document"`
	ResumePage int             `json:"resume_page,omitempty"`
}

// handleOpenDocument opens a document and makes it the controller's current
// one. Any active session is stopped by the load.
func (s *Server) handleOpenDocument(w http.ResponseWriter, r *http.Request) {
	var req openDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		jsonError(w, "path is required", http.StatusBadRequest)
		return
	}
	if !source.IsSupportedExtension(req.Path) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(req.Path)), http.StatusBadRequest)
		return
	}

	perPage := req.ParagraphsPerPage
	if perPage <= 0 {
		perPage = s.cfg.Playback.ParagraphsPerPage
	}

	src, err := source.Open(req.Path, source.Options{ParagraphsPerPage: perPage})
	if err != nil {
		switch {
		case errors.Is(err, source.ErrNotFound):
			jsonError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, source.ErrEmptyDocument), errors.Is(err, source.ErrCorrupted):
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			jsonError(w, "failed to open document: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	s.ctrl.Load(src)
	s.resetSavedPage()
	s.watchDocument(src.Document().Path)

	resp := openDocumentResponse{Document: src.Document()}
	if s.positions != nil {
		if pos, err := s.positions.Get(r.Context(), src.Document().Path); err == nil {
			if pos.Page >= 1 && pos.Page <= src.Document().PageCount {
				resp.ResumePage = pos.Page
			}
		} else if !errors.Is(err, position.ErrNotFound) {
			s.log.Warn("loading resume position", "path", req.Path, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleCurrentDocument returns the loaded document, if any.
func (s *Server) handleCurrentDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.ctrl.Document()
	if !ok {
		jsonError(w, "no document loaded", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleRecentDocuments lists documents with saved resume positions.
func (s *Server) handleRecentDocuments(w http.ResponseWriter, r *http.Request) {
	if s.positions == nil {
		writeJSON(w, http.StatusOK, map[string]any{"documents": []position.Position{}})
		return
	}
	positions, err := s.positions.List(r.Context())
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if positions == nil {
		positions = []position.Position{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": positions})
}

// resetSavedPage forgets the last persisted page so the next progress event
// for a new document always writes through.
func (s *Server) resetSavedPage() {
	s.mu.Lock()
	s.lastSavedPage = 0
	s.mu.Unlock()
}

// watchDocument replaces the file watcher with one for path. External edits
// stop playback: the cached extraction no longer matches the file.
func (s *Server) watchDocument(path string) {
	s.mu.Lock()
	old := s.watcher
	s.watcher = nil
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}

	w, err := watch.New(path, func(c watch.Change) { s.onDocumentChange(path, c) }, s.log)
	if err != nil {
		s.log.Warn("watching document", "path", path, "error", err)
		return
	}

	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
}

func (s *Server) onDocumentChange(path string, c watch.Change) {
	s.log.Info("document changed on disk, stopping playback", "path", path, "change", c.String())
	go func() {
		s.ctrl.Stop()
		if c == watch.Removed {
			s.ctrl.Close()
		}
		s.hub.broadcast(event{Type: "document_changed", Kind: c.String(), Message: path})
	}()
}
