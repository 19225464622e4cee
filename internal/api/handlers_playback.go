package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mhutchins/readaloud/internal/playback"
	"github.com/mhutchins/readaloud/internal/source"
	"github.com/mhutchins/readaloud/internal/speech"
)

type playRequest struct {
	Page int `json:"page"`
}

// handlePlay starts a session at the requested page (default 1).
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	req := playRequest{Page: 1}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	if err := s.ctrl.Play(req.Page); err != nil {
		switch {
		case errors.Is(err, source.ErrNoDocument):
			jsonError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, source.ErrPageOutOfRange):
			jsonError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, playback.ErrAlreadyPlaying):
			jsonError(w, err.Error(), http.StatusConflict)
		default:
			jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Pause()
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Resume()
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Stop()
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

type rateRequest struct {
	WordsPerMinute int `json:"words_per_minute"`
}

// handleRate changes the speaking rate, effective from the next utterance.
func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.ctrl.SetRate(req.WordsPerMinute); err != nil {
		if errors.Is(err, speech.ErrInvalidRate) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"words_per_minute": req.WordsPerMinute})
}

type volumeRequest struct {
	Percent int `json:"percent"`
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.ctrl.SetVolume(req.Percent); err != nil {
		if errors.Is(err, speech.ErrInvalidVolume) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"percent": req.Percent})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
