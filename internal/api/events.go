package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// event is a message on the playback event feed.
type event struct {
	Type       string  `json:"type"`
	Page       int     `json:"page,omitempty"`
	Percent    float64 `json:"percent,omitempty"`
	ETASeconds float64 `json:"eta_seconds,omitempty"`
	Kind       string  `json:"kind,omitempty"`
	Message    string  `json:"message,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	clientBuffer = 32
	writeTimeout = 5 * time.Second
)

// eventHub fans playback events out to websocket subscribers. Slow clients
// are disconnected rather than allowed to stall the playback worker.
type eventHub struct {
	mu      sync.Mutex
	clients map[chan event]struct{}
	log     *slog.Logger
}

func newEventHub(log *slog.Logger) *eventHub {
	return &eventHub{
		clients: make(map[chan event]struct{}),
		log:     log,
	}
}

func (h *eventHub) subscribe() chan event {
	ch := make(chan event, clientBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *eventHub) unsubscribe(ch chan event) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// broadcast never blocks: a client whose buffer is full is dropped.
func (h *eventHub) broadcast(e event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- e:
		default:
			delete(h.clients, ch)
			close(ch)
			h.log.Warn("dropping slow event subscriber")
		}
	}
}

func (h *eventHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
}

// handleEvents upgrades the connection and streams playback events until the
// client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	ch := s.hub.subscribe()
	defer s.hub.unsubscribe(ch)
	defer conn.Close()

	// Reads are discarded; the read loop only notices disconnects.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(e); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.log.Warn("websocket write failed", "error", err)
				}
				return
			}
		case <-closed:
			return
		}
	}
}
