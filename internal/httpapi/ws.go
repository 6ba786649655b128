package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

const wsWriteTimeout = 10 * time.Second

// handleConversationWS streams newly persisted turns for one counterpart to
// a dashboard client as JSON messages.
func (s *Server) handleConversationWS(w http.ResponseWriter, r *http.Request) {
	phone := strings.TrimSpace(chi.URLParam(r, "phone"))
	if phone == "" {
		respondError(w, http.StatusBadRequest, "invalid_phone", "missing phone number")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	turns, cancel := s.hub.Subscribe(phone)
	defer cancel()

	if s.metrics != nil {
		s.metrics.ActiveStreamClients.Inc()
		defer s.metrics.ActiveStreamClients.Dec()
	}

	// Reader goroutine exists only to observe the close handshake.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case turn, ok := <-turns:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(turn); err != nil {
				return
			}
		}
	}
}
