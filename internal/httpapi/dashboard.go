package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/andyrahman/waresponder/internal/store"
)

// Dashboard endpoints mirror the operator UI: browsing a conversation,
// simulating it locally, previewing smart replies and improving the rule
// prompt. None of these touch the WhatsApp transport.

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	phone := strings.TrimSpace(chi.URLParam(r, "phone"))
	if phone == "" {
		respondError(w, http.StatusBadRequest, "invalid_phone", "missing phone number")
		return
	}
	s.countDashboard("list_messages")

	turns, err := s.store.List(r.Context(), phone)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": turns})
}

type simulateRequest struct {
	Text string `json:"text"`
}

type simulateResponse struct {
	UserTurn store.Turn `json:"user_turn"`
	BotTurn  store.Turn `json:"bot_turn"`
}

// handleSimulateMessage runs one conversation turn without the webhook or the
// transport: store the operator-typed user message, generate a reply, store
// it, and stream both to any connected dashboard.
func (s *Server) handleSimulateMessage(w http.ResponseWriter, r *http.Request) {
	phone := strings.TrimSpace(chi.URLParam(r, "phone"))
	if phone == "" {
		respondError(w, http.StatusBadRequest, "invalid_phone", "missing phone number")
		return
	}

	var req simulateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}
	s.countDashboard("simulate_message")

	userTurn, err := s.store.Append(r.Context(), phone, store.Turn{
		Text:   req.Text,
		Sender: store.SenderUser,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	s.hub.Publish(phone, userTurn)

	reply, err := s.brain.Reply(r.Context(), req.Text, s.cfg.ReplyRules)
	if err != nil {
		respondError(w, http.StatusBadGateway, "generation_error", err.Error())
		return
	}

	botTurn, err := s.store.Append(r.Context(), phone, store.Turn{
		Text:      reply,
		Sender:    store.SenderBot,
		Recipient: phone,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	s.hub.Publish(phone, botTurn)

	respondJSON(w, http.StatusOK, simulateResponse{UserTurn: userTurn, BotTurn: botTurn})
}

type smartRepliesRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func (s *Server) handleSmartReplies(w http.ResponseWriter, r *http.Request) {
	var req smartRepliesRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}
	s.countDashboard("smart_replies")

	var history []string
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		turns, err := s.store.List(r.Context(), phone)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "storage_error", err.Error())
			return
		}
		history = formatHistory(turns, s.cfg.HistoryLimit)
	}

	suggestions, err := s.brain.SmartReplies(r.Context(), history, req.Message, s.cfg.SmartReplyCount)
	if err != nil {
		respondError(w, http.StatusBadGateway, "generation_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"suggested_replies": suggestions})
}

type improvePromptRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleImprovePrompt(w http.ResponseWriter, r *http.Request) {
	var req improvePromptRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "prompt is required")
		return
	}
	s.countDashboard("improve_prompt")

	improved, err := s.brain.ImprovePrompt(r.Context(), req.Prompt)
	if err != nil {
		respondError(w, http.StatusBadGateway, "generation_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"improved_prompt": improved})
}

// formatHistory renders the most recent turns as "sender: text" lines for the
// suggestion prompt.
func formatHistory(turns []store.Turn, limit int) []string {
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]string, 0, len(turns))
	for _, t := range turns {
		out = append(out, fmt.Sprintf("%s: %s", t.Sender, t.Text))
	}
	return out
}

func (s *Server) countDashboard(endpoint string) {
	if s.metrics != nil {
		s.metrics.DashboardRequests.WithLabelValues(endpoint).Inc()
	}
}
