package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/andyrahman/waresponder/internal/brain"
	"github.com/andyrahman/waresponder/internal/config"
	"github.com/andyrahman/waresponder/internal/observability"
	"github.com/andyrahman/waresponder/internal/store"
	"github.com/andyrahman/waresponder/internal/webhook"
)

const maxWebhookBody = 1 << 20

type Server struct {
	cfg      config.Config
	pipeline *webhook.Pipeline
	store    store.Store
	brain    brain.Adapter
	hub      *Hub
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, pipeline *webhook.Pipeline, st store.Store, adapter brain.Adapter, hub *Hub, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		pipeline: pipeline,
		store:    st,
		brain:    adapter,
		hub:      hub,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.AllowAnyOrigin {
					return true
				}
				// A page on another site must not be able to open a stream
				// and read an operator's conversations. Non-browser clients
				// omit Origin and are let through.
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				parsed, err := url.Parse(origin)
				if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
					return false
				}
				return strings.EqualFold(parsed.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/api/whatsapp/webhook", s.handleWebhookVerify)
	r.Post("/api/whatsapp/webhook", s.handleWebhookEvent)

	r.Get("/v1/conversations/{phone}/messages", s.handleListMessages)
	r.Post("/v1/conversations/{phone}/messages", s.handleSimulateMessage)
	r.Get("/v1/conversations/{phone}/ws", s.handleConversationWS)
	r.Post("/v1/smart-replies", s.handleSmartReplies)
	r.Post("/v1/prompt/improve", s.handleImprovePrompt)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"signature_enforced": s.cfg.SignatureEnforced(),
		"delivery":           deliveryMode(s.cfg),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func deliveryMode(cfg config.Config) string {
	if cfg.DeliveryConfigured() {
		return "graph_api"
	}
	return "simulated"
}

// handleWebhookVerify implements the Meta verification handshake.
func (s *Server) handleWebhookVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	challenge, ok := webhook.HandshakeChallenge(
		q.Get("hub.mode"),
		q.Get("hub.verify_token"),
		q.Get("hub.challenge"),
		s.cfg.VerifyToken,
	)
	if !ok {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

func (s *Server) handleWebhookEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "body_read_error", err.Error())
		return
	}

	// The platform may stop waiting, but the pipeline's side effects still
	// land; detach from the request context so a client disconnect cannot
	// abort a half-finished delivery.
	ctx := context.WithoutCancel(r.Context())
	res := s.pipeline.Process(ctx, body, r.Header.Get("X-Hub-Signature-256"))
	respondJSON(w, res.Status, res.Body)
}

var errEmptyBody = errors.New("empty request body")

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return errEmptyBody
	}
	return json.Unmarshal(raw, v)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
