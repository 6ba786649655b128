package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Sender delivers text messages through the WhatsApp Business Graph API.
// Without real credentials it runs in simulated mode: sends are logged and
// delayed, never put on the wire.
type Sender struct {
	baseURL       string
	apiVersion    string
	phoneNumberID string
	accessToken   string
	simulated     bool
	simulateDelay time.Duration
	client        *http.Client
}

type Config struct {
	BaseURL       string
	APIVersion    string
	PhoneNumberID string
	AccessToken   string
	// Simulated forces the development fallback even when credentials look
	// real; main sets it from config placeholder detection.
	Simulated     bool
	SimulateDelay time.Duration
}

func NewSender(cfg Config) *Sender {
	delay := cfg.SimulateDelay
	if delay <= 0 {
		delay = time.Second
	}
	return &Sender{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiVersion:    cfg.APIVersion,
		phoneNumberID: cfg.PhoneNumberID,
		accessToken:   cfg.AccessToken,
		simulated:     cfg.Simulated,
		simulateDelay: delay,
		client:        &http.Client{Timeout: 15 * time.Second},
	}
}

// Simulated reports whether sends skip the network.
func (s *Sender) Simulated() bool { return s.simulated }

type sendPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendText sends one text message to the given phone number. A single
// attempt; callers own any retry policy.
func (s *Sender) SendText(ctx context.Context, to, text string) error {
	if s.simulated {
		log.Printf("SIMULATED whatsapp send to %s (credentials not configured): %q", to, text)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.simulateDelay):
		}
		return nil
	}

	payload, err := json.Marshal(sendPayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: text},
	})
	if err != nil {
		return fmt.Errorf("marshal send payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", s.baseURL, s.apiVersion, s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		var ge graphError
		if json.Unmarshal(body, &ge) == nil && ge.Error.Message != "" {
			return fmt.Errorf("whatsapp api status %d: %s", res.StatusCode, ge.Error.Message)
		}
		return fmt.Errorf("whatsapp api status %d: %s", res.StatusCode, string(body))
	}

	log.Printf("whatsapp message sent to %s", to)
	return nil
}
