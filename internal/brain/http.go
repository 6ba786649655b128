package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPAdapter forwards generation requests to an OpenAI-compatible chat
// completions endpoint.
type HTTPAdapter struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

func NewHTTPAdapter(cfg Config) *HTTPAdapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPAdapter{
		url:    strings.TrimSpace(cfg.HTTPURL),
		apiKey: strings.TrimSpace(cfg.APIKey),
		model:  strings.TrimSpace(cfg.Model),
		client: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (a *HTTPAdapter) Reply(ctx context.Context, message, rules string) (string, error) {
	system := strings.Join([]string{
		"You are an AI assistant designed to automatically respond to incoming messages based on predefined rules and patterns.",
		"Analyze the context of the message and formulate an appropriate response based on the provided rules.",
		"The responses should be concise and helpful.",
		"",
		"Here are the rules and patterns to follow:",
		rules,
	}, "\n")

	reply, err := a.chat(ctx, []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: message},
	})
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", errors.New("brain returned an empty reply")
	}
	return reply, nil
}

func (a *HTTPAdapter) SmartReplies(ctx context.Context, history []string, current string, count int) ([]string, error) {
	if count <= 0 {
		count = 3
	}
	system := fmt.Sprintf(strings.Join([]string{
		"You are a helpful chatbot assistant.",
		"Given the conversation history and the latest user message, suggest %d possible replies the operator can send.",
		`Return JSON only, shaped as {"suggested_replies": ["..."]}.`,
	}, "\n"), count)
	user := fmt.Sprintf("Conversation History:\n%s\n\nCurrent Message:\n%s",
		strings.Join(history, "\n"), current)

	raw, err := a.chat(ctx, []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	})
	if err != nil {
		return nil, err
	}
	return parseSuggestions(raw, count)
}

func (a *HTTPAdapter) ImprovePrompt(ctx context.Context, prompt string) (string, error) {
	system := strings.Join([]string{
		"You are an AI assistant designed to help users improve their prompts for a chat application.",
		"Make the prompt clearer and more specific so that the user gets better responses.",
		"Return only the improved prompt with no commentary.",
	}, "\n")

	improved, err := a.chat(ctx, []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return "", err
	}
	improved = strings.TrimSpace(improved)
	if improved == "" {
		return "", errors.New("brain returned an empty improved prompt")
	}
	return improved, nil
}

func (a *HTTPAdapter) chat(ctx context.Context, messages []chatMessage) (string, error) {
	payload, err := json.Marshal(chatRequest{Model: a.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	res, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", fmt.Errorf("brain http status %d: %s", res.StatusCode, string(body))
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var obj chatResponse
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(obj.Choices) == 0 {
		return "", errors.New("no choices in brain response")
	}
	return obj.Choices[0].Message.Content, nil
}

type suggestionsPayload struct {
	SuggestedReplies []string `json:"suggested_replies"`
}

// parseSuggestions accepts the contracted JSON object, a bare JSON array, or
// plain newline-separated text. Completion endpoints are not uniformly strict
// about response_format, so the lenient fallbacks keep the dashboard usable.
func parseSuggestions(raw string, count int) ([]string, error) {
	raw = strings.TrimSpace(raw)

	var payload suggestionsPayload
	if err := json.Unmarshal([]byte(raw), &payload); err == nil && len(payload.SuggestedReplies) > 0 {
		return capSuggestions(payload.SuggestedReplies, count), nil
	}

	var arr []string
	if err := json.Unmarshal([]byte(raw), &arr); err == nil && len(arr) > 0 {
		return capSuggestions(arr, count), nil
	}

	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*0123456789. "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, errors.New("brain returned no reply suggestions")
	}
	return capSuggestions(lines, count), nil
}

func capSuggestions(in []string, count int) []string {
	out := make([]string, 0, count)
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == count {
			break
		}
	}
	return out
}
