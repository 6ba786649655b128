package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Adapter produces generated text for the reply pipeline and the dashboard
// helpers. Implementations make at most one attempt per call; retries are the
// caller's (or the platform's) concern.
type Adapter interface {
	// Reply generates an automatic reply to an inbound message under the
	// operator-provided rule prompt.
	Reply(ctx context.Context, message, rules string) (string, error)
	// SmartReplies suggests short replies the operator could send next, given
	// the conversation history and the latest user message.
	SmartReplies(ctx context.Context, history []string, current string, count int) ([]string, error)
	// ImprovePrompt rewrites an operator rule prompt to be clearer and more
	// specific.
	ImprovePrompt(ctx context.Context, prompt string) (string, error)
}

// Config controls adapter construction.
type Config struct {
	Mode    string
	HTTPURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func New(cfg Config) (Adapter, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.HTTPURL) != "" {
			return NewHTTPAdapter(cfg), nil
		}
		return NewMockAdapter(), nil
	case "http":
		if strings.TrimSpace(cfg.HTTPURL) == "" {
			return nil, errors.New("brain HTTP url is required for http mode")
		}
		return NewHTTPAdapter(cfg), nil
	case "mock":
		return NewMockAdapter(), nil
	default:
		return nil, fmt.Errorf("unsupported brain mode %q", cfg.Mode)
	}
}
