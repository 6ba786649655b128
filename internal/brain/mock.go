package brain

import (
	"context"
	"fmt"
	"strings"
)

// MockAdapter provides deterministic local replies when no completion
// endpoint is configured.
type MockAdapter struct{}

func NewMockAdapter() *MockAdapter { return &MockAdapter{} }

func (a *MockAdapter) Reply(ctx context.Context, message, _ string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	text := strings.TrimSpace(message)
	if text == "" {
		return "I am listening.", nil
	}
	return fmt.Sprintf("Auto-reply: I received your message %q and will get back to you shortly.", text), nil
}

func (a *MockAdapter) SmartReplies(ctx context.Context, _ []string, current string, count int) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if count <= 0 {
		count = 3
	}
	base := []string{
		"Thanks for reaching out!",
		"Could you tell me a bit more?",
		fmt.Sprintf("Got it, following up on %q.", strings.TrimSpace(current)),
	}
	if count < len(base) {
		base = base[:count]
	}
	return base, nil
}

func (a *MockAdapter) ImprovePrompt(ctx context.Context, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	return strings.TrimSpace(prompt) + " Be concise, specific, and state the desired tone explicitly.", nil
}
