package store

import (
	"context"
)

// Sender identifies which side of the conversation produced a turn.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Turn is a single persisted message in a conversation. Turns are immutable
// once written; the service never updates or deletes them.
type Turn struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient,omitempty"`
	// Timestamp is Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// Store persists and retrieves conversation turns keyed by the counterpart
// phone number.
type Store interface {
	// Append writes one turn. A missing ID or Timestamp is assigned at call
	// time. The stored turn is returned.
	Append(ctx context.Context, counterpart string, turn Turn) (Turn, error)
	// List returns all turns for counterpart in ascending timestamp order.
	// An unknown counterpart yields an empty slice, not an error.
	List(ctx context.Context, counterpart string) ([]Turn, error)
	Close() error
}
