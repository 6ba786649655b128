package brain

import (
	"context"
	"strings"
	"testing"
)

func TestNewAdapterModes(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{"auto without url", Config{Mode: "auto"}, "*brain.MockAdapter", false},
		{"auto with url", Config{Mode: "auto", HTTPURL: "http://localhost:1"}, "*brain.HTTPAdapter", false},
		{"explicit mock", Config{Mode: "mock"}, "*brain.MockAdapter", false},
		{"http without url", Config{Mode: "http"}, "", true},
		{"unknown", Config{Mode: "telepathy"}, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := New(tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("New() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got := typeName(a); got != tc.want {
				t.Fatalf("New() = %s, want %s", got, tc.want)
			}
		})
	}
}

func typeName(a Adapter) string {
	switch a.(type) {
	case *MockAdapter:
		return "*brain.MockAdapter"
	case *HTTPAdapter:
		return "*brain.HTTPAdapter"
	default:
		return "unknown"
	}
}

func TestMockAdapterReplyEchoesMessage(t *testing.T) {
	a := NewMockAdapter()
	reply, err := a.Reply(context.Background(), "halo", "rules")
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if !strings.Contains(reply, "halo") {
		t.Fatalf("Reply() = %q, want it to reference the inbound text", reply)
	}
}

func TestMockAdapterRespectsCanceledContext(t *testing.T) {
	a := NewMockAdapter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Reply(ctx, "halo", "rules"); err == nil {
		t.Fatalf("Reply() expected error for canceled context")
	}
}
