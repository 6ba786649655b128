package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSendTextPostsGraphPayload(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload sendPayload

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": []map[string]string{{"id": "wamid.X"}}})
	}))
	defer ts.Close()

	s := NewSender(Config{
		BaseURL:       ts.URL,
		APIVersion:    "v20.0",
		PhoneNumberID: "1098765",
		AccessToken:   "tok",
	})

	if err := s.SendText(context.Background(), "+1555", "hello there"); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}

	if gotPath != "/v20.0/1098765/messages" {
		t.Fatalf("path = %q, want %q", gotPath, "/v20.0/1098765/messages")
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("authorization = %q, want bearer token", gotAuth)
	}
	if gotPayload.MessagingProduct != "whatsapp" || gotPayload.Type != "text" {
		t.Fatalf("payload = %+v, want whatsapp text message", gotPayload)
	}
	if gotPayload.To != "+1555" || gotPayload.Text.Body != "hello there" {
		t.Fatalf("payload to/body = %q/%q", gotPayload.To, gotPayload.Text.Body)
	}
}

func TestSendTextSurfacesGraphErrorMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","type":"OAuthException","code":190}}`))
	}))
	defer ts.Close()

	s := NewSender(Config{BaseURL: ts.URL, APIVersion: "v20.0", PhoneNumberID: "1", AccessToken: "bad"})

	err := s.SendText(context.Background(), "+1555", "hi")
	if err == nil {
		t.Fatalf("SendText() expected error on 401")
	}
	if !strings.Contains(err.Error(), "Invalid OAuth access token") {
		t.Fatalf("SendText() error = %v, want graph error message", err)
	}
}

func TestSendTextSimulatedSkipsNetwork(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer ts.Close()

	s := NewSender(Config{BaseURL: ts.URL, Simulated: true, SimulateDelay: time.Millisecond})

	if err := s.SendText(context.Background(), "+1555", "hi"); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}
	if called {
		t.Fatalf("simulated send must not contact the network")
	}
}

func TestSendTextSimulatedHonorsContext(t *testing.T) {
	s := NewSender(Config{Simulated: true, SimulateDelay: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := s.SendText(ctx, "+1555", "hi"); err == nil {
		t.Fatalf("SendText() expected context error during simulated delay")
	}
}
