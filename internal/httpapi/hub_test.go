package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/andyrahman/waresponder/internal/store"
)

func TestHubPublishReachesOnlyMatchingCounterpart(t *testing.T) {
	h := NewHub()

	a, cancelA := h.Subscribe("+1555")
	defer cancelA()
	b, cancelB := h.Subscribe("+1666")
	defer cancelB()

	h.Publish("+1555", store.Turn{Text: "hi", Sender: store.SenderUser})

	select {
	case turn := <-a:
		if turn.Text != "hi" {
			t.Fatalf("turn = %+v", turn)
		}
	case <-time.After(time.Second):
		t.Fatalf("subscriber for +1555 received nothing")
	}

	select {
	case turn := <-b:
		t.Fatalf("subscriber for +1666 received foreign turn %+v", turn)
	default:
	}
}

func TestHubSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe("+1555")
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			h.Publish("+1555", store.Turn{Text: "x"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Publish blocked on a full subscriber")
	}
}

func TestHubCancelRemovesSubscriber(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe("+1555")
	if h.SubscriberCount() != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1", h.SubscriberCount())
	}
	cancel()
	if h.SubscriberCount() != 0 {
		t.Fatalf("SubscriberCount() = %d after cancel, want 0", h.SubscriberCount())
	}
}

func TestConversationWSRejectsCrossOrigin(t *testing.T) {
	srv, _, _ := newTestServer(t, "")
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/conversations/+1555/ws"
	header := http.Header{"Origin": []string{"https://evil.example"}}
	conn, res, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err == nil {
		conn.Close()
		t.Fatal("cross-origin dial succeeded, want handshake rejection")
	}
	if res != nil {
		defer res.Body.Close()
		if res.StatusCode != http.StatusForbidden {
			t.Fatalf("handshake status = %d, want 403", res.StatusCode)
		}
	}
}

func TestConversationWSStreamsSimulatedTurns(t *testing.T) {
	srv, _, _ := newTestServer(t, "")
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/conversations/+1555/ws"
	conn, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("ws dial error = %v", err)
	}
	if res != nil {
		res.Body.Close()
	}
	defer conn.Close()

	// Give the handler a moment to register its hub subscription.
	time.Sleep(50 * time.Millisecond)

	httpRes, err := http.Post(ts.URL+"/v1/conversations/+1555/messages", "application/json",
		bytes.NewReader([]byte(`{"text":"halo"}`)))
	if err != nil {
		t.Fatalf("simulate POST error = %v", err)
	}
	httpRes.Body.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first, second store.Turn
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read first streamed turn: %v", err)
	}
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read second streamed turn: %v", err)
	}

	if first.Sender != store.SenderUser || first.Text != "halo" {
		t.Fatalf("first streamed turn = %+v", first)
	}
	if second.Sender != store.SenderBot {
		t.Fatalf("second streamed turn = %+v", second)
	}
}
