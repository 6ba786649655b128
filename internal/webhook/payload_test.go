package webhook

import (
	"encoding/json"
	"testing"
)

func textEvent(from, body string) Event {
	return Event{
		Object: "whatsapp_business_account",
		Entry: []Entry{{
			ID: "entry-1",
			Changes: []Change{{
				Field: "messages",
				Value: Value{
					MessagingProduct: "whatsapp",
					Messages: []Message{{
						ID:   "wamid.A",
						From: from,
						Type: "text",
						Text: &Text{Body: body},
					}},
				},
			}},
		}},
	}
}

func TestNormalizeTextMessage(t *testing.T) {
	out := Normalize(textEvent("+1555", "hi"))
	if out.Kind != Matched {
		t.Fatalf("Kind = %v, want Matched (reason %q)", out.Kind, out.Reason)
	}
	if out.Message.SenderID != "+1555" {
		t.Fatalf("SenderID = %q, want %q", out.Message.SenderID, "+1555")
	}
	if out.Message.Body != "hi" {
		t.Fatalf("Body = %q, want %q", out.Message.Body, "hi")
	}
}

func TestNormalizeBodyIsVerbatim(t *testing.T) {
	body := "  spaced   and\nmultiline  "
	out := Normalize(textEvent("+1555", body))
	if out.Kind != Matched || out.Message.Body != body {
		t.Fatalf("Body = %q, want untouched input %q", out.Message.Body, body)
	}
}

func TestNormalizeNonMessageShapes(t *testing.T) {
	cases := []struct {
		name string
		ev   Event
	}{
		{"wrong object tag", Event{Object: "instagram", Entry: textEvent("+1", "x").Entry}},
		{"no entries", Event{Object: "whatsapp_business_account"}},
		{"no changes", Event{Object: "whatsapp_business_account", Entry: []Entry{{ID: "e"}}}},
		{"status callback without messages", Event{
			Object: "whatsapp_business_account",
			Entry:  []Entry{{Changes: []Change{{Field: "messages", Value: Value{MessagingProduct: "whatsapp"}}}}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Normalize(tc.ev)
			if out.Kind != Ignored {
				t.Fatalf("Kind = %v, want Ignored", out.Kind)
			}
			if out.Reason != ReasonNonMessage {
				t.Fatalf("Reason = %q, want %q", out.Reason, ReasonNonMessage)
			}
		})
	}
}

func TestNormalizeNonTextMessage(t *testing.T) {
	ev := textEvent("+1555", "x")
	ev.Entry[0].Changes[0].Value.Messages[0].Type = "image"
	ev.Entry[0].Changes[0].Value.Messages[0].Text = nil

	out := Normalize(ev)
	if out.Kind != Ignored {
		t.Fatalf("Kind = %v, want Ignored", out.Kind)
	}
	if out.Reason != ReasonNonText {
		t.Fatalf("Reason = %q, want %q", out.Reason, ReasonNonText)
	}
}

func TestNormalizeOnlyFirstMessageConsidered(t *testing.T) {
	ev := textEvent("+1555", "first")
	ev.Entry[0].Changes[0].Value.Messages = append(
		ev.Entry[0].Changes[0].Value.Messages,
		Message{From: "+1666", Type: "text", Text: &Text{Body: "second"}},
	)

	out := Normalize(ev)
	if out.Kind != Matched || out.Message.Body != "first" {
		t.Fatalf("Normalize() considered more than the first message: %+v", out)
	}
}

func TestNormalizeFromWireJSON(t *testing.T) {
	raw := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "104",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"messages": [{
						"from": "15551234567",
						"id": "wamid.HBgL",
						"timestamp": "1712345678",
						"type": "text",
						"text": {"body": "hello bot"}
					}]
				}
			}]
		}]
	}`)

	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	out := Normalize(ev)
	if out.Kind != Matched {
		t.Fatalf("Kind = %v, want Matched", out.Kind)
	}
	if out.Message.SenderID != "15551234567" || out.Message.Body != "hello bot" {
		t.Fatalf("normalized = %+v", out.Message)
	}
}
