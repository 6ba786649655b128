package webhook

// Event is the raw WhatsApp Business webhook envelope. It exists only for
// the duration of one request and is never stored as-is.
type Event struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Messages         []Message `json:"messages"`
}

type Message struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *Text  `json:"text"`
}

type Text struct {
	Body string `json:"body"`
}

const businessAccountObject = "whatsapp_business_account"

// Ignore reasons returned to the platform. The platform treats an ignored
// event as delivered and does not retry it.
const (
	ReasonNonMessage = "non-message payload"
	ReasonNonText    = "non-text message"
)

// OutcomeKind discriminates the result of normalizing a webhook envelope.
type OutcomeKind int

const (
	Matched OutcomeKind = iota
	Ignored
)

// NormalizedMessage is the canonical inbound text message extracted from an
// envelope. SenderID and Body are taken verbatim from message.from and
// message.text.body.
type NormalizedMessage struct {
	SenderID string
	Body     string
}

// Outcome is the tagged result of Normalize: either a matched message or an
// ignore with a reason.
type Outcome struct {
	Kind    OutcomeKind
	Message NormalizedMessage
	Reason  string
}

func ignored(reason string) Outcome {
	return Outcome{Kind: Ignored, Reason: reason}
}

// Normalize reduces a webhook envelope to at most one canonical text message.
// Only the first message of the first change of the first entry is
// considered; status callbacks, delivery receipts and every other shape are
// ignored.
func Normalize(ev Event) Outcome {
	if ev.Object != businessAccountObject {
		return ignored(ReasonNonMessage)
	}
	if len(ev.Entry) == 0 || len(ev.Entry[0].Changes) == 0 {
		return ignored(ReasonNonMessage)
	}
	msgs := ev.Entry[0].Changes[0].Value.Messages
	if len(msgs) == 0 {
		return ignored(ReasonNonMessage)
	}

	msg := msgs[0]
	if msg.Type != "text" || msg.Text == nil {
		return ignored(ReasonNonText)
	}

	return Outcome{
		Kind: Matched,
		Message: NormalizedMessage{
			SenderID: msg.From,
			Body:     msg.Text.Body,
		},
	}
}
