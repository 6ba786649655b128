package webhook

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/andyrahman/waresponder/internal/observability"
	"github.com/andyrahman/waresponder/internal/store"
)

// ReplyGenerator is the slice of the brain adapter the pipeline needs.
type ReplyGenerator interface {
	Reply(ctx context.Context, message, rules string) (string, error)
}

// Deliverer is the slice of the WhatsApp sender the pipeline needs.
type Deliverer interface {
	SendText(ctx context.Context, to, text string) error
}

// TurnListener observes turns after they have been persisted. Used to feed
// the dashboard live stream; failures are not the pipeline's concern.
type TurnListener func(counterpart string, turn store.Turn)

// Pipeline runs one webhook delivery through verify, normalize, persist,
// generate, deliver, persist. One independent stateless execution per
// request; the conversation store is the only shared resource.
type Pipeline struct {
	store   store.Store
	brain   ReplyGenerator
	sender  Deliverer
	metrics *observability.Metrics
	rules   string
	secret  string
	enforce bool
	simSend bool
	onTurn  TurnListener
}

type Options struct {
	Store  store.Store
	Brain  ReplyGenerator
	Sender Deliverer
	// Metrics may be nil in tests.
	Metrics *observability.Metrics
	Rules   string
	// AppSecret is the HMAC key; Enforce false means the deployment runs in
	// unverified mode and every delivery is accepted with a warning.
	AppSecret string
	Enforce   bool
	// SimulatedDelivery marks the development transport fallback so sends can
	// be counted separately.
	SimulatedDelivery bool
	OnTurn            TurnListener
}

func NewPipeline(opts Options) *Pipeline {
	return &Pipeline{
		store:   opts.Store,
		brain:   opts.Brain,
		sender:  opts.Sender,
		metrics: opts.Metrics,
		rules:   opts.Rules,
		secret:  opts.AppSecret,
		enforce: opts.Enforce,
		simSend: opts.SimulatedDelivery,
		onTurn:  opts.OnTurn,
	}
}

// Result is the HTTP reply owed to the platform for one delivery.
type Result struct {
	Status int
	Body   any
}

func successResult() Result {
	return Result{Status: http.StatusOK, Body: map[string]string{"status": "success"}}
}

func ignoredResult(reason string) Result {
	return Result{Status: http.StatusOK, Body: map[string]string{"status": "ignored", "reason": reason}}
}

func rejectedResult() Result {
	return Result{Status: http.StatusForbidden, Body: map[string]string{"error": "invalid signature"}}
}

func errorResult(err error) Result {
	return Result{Status: http.StatusInternalServerError, Body: map[string]string{
		"error":   "Failed to process webhook",
		"details": err.Error(),
	}}
}

// Process handles one POST delivery. The raw body is needed for signature
// verification, so the caller must not pre-decode it.
func (p *Pipeline) Process(ctx context.Context, body []byte, signatureHeader string) Result {
	started := time.Now()

	// RECEIVED -> VERIFIED. Rejection happens before any side effect.
	if p.enforce {
		if !VerifySignature(body, signatureHeader, p.secret) {
			log.Printf("webhook rejected: signature mismatch")
			p.countOutcome("rejected")
			return rejectedResult()
		}
	} else {
		log.Printf("warning: webhook accepted without signature verification (app secret not configured)")
		if p.metrics != nil {
			p.metrics.UnverifiedRequests.Inc()
		}
	}

	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		p.countOutcome("error")
		return errorResult(err)
	}

	// VERIFIED -> PARSED -> {IGNORED | PROCESSING}.
	outcome := Normalize(ev)
	if outcome.Kind == Ignored {
		log.Printf("webhook ignored: %s", outcome.Reason)
		p.countOutcome("ignored")
		return ignoredResult(outcome.Reason)
	}
	msg := outcome.Message

	// The inbound turn is written before generation. A re-delivered event
	// appends an equivalent turn again; there is no dedup key.
	userTurn, err := p.store.Append(ctx, msg.SenderID, store.Turn{
		Text:   msg.Body,
		Sender: store.SenderUser,
	})
	if err != nil {
		return p.fail(&StorageError{Op: "store_inbound", Err: err}, "store_inbound")
	}
	p.notify(msg.SenderID, userTurn)

	// PROCESSING -> REPLIED. The already-persisted inbound turn stays.
	reply, err := p.brain.Reply(ctx, msg.Body, p.rules)
	if err != nil {
		return p.fail(&GenerationError{Err: err}, "generate")
	}

	if err := p.sender.SendText(ctx, msg.SenderID, reply); err != nil {
		return p.fail(&DeliveryError{Err: err}, "deliver")
	}
	if p.simSend && p.metrics != nil {
		p.metrics.SimulatedSends.Inc()
	}

	// -> PERSISTED. The bot turn is written only after the delivery attempt
	// returned without error; a failure here is logged, nothing is unwound.
	botTurn, err := p.store.Append(ctx, msg.SenderID, store.Turn{
		Text:      reply,
		Sender:    store.SenderBot,
		Recipient: msg.SenderID,
	})
	if err != nil {
		return p.fail(&StorageError{Op: "store_outbound", Err: err}, "store_outbound")
	}
	p.notify(msg.SenderID, botTurn)

	if p.metrics != nil {
		p.metrics.ObserveReplyLatency(time.Since(started))
	}
	p.countOutcome("success")
	return successResult()
}

// HandshakeChallenge validates the GET verification handshake and returns the
// challenge to echo, or false when the request must be rejected.
func HandshakeChallenge(mode, token, challenge, verifyToken string) (string, bool) {
	if mode != "subscribe" || token != verifyToken {
		return "", false
	}
	return challenge, true
}

func (p *Pipeline) fail(err error, stage string) Result {
	log.Printf("webhook pipeline error at %s: %v", stage, err)
	if p.metrics != nil {
		p.metrics.PipelineFailures.WithLabelValues(stage).Inc()
	}
	p.countOutcome("error")
	return errorResult(err)
}

func (p *Pipeline) countOutcome(outcome string) {
	if p.metrics != nil {
		p.metrics.WebhookRequests.WithLabelValues(outcome).Inc()
	}
}

func (p *Pipeline) notify(counterpart string, turn store.Turn) {
	if p.onTurn != nil {
		p.onTurn(counterpart, turn)
	}
}
