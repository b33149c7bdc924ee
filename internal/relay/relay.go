package relay

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Greeting is the assistant entry every transcript starts with.
const Greeting = "Hello! Ask me to analyze price data, like: **Which item is most expensive overall?**"

// User-facing failure messages appended to the transcript.
const (
	MsgRateLimited = "Rate limit exceeded. Please wait a moment and try again."
	MsgQuota       = "AI credits depleted. Please add funds to your workspace."
	MsgGeneric     = "An error occurred. Please try again."
)

// ErrorKind classifies a failed call for display.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindRateLimited
	KindQuota
	KindGeneric
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRateLimited:
		return "rate_limited"
	case KindQuota:
		return "quota_exhausted"
	default:
		return "generic"
	}
}

// Message returns the transcript text for the kind.
func (k ErrorKind) Message() string {
	switch k {
	case KindNone:
		return ""
	case KindRateLimited:
		return MsgRateLimited
	case KindQuota:
		return MsgQuota
	default:
		return MsgGeneric
	}
}

// Classify maps an invoke error to a kind. Transports that only surface a text
// message are matched on the status code appearing in it.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrQuotaExhausted):
		return KindQuota
	}

	// 429 and 402 responses already map to the sentinels; any other status is
	// generic whatever digits its body carries. Transport errors embed the
	// endpoint URL, whose port may contain them too.
	var se *StatusError
	var ue *url.Error
	if errors.As(err, &se) || errors.As(err, &ue) {
		return KindGeneric
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "429"):
		return KindRateLimited
	case strings.Contains(msg, "402"):
		return KindQuota
	default:
		return KindGeneric
	}
}

// Option configures a Relay.
type Option func(*Relay)

// WithLogger sets the logger used for failed calls.
func WithLogger(l *zap.Logger) Option {
	return func(r *Relay) {
		if l != nil {
			r.log = l
		}
	}
}

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) { r.now = now }
}

// Relay holds a linear transcript and allows at most one outstanding call.
// It performs no retries and has no local intelligence.
type Relay struct {
	inv Invoker
	log *zap.Logger
	now func() time.Time

	mu         sync.Mutex
	busy       bool
	transcript []model.Message
}

// New creates a relay whose transcript starts with the greeting.
func New(inv Invoker, opts ...Option) *Relay {
	r := &Relay{
		inv: inv,
		log: zap.NewNop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.transcript = []model.Message{r.newMessage(model.RoleAssistant, Greeting)}
	return r
}

// Invoker returns the underlying invoker.
func (r *Relay) Invoker() Invoker {
	return r.inv
}

// Ask appends prompt as a user entry, calls the endpoint, and appends the reply
// or a classified failure message as an assistant entry. It returns the
// assistant entry and true, or false when the prompt was ignored (blank, or a
// call already in flight) or the endpoint returned an empty reply.
func (r *Relay) Ask(ctx context.Context, prompt string) (model.Message, bool) {
	if _, ok := r.Begin(prompt); !ok {
		return model.Message{}, false
	}
	reply, err := r.inv.Invoke(ctx, strings.TrimSpace(prompt))
	return r.Finish(reply, err)
}

// Begin records the user entry and marks the relay busy. It is the first half
// of Ask for callers that run the network call elsewhere, such as a UI command.
func (r *Relay) Begin(prompt string) (model.Message, bool) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return model.Message{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.busy {
		return model.Message{}, false
	}
	r.busy = true
	msg := r.newMessage(model.RoleUser, prompt)
	r.transcript = append(r.transcript, msg)
	return msg, true
}

// Finish clears the busy flag and appends the outcome of the call started by Begin.
func (r *Relay) Finish(reply string, err error) (model.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy = false

	if err != nil {
		kind := Classify(err)
		r.log.Warn("relay call failed", zap.Stringer("kind", kind), zap.Error(err))
		msg := r.newMessage(model.RoleAssistant, kind.Message())
		r.transcript = append(r.transcript, msg)
		return msg, true
	}

	if reply == "" {
		return model.Message{}, false
	}
	msg := r.newMessage(model.RoleAssistant, reply)
	r.transcript = append(r.transcript, msg)
	return msg, true
}

// Busy reports whether a call is in flight.
func (r *Relay) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

// Transcript returns a copy of every entry in order.
func (r *Relay) Transcript() []model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Message(nil), r.transcript...)
}

func (r *Relay) newMessage(role model.Role, content string) model.Message {
	return model.Message{
		ID:      uuid.NewString(),
		Role:    role,
		Content: content,
		At:      r.now(),
	}
}
