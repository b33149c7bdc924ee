package relay

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeInvoker struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeInvoker) Invoke(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func fixedClock() time.Time {
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func lastMessage(t *testing.T, r *Relay) model.Message {
	t.Helper()
	msgs := r.Transcript()
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

func TestNew_SeedsGreeting(t *testing.T) {
	r := New(&fakeInvoker{}, WithClock(fixedClock))

	tr := r.Transcript()
	require.Len(t, tr, 1)
	assert.Equal(t, model.RoleAssistant, tr[0].Role)
	assert.Equal(t, Greeting, tr[0].Content)
	assert.Equal(t, fixedClock(), tr[0].At)
	assert.False(t, r.Busy())
}

func TestAsk_AppendsUserAndReply(t *testing.T) {
	inv := &fakeInvoker{reply: "Paint Premium at RM 95.00"}
	r := New(inv, WithLogger(zaptest.NewLogger(t)))

	msg, ok := r.Ask(context.Background(), "  Which item is most expensive overall?  ")
	require.True(t, ok)
	assert.Equal(t, model.RoleAssistant, msg.Role)
	assert.Equal(t, "Paint Premium at RM 95.00", msg.Content)
	assert.Equal(t, []string{"Which item is most expensive overall?"}, inv.prompts)

	tr := r.Transcript()
	require.Len(t, tr, 3)
	assert.Equal(t, model.RoleUser, tr[1].Role)
	assert.Equal(t, "Which item is most expensive overall?", tr[1].Content)
	assert.Equal(t, msg, tr[2])
	assert.False(t, r.Busy())
}

func TestAsk_FailureMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"sentinel 429", ErrRateLimited, MsgRateLimited},
		{"message mentions 429", errors.New("edge function returned 429"), MsgRateLimited},
		{"sentinel 402", fmt.Errorf("wrapped: %w", ErrQuotaExhausted), MsgQuota},
		{"message mentions 402", errors.New("status 402 payment required"), MsgQuota},
		{"status 500", &StatusError{Code: 500}, MsgGeneric},
		{"network", errors.New("connection refused"), MsgGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(&fakeInvoker{err: tt.err}, WithLogger(zaptest.NewLogger(t)))

			msg, ok := r.Ask(context.Background(), "hello")
			require.True(t, ok)
			assert.Equal(t, tt.want, msg.Content)
			assert.Equal(t, model.RoleAssistant, lastMessage(t, r).Role)
			assert.Equal(t, tt.want, lastMessage(t, r).Content)
			assert.Len(t, r.Transcript(), 3)
			assert.False(t, r.Busy())
		})
	}
}

func TestAsk_BlankPromptIgnored(t *testing.T) {
	inv := &fakeInvoker{reply: "unused"}
	r := New(inv)

	_, ok := r.Ask(context.Background(), "   \t ")
	assert.False(t, ok)
	assert.Empty(t, inv.prompts)
	assert.Len(t, r.Transcript(), 1)
}

func TestAsk_EmptyReplyAppendsNothing(t *testing.T) {
	r := New(&fakeInvoker{reply: ""})

	_, ok := r.Ask(context.Background(), "hello")
	assert.False(t, ok)

	tr := r.Transcript()
	require.Len(t, tr, 2)
	assert.Equal(t, model.RoleUser, tr[1].Role)
	assert.False(t, r.Busy())
}

func TestBegin_RejectsWhileBusy(t *testing.T) {
	inv := &fakeInvoker{reply: "done"}
	r := New(inv)

	_, ok := r.Begin("first")
	require.True(t, ok)
	assert.True(t, r.Busy())

	_, ok = r.Begin("second")
	assert.False(t, ok)
	_, ok = r.Ask(context.Background(), "third")
	assert.False(t, ok)
	assert.Empty(t, inv.prompts)

	msg, ok := r.Finish("done", nil)
	require.True(t, ok)
	assert.Equal(t, "done", msg.Content)
	assert.False(t, r.Busy())

	tr := r.Transcript()
	require.Len(t, tr, 3)
	assert.Equal(t, "first", tr[1].Content)
}

func TestTranscript_ReturnsCopy(t *testing.T) {
	r := New(&fakeInvoker{})
	tr := r.Transcript()
	tr[0].Content = "changed"
	assert.Equal(t, Greeting, r.Transcript()[0].Content)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindNone, Classify(nil))
	assert.Equal(t, KindRateLimited, Classify(ErrRateLimited))
	assert.Equal(t, KindQuota, Classify(ErrQuotaExhausted))
	assert.Equal(t, KindGeneric, Classify(ErrNoEndpoint))
	assert.Equal(t, KindGeneric, Classify(&StatusError{Code: 500, Body: `{"request_id":"a1402b"}`}))
	assert.Equal(t, KindGeneric, Classify(fmt.Errorf("invoke: %w", &StatusError{Code: 503, Body: "retry after 429s"})))
	dial := &url.Error{Op: "Post", URL: "http://127.0.0.1:4290/fn", Err: errors.New("connection refused")}
	assert.Equal(t, KindGeneric, Classify(fmt.Errorf("relay: %w", dial)))
	assert.Equal(t, "", KindNone.Message())
	assert.Equal(t, "rate_limited", KindRateLimited.String())
}
