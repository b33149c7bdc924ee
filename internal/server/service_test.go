package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/catalog"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/model"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/relay"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubInvoker struct {
	reply string
	err   error
	block chan struct{}
}

func (s *stubInvoker) Invoke(ctx context.Context, _ string) (string, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.reply, s.err
}

func testCatalog() *catalog.Catalog {
	d := decimal.RequireFromString
	return catalog.New([]model.PriceRecord{
		{Location: "KL", Unit: "kg", Name: "Sugar", Price: d("3.10")},
		{Location: "KL", Unit: "kg", Name: "Rice", Price: d("25.00")},
		{Location: "KL", Unit: "", Name: "Cream", Price: d("28.02")},
		{Location: "Penang", Unit: "kg", Name: "Flour", Price: d("5")},
	})
}

func newTestService(t *testing.T, inv relay.Invoker) *Service {
	t.Helper()
	var rel *relay.Relay
	if inv != nil {
		rel = relay.New(inv)
	}
	return New(Config{EventsBuffer: 10}, testCatalog(), rel, zaptest.NewLogger(t))
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestService(t, nil).Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestFacets(t *testing.T) {
	rec := do(t, newTestService(t, nil).Handler(), http.MethodGet, "/v1/facets", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var f Facets
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	assert.Equal(t, []string{"KL", "Penang"}, f.Locations)
	assert.Equal(t, []string{"", "kg"}, f.Units)
}

func TestItems_FilterAndEmpty(t *testing.T) {
	h := newTestService(t, nil).Handler()

	rec := do(t, h, http.MethodGet, "/v1/items?location=KL&unit=kg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []model.PriceRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "Sugar", items[0].Name)
	assert.Equal(t, "Rice", items[1].Name)

	rec = do(t, h, http.MethodGet, "/v1/items?location=Penang&unit=", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestEvaluate(t *testing.T) {
	h := newTestService(t, nil).Handler()
	body := `{
		"location": "KL",
		"unit": "kg",
		"selected": [
			{"location": "KL", "unit": "kg", "name": "Sugar"},
			{"location": "Penang", "unit": "kg", "name": "Flour"}
		],
		"target": 20
	}`

	rec := do(t, h, http.MethodPost, "/v1/evaluate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp EvaluateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("3.10")))
	assert.True(t, resp.Remaining.Equal(decimal.RequireFromString("16.90")))
	assert.Equal(t, "under", resp.Status)
	require.Len(t, resp.Items, 2)
	assert.True(t, resp.Items[0].Selected)
	assert.False(t, resp.Items[0].Disabled)
	assert.False(t, resp.Items[1].Selected)
	assert.True(t, resp.Items[1].Disabled)
	require.Len(t, resp.Ignored, 1)
	assert.Equal(t, "Flour", resp.Ignored[0].Name)
}

func TestEvaluate_TargetCoercion(t *testing.T) {
	tests := []struct {
		name   string
		target string
		status string
	}{
		{"string number", `"28.1"`, "reached"},
		{"garbage", `"abc"`, "unconstrained"},
		{"negative", `-5`, "unconstrained"},
		{"null", `null`, "unconstrained"},
		{"huge exponent", `1e999999999`, "unconstrained"},
		{"tiny exponent", `"1e-999999999"`, "unconstrained"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Evaluate(testCatalog(), EvaluateRequest{
				Location: "KL",
				Unit:     "kg",
				Selected: []model.SelectionKey{
					{Location: "KL", Unit: "kg", Name: "Sugar"},
					{Location: "KL", Unit: "kg", Name: "Rice"},
				},
				Target: json.RawMessage(tt.target),
			})
			assert.Equal(t, tt.status, resp.Status)
			assert.True(t, resp.Total.Equal(decimal.RequireFromString("28.10")))
		})
	}
}

func TestEvaluate_HugeExponentTarget(t *testing.T) {
	body := `{"location":"KL","unit":"kg","selected":[{"location":"KL","unit":"kg","name":"Sugar"}],"target":1e999999999}`
	rec := do(t, newTestService(t, nil).Handler(), http.MethodPost, "/v1/evaluate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp EvaluateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unconstrained", resp.Status)
	assert.True(t, resp.Target.IsZero())
}

func TestEvaluate_BadBody(t *testing.T) {
	rec := do(t, newTestService(t, nil).Handler(), http.MethodPost, "/v1/evaluate", `{"bogus":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAsk_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		inv  *stubInvoker
		code int
		resp AskResponse
	}{
		{"success", &stubInvoker{reply: "Cream"}, http.StatusOK, AskResponse{Response: "Cream"}},
		{"rate limited", &stubInvoker{err: relay.ErrRateLimited}, http.StatusTooManyRequests, AskResponse{Error: relay.MsgRateLimited}},
		{"quota", &stubInvoker{err: errors.New("upstream said 402")}, http.StatusPaymentRequired, AskResponse{Error: relay.MsgQuota}},
		{"generic", &stubInvoker{err: &relay.StatusError{Code: 500}}, http.StatusBadGateway, AskResponse{Error: relay.MsgGeneric}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, tt.inv)
			rec := do(t, svc.Handler(), http.MethodPost, "/v1/ask", `{"prompt":"Which item is most expensive overall?"}`)
			require.Equal(t, tt.code, rec.Code)

			var resp AskResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.resp, resp)

			st := svc.snapshotStatus()
			assert.Equal(t, int64(1), st.Asks)
			assert.Equal(t, 2, st.EventCount)
		})
	}
}

func TestAsk_Validation(t *testing.T) {
	rec := do(t, newTestService(t, nil).Handler(), http.MethodPost, "/v1/ask", `{"prompt":"hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h := newTestService(t, &stubInvoker{reply: "x"}).Handler()
	rec = do(t, h, http.MethodPost, "/v1/ask", `{"prompt":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAsk_ConflictWhileBusy(t *testing.T) {
	inv := &stubInvoker{reply: "done", block: make(chan struct{})}
	svc := newTestService(t, inv)
	h := svc.Handler()

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		done <- do(t, h, http.MethodPost, "/v1/ask", `{"prompt":"first"}`)
	}()

	require.Eventually(t, svc.relay.Busy, time.Second, 5*time.Millisecond)

	rec := do(t, h, http.MethodPost, "/v1/ask", `{"prompt":"second"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(inv.block)
	first := <-done
	assert.Equal(t, http.StatusOK, first.Code)
	assert.False(t, svc.relay.Busy())
}

func TestEventsEndpoint(t *testing.T) {
	svc := newTestService(t, &stubInvoker{reply: "Cream"})
	h := svc.Handler()
	_ = do(t, h, http.MethodPost, "/v1/ask", `{"prompt":"hi"}`)

	rec := do(t, h, http.MethodGet, "/v1/events", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var events []Event
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&events))
	require.Len(t, events, 2)
	assert.Equal(t, model.RoleUser, events[0].Message.Role)
	assert.Equal(t, "Cream", events[1].Message.Content)
	assert.Less(t, events[0].ID, events[1].ID)
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{EventsBuffer: 2}, testCatalog(), nil, nil)

	s.publishEvent(model.Message{Content: "1"})
	s.publishEvent(model.Message{Content: "2"})
	s.publishEvent(model.Message{Content: "3"})

	s.mu.RLock()
	defer s.mu.RUnlock()

	require.Len(t, s.events, 2)
	assert.Equal(t, int64(2), s.events[0].ID)
	assert.Equal(t, int64(3), s.events[1].ID)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"}, testCatalog(), nil, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStream_DeliversPublishedMessage(t *testing.T) {
	svc := newTestService(t, nil)
	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	br := bufio.NewReader(resp.Body)
	line, err := br.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, ": connected\n", line)

	// The subscriber is registered before the connected comment is flushed
	svc.publishEvent(model.Message{ID: "m1", Role: model.RoleAssistant, Content: "Cream is RM 28.02"})

	var frame []string
	for {
		line, err := br.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSuffix(line, "\n")
		if line == "" {
			if len(frame) > 0 {
				break
			}
			continue
		}
		frame = append(frame, line)
	}

	require.Len(t, frame, 3)
	assert.Equal(t, "id: 1", frame[0])
	assert.Equal(t, "event: message", frame[1])
	require.True(t, strings.HasPrefix(frame[2], "data: "))

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frame[2], "data: ")), &ev))
	assert.Equal(t, "Cream is RM 28.02", ev.Message.Content)
}
