// Package server exposes the selection engine and the relay over a local HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/catalog"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/logging"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/model"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/relay"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/selection"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxRequestBody = 1 << 20

// Config controls the server runtime behavior.
type Config struct {
	Addr         string
	EventsBuffer int
}

// Event is emitted for every message appended to the shared transcript.
type Event struct {
	ID        int64         `json:"id"`
	Type      string        `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Message   model.Message `json:"message"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	Records         int       `json:"records"`
	Locations       int       `json:"locations"`
	Units           int       `json:"units"`
	Asks            int64     `json:"asks"`
	RelayBusy       bool      `json:"relay_busy"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the HTTP API.
type Service struct {
	cfg   Config
	src   catalog.Source
	relay *relay.Relay
	log   *zap.Logger

	mu          sync.RWMutex
	startedAt   time.Time
	asks        int64
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a service over src. rel may be nil, in which case /v1/ask
// answers 503.
func New(cfg Config, src catalog.Source, rel *relay.Relay, log *zap.Logger) *Service {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}

	return &Service{
		cfg:       cfg,
		src:       src,
		relay:     rel,
		log:       logging.OrNop(log),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the API routes.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/facets", s.handleFacets)
	mux.HandleFunc("GET /v1/items", s.handleItems)
	mux.HandleFunc("POST /v1/evaluate", s.handleEvaluate)
	mux.HandleFunc("POST /v1/ask", s.handleAsk)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	return s.logRequests(mux)
}

// Run serves the API until ctx is canceled, then shuts down gracefully.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("server listening", zap.String("addr", s.cfg.Addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("server shutting down")
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

func (s *Service) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.code),
			zap.Duration("took", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Service) publishEvent(msg model.Message) {
	s.mu.Lock()
	s.nextEventID++
	ev := Event{
		ID:        s.nextEventID,
		Type:      "message",
		Timestamp: time.Now(),
		Message:   msg,
	}
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		StartedAt:       s.startedAt,
		Records:         len(s.src.Records()),
		Locations:       len(catalog.Locations(s.src)),
		Units:           len(catalog.Units(s.src)),
		Asks:            s.asks,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
	if s.relay != nil {
		st.RelayBusy = s.relay.Busy()
	}
	return st
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

// Facets is served at /v1/facets.
type Facets struct {
	Locations []string `json:"locations"`
	Units     []string `json:"units"`
}

func (s *Service) handleFacets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Facets{
		Locations: nonNil(catalog.Locations(s.src)),
		Units:     nonNil(catalog.Units(s.src)),
	})
}

func (s *Service) handleItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items := catalog.Filter(s.src, q.Get("location"), q.Get("unit"))
	if items == nil {
		items = []model.PriceRecord{}
	}
	writeJSON(w, http.StatusOK, items)
}

// EvaluateRequest is the body of POST /v1/evaluate. Target may be a JSON number
// or string; anything unparseable counts as no target.
type EvaluateRequest struct {
	Location string               `json:"location"`
	Unit     string               `json:"unit"`
	Selected []model.SelectionKey `json:"selected"`
	Target   json.RawMessage      `json:"target,omitempty"`
}

// EvaluatedItem is one visible record with its selection state.
type EvaluatedItem struct {
	model.PriceRecord
	Selected bool `json:"selected"`
	Disabled bool `json:"disabled"`
}

// EvaluateResponse is the result of POST /v1/evaluate.
type EvaluateResponse struct {
	Location  string               `json:"location"`
	Unit      string               `json:"unit"`
	Target    decimal.Decimal      `json:"target"`
	Total     decimal.Decimal      `json:"total"`
	Remaining decimal.Decimal      `json:"remaining"`
	Status    string               `json:"status"`
	Items     []EvaluatedItem      `json:"items"`
	Ignored   []model.SelectionKey `json:"ignored,omitempty"`
}

// Evaluate computes the budget state for a filter and a selection set. Keys
// outside the filter are reported as ignored.
func Evaluate(src catalog.Source, req EvaluateRequest) EvaluateResponse {
	e := selection.New(src)
	e.SetFilter(req.Location, req.Unit)
	e.SetTargetInput(strings.Trim(string(req.Target), `"`))

	var ignored []model.SelectionKey
	for _, key := range req.Selected {
		rec, ok := e.Lookup(key)
		if !ok {
			ignored = append(ignored, key)
			continue
		}
		if !e.IsSelected(rec) {
			e.Toggle(rec)
		}
	}

	visible := e.Visible()
	items := make([]EvaluatedItem, 0, len(visible))
	for _, rec := range visible {
		items = append(items, EvaluatedItem{
			PriceRecord: rec,
			Selected:    e.IsSelected(rec),
			Disabled:    e.IsDisabled(rec),
		})
	}

	b := e.Budget()
	return EvaluateResponse{
		Location:  req.Location,
		Unit:      req.Unit,
		Target:    b.Target,
		Total:     b.Total,
		Remaining: b.Remaining(),
		Status:    b.Status().String(),
		Items:     items,
		Ignored:   ignored,
	}
}

func (s *Service) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, Evaluate(s.src, req))
}

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Prompt string `json:"prompt"`
}

// AskResponse is the result of POST /v1/ask.
type AskResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func (s *Service) handleAsk(w http.ResponseWriter, r *http.Request) {
	if s.relay == nil {
		writeError(w, http.StatusServiceUnavailable, "relay not configured")
		return
	}

	var req AskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is empty")
		return
	}

	userMsg, ok := s.relay.Begin(req.Prompt)
	if !ok {
		writeError(w, http.StatusConflict, "a request is already in flight")
		return
	}
	s.publishEvent(userMsg)

	s.mu.Lock()
	s.asks++
	s.mu.Unlock()

	reply, err := s.relay.Invoker().Invoke(r.Context(), userMsg.Content)
	msg, appended := s.relay.Finish(reply, err)
	if appended {
		s.publishEvent(msg)
	}

	if err != nil {
		code := http.StatusBadGateway
		switch relay.Classify(err) {
		case relay.KindRateLimited:
			code = http.StatusTooManyRequests
		case relay.KindQuota:
			code = http.StatusPaymentRequired
		}
		writeJSON(w, code, AskResponse{Error: msg.Content})
		return
	}
	writeJSON(w, http.StatusOK, AskResponse{Response: reply})
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
