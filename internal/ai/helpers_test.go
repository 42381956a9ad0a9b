package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// stubEndpoint is an httptest chat-completion endpoint that records requests
type stubEndpoint struct {
	srv      *httptest.Server
	mu       sync.Mutex
	requests []CompletionRequest
	headers  []http.Header
	status   int
	content  string
	rawBody  string
	delay    time.Duration
}

func newStubEndpoint() *stubEndpoint {
	s := &stubEndpoint{status: http.StatusOK}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

func (s *stubEndpoint) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var req CompletionRequest
	_ = json.Unmarshal(body, &req)

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.headers = append(s.headers, r.Header.Clone())
	status, content, raw, delay := s.status, s.content, s.rawBody, s.delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if raw != "" {
		_, _ = io.WriteString(w, raw)
		return
	}
	resp := map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *stubEndpoint) completer() *HTTPCompleter {
	return NewHTTPCompleter(ClientConfig{BaseURL: s.srv.URL, APIKey: "test-key", Model: "stub-model"})
}

func (s *stubEndpoint) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *stubEndpoint) lastRequest() CompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func (s *stubEndpoint) close() { s.srv.Close() }

type fallbackEvent struct {
	operation string
	reason    string
}

type recordingObserver struct {
	mu     sync.Mutex
	events []fallbackEvent
}

func (o *recordingObserver) FallbackUsed(_ context.Context, operation, reason string, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, fallbackEvent{operation: operation, reason: reason})
}

func (o *recordingObserver) reasons() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.events))
	for _, e := range o.events {
		out = append(out, e.reason)
	}
	return out
}

// completerFunc adapts a function to the Completer interface
type completerFunc func(ctx context.Context, req CompletionRequest) (string, error)

func (f completerFunc) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}

func failingCompleter(err error) Completer {
	return completerFunc(func(context.Context, CompletionRequest) (string, error) { return "", err })
}

func replyCompleter(reply string) Completer {
	return completerFunc(func(context.Context, CompletionRequest) (string, error) { return reply, nil })
}
