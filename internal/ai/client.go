// Package ai turns chat-completion replies, or their absence, into bounded,
// display-ready results for the practice and evaluation flows.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Errors returned by a Completer. Callers in this package never surface them;
// they only pick the fallback reason.
var (
	ErrTransport    = errors.New("chat completion transport failure")
	ErrStatus       = errors.New("chat completion returned non-2xx status")
	ErrEmptyContent = errors.New("chat completion returned no content")
)

// Message is one chat message in a completion request
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the wire body sent to the chat-completion endpoint
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`

	// Operation labels the call for telemetry; it is not sent upstream.
	Operation string `json:"-"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Completer performs exactly one chat-completion attempt
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ClientConfig configures the HTTP chat-completion client
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// HTTPCompleter calls an OpenAI-compatible /chat/completions endpoint.
type HTTPCompleter struct {
	client *resty.Client
	model  string
}

// NewHTTPCompleter creates a completer. Per-call deadlines come from the
// caller's context, so no client-wide timeout is set and retries stay off.
func NewHTTPCompleter(cfg ClientConfig) *HTTPCompleter {
	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(0)

	if cfg.APIKey != "" {
		c.SetAuthToken(cfg.APIKey)
	}

	return &HTTPCompleter{client: c, model: cfg.Model}
}

// Complete sends one request and returns the first choice's content
func (h *HTTPCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if req.Model == "" {
		req.Model = h.model
	}

	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(&req).
		Post("/chat/completions")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %w", ErrTransport, ctxErr)
		}
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	var cr completionResponse
	if err := json.Unmarshal(resp.Body(), &cr); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrEmptyContent, err)
	}
	if len(cr.Choices) == 0 || strings.TrimSpace(cr.Choices[0].Message.Content) == "" {
		return "", ErrEmptyContent
	}

	return cr.Choices[0].Message.Content, nil
}

// CallRecorder receives the latency and outcome of every completion attempt
type CallRecorder interface {
	RecordAICall(operation, outcome string, d time.Duration)
}

type instrumentedCompleter struct {
	next     Completer
	recorder CallRecorder
}

// Instrument wraps a Completer so each attempt is reported to recorder
func Instrument(next Completer, recorder CallRecorder) Completer {
	if recorder == nil {
		return next
	}
	return &instrumentedCompleter{next: next, recorder: recorder}
}

func (i *instrumentedCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	start := time.Now()
	out, err := i.next.Complete(ctx, req)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	i.recorder.RecordAICall(req.Operation, outcome, time.Since(start))
	return out, err
}
