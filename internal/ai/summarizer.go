package ai

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Summarizer writes a short summary of a community or case post
type Summarizer struct {
	completer Completer
	prompts   *PromptSet
	model     string
	maxRunes  int
	timeout   time.Duration
	observer  FallbackObserver
	logger    zerolog.Logger
}

// NewSummarizer creates a Summarizer
func NewSummarizer(completer Completer, prompts *PromptSet, model string, timeout time.Duration, observer FallbackObserver, logger zerolog.Logger) *Summarizer {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	if observer == nil {
		observer = NopObserver()
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Summarizer{
		completer: completer,
		prompts:   prompts,
		model:     model,
		maxRunes:  400,
		timeout:   timeout,
		observer:  observer,
		logger:    logger.With().Str("component", "summarizer").Logger(),
	}
}

// Summarize returns the summary and true, or "" and false when none could be produced
func (s *Summarizer) Summarize(ctx context.Context, data SummaryPromptData) (string, bool) {
	prompt, err := s.prompts.Summary(data)
	if err != nil {
		s.observer.FallbackUsed(ctx, OperationSummarize, ReasonPrompt, err)
		return "", false
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.completer.Complete(callCtx, CompletionRequest{
		Model:       s.model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		MaxTokens:   160,
		Temperature: 0.4,
		TopP:        0.9,
		Operation:   OperationSummarize,
	})
	if err != nil {
		s.observer.FallbackUsed(ctx, OperationSummarize, ClassifyError(err), err)
		return "", false
	}

	summary := CleanReply(reply, s.maxRunes)
	if summary == "" {
		s.observer.FallbackUsed(ctx, OperationSummarize, ReasonEmpty, ErrEmptyContent)
		return "", false
	}
	return summary, true
}
