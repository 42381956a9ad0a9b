package ai

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// ResponderConfig tunes the conversation-response client
type ResponderConfig struct {
	Model         string
	MaxTokens     int
	Temperature   float64
	TopP          float64
	MaxReplyRunes int
	HistoryLimit  int
	Timeout       time.Duration
}

// DefaultResponderConfig returns the production defaults
func DefaultResponderConfig() ResponderConfig {
	return ResponderConfig{
		MaxTokens:     200,
		Temperature:   0.8,
		TopP:          0.9,
		MaxReplyRunes: 300,
		HistoryLimit:  16,
		Timeout:       20 * time.Second,
	}
}

func (c ResponderConfig) withDefaults() ResponderConfig {
	d := DefaultResponderConfig()
	if c.MaxTokens <= 0 {
		c.MaxTokens = d.MaxTokens
	}
	if c.Temperature <= 0 {
		c.Temperature = d.Temperature
	}
	if c.TopP <= 0 {
		c.TopP = d.TopP
	}
	if c.MaxReplyRunes <= 0 {
		c.MaxReplyRunes = d.MaxReplyRunes
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = d.HistoryLimit
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	return c
}

// RespondInput is one request for the next line of dialogue
type RespondInput struct {
	Message  string
	Persona  Persona
	Scenario string
	History  []HistoryEntry
}

// Responder produces the next line for an AI-played persona. Respond never
// fails: any upstream problem yields a deterministic in-character fallback.
type Responder struct {
	completer Completer
	prompts   *PromptSet
	cfg       ResponderConfig
	observer  FallbackObserver
	logger    zerolog.Logger
}

// NewResponder creates a Responder
func NewResponder(completer Completer, prompts *PromptSet, cfg ResponderConfig, observer FallbackObserver, logger zerolog.Logger) *Responder {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	if observer == nil {
		observer = NopObserver()
	}
	return &Responder{
		completer: completer,
		prompts:   prompts,
		cfg:       cfg.withDefaults(),
		observer:  observer,
		logger:    logger.With().Str("component", "responder").Logger(),
	}
}

// Respond returns a cleaned model reply, or a fallback line
func (r *Responder) Respond(ctx context.Context, in RespondInput) string {
	persona := in.Persona.Normalize()
	message := strings.TrimSpace(in.Message)

	fallback := func(reason string, err error) string {
		r.observer.FallbackUsed(ctx, OperationRespond, reason, err)
		return fallbackReply(persona, in.Scenario, message, len(in.History))
	}

	if message == "" {
		return fallback(ReasonInvalidInput, nil)
	}

	system, err := r.prompts.System(persona, in.Scenario)
	if err != nil {
		return fallback(ReasonPrompt, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	reply, err := r.completer.Complete(callCtx, CompletionRequest{
		Model:       r.cfg.Model,
		Messages:    r.buildMessages(system, in.History, message),
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
		TopP:        r.cfg.TopP,
		Operation:   OperationRespond,
	})
	if err != nil {
		return fallback(ClassifyError(err), err)
	}

	cleaned := CleanReply(reply, r.cfg.MaxReplyRunes)
	if cleaned == "" {
		return fallback(ReasonEmpty, ErrEmptyContent)
	}
	return cleaned
}

// buildMessages assembles system prompt, the most recent history and the new message
func (r *Responder) buildMessages(system string, history []HistoryEntry, message string) []Message {
	recent := history
	if len(recent) > r.cfg.HistoryLimit {
		recent = recent[len(recent)-r.cfg.HistoryLimit:]
	}

	msgs := make([]Message, 0, len(recent)+2)
	msgs = append(msgs, Message{Role: "system", Content: system})
	for i, h := range recent {
		content := strings.TrimSpace(h.Content)
		if content == "" {
			continue
		}
		role := h.Role
		if role == "" {
			// Untagged entries alternate, counting back from the reply that
			// preceded the new message.
			if (len(recent)-1-i)%2 == 0 {
				role = "assistant"
			} else {
				role = "user"
			}
		}
		msgs = append(msgs, Message{Role: role, Content: content})
	}
	return append(msgs, Message{Role: "user", Content: message})
}

var (
	speakerLabel = regexp.MustCompile(`(?i)^\s*(customer|assistant|coach|consultant|ai|bot)\s*[:：]\s*`)
	wrapPairs    = []wrapPair{
		{`"`, `"`, true},
		{"'", "'", false}, // apostrophes occur inside words
		{"“", "”", true},
		{"‘", "’", false},
		{"`", "`", true},
		{"**", "**", true},
		{"*", "*", true},
		{"_", "_", true},
	}
)

// wrapPair is a delimiter pair CleanReply may strip from around a reply.
// A whole pair is only stripped when the inner text does not contain the
// delimiter again, so "*sighs* fine *shrugs*" keeps both spans.
type wrapPair struct {
	open, close string
	whole       bool
}

func (p wrapPair) strip(s string) string {
	if len(s) < len(p.open)+len(p.close) || !strings.HasPrefix(s, p.open) || !strings.HasSuffix(s, p.close) {
		return s
	}
	inner := s[len(p.open) : len(s)-len(p.close)]
	if p.whole && (strings.Contains(inner, p.open) || strings.Contains(inner, p.close)) {
		return s
	}
	return strings.TrimSpace(inner)
}

// CleanReply strips wrapping quotes, markdown emphasis and a leading speaker
// label, then enforces the rune ceiling with a trailing "..." on truncation.
func CleanReply(s string, maxRunes int) string {
	s = strings.TrimSpace(s)
	for {
		before := s
		s = strings.TrimSpace(speakerLabel.ReplaceAllString(s, ""))
		for _, p := range wrapPairs {
			s = p.strip(s)
		}
		if s == before {
			break
		}
	}

	if maxRunes > 0 && utf8.RuneCountInString(s) > maxRunes {
		runes := []rune(s)
		s = strings.TrimRightFunc(string(runes[:maxRunes]), unicode.IsSpace) + "..."
	}
	return s
}
