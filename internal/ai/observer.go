package ai

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Operations reported to observers
const (
	OperationRespond   = "respond"
	OperationEvaluate  = "evaluate"
	OperationSummarize = "summarize"
)

// Fallback reasons
const (
	ReasonTransport    = "transport"
	ReasonStatus       = "status"
	ReasonEmpty        = "empty"
	ReasonTimeout      = "timeout"
	ReasonCanceled     = "canceled"
	ReasonDecode       = "decode"
	ReasonInvalidInput = "invalid_input"
	ReasonPrompt       = "prompt"
)

// FallbackObserver is told whenever a fallback result replaces a model reply.
// End users never see the difference; this is the only place it shows.
type FallbackObserver interface {
	FallbackUsed(ctx context.Context, operation, reason string, err error)
}

// ClassifyError maps a completion error to a fallback reason
func ClassifyError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	case errors.Is(err, ErrStatus):
		return ReasonStatus
	case errors.Is(err, ErrEmptyContent):
		return ReasonEmpty
	default:
		return ReasonTransport
	}
}

type nopObserver struct{}

func (nopObserver) FallbackUsed(context.Context, string, string, error) {}

// NopObserver discards fallback notifications
func NopObserver() FallbackObserver { return nopObserver{} }

// LogObserver writes a warning per fallback
type LogObserver struct {
	logger zerolog.Logger
}

// NewLogObserver creates a LogObserver
func NewLogObserver(logger zerolog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

// FallbackUsed implements FallbackObserver
func (o *LogObserver) FallbackUsed(_ context.Context, operation, reason string, err error) {
	o.logger.Warn().Err(err).Str("operation", operation).Str("reason", reason).Msg("AI fallback served")
}

// FallbackRecorder counts fallbacks, typically a metrics manager
type FallbackRecorder interface {
	RecordAIFallback(operation, reason string)
}

// MetricsObserver forwards fallbacks to a FallbackRecorder
type MetricsObserver struct {
	recorder FallbackRecorder
}

// NewMetricsObserver creates a MetricsObserver
func NewMetricsObserver(recorder FallbackRecorder) *MetricsObserver {
	return &MetricsObserver{recorder: recorder}
}

// FallbackUsed implements FallbackObserver
func (o *MetricsObserver) FallbackUsed(_ context.Context, operation, reason string, _ error) {
	o.recorder.RecordAIFallback(operation, reason)
}

// MultiObserver fans a notification out to several observers
type MultiObserver []FallbackObserver

// FallbackUsed implements FallbackObserver
func (m MultiObserver) FallbackUsed(ctx context.Context, operation, reason string, err error) {
	for _, o := range m {
		if o != nil {
			o.FallbackUsed(ctx, operation, reason, err)
		}
	}
}
