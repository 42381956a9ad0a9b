package ai

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSummarizer(t *testing.T) {
	data := SummaryPromptData{Title: "Bundle close", Situation: "Customer hesitated on price", Result: "Sold TV and soundbar"}

	t.Run("cleaned summary", func(t *testing.T) {
		s := NewSummarizer(replyCompleter(`"Offer the bundle early."`), nil, "m", 0, nil, zerolog.Nop())
		got, ok := s.Summarize(context.Background(), data)
		assert.True(t, ok)
		assert.Equal(t, "Offer the bundle early.", got)
	})

	t.Run("failure yields no summary", func(t *testing.T) {
		observer := &recordingObserver{}
		s := NewSummarizer(failingCompleter(ErrTransport), nil, "m", 0, observer, zerolog.Nop())
		got, ok := s.Summarize(context.Background(), data)
		assert.False(t, ok)
		assert.Empty(t, got)
		assert.Equal(t, []string{ReasonTransport}, observer.reasons())
	})
}

func TestMultiObserver(t *testing.T) {
	a, b := &recordingObserver{}, &recordingObserver{}
	MultiObserver{a, nil, b}.FallbackUsed(context.Background(), OperationRespond, ReasonTimeout, nil)

	assert.Equal(t, []string{ReasonTimeout}, a.reasons())
	assert.Equal(t, []string{ReasonTimeout}, b.reasons())
}

type countingRecorder map[string]int

func (c countingRecorder) RecordAIFallback(operation, reason string) { c[operation+"/"+reason]++ }

func TestMetricsObserver(t *testing.T) {
	rec := countingRecorder{}
	NewMetricsObserver(rec).FallbackUsed(context.Background(), OperationEvaluate, ReasonStatus, nil)

	assert.Equal(t, 1, rec["evaluate/status"])
}
