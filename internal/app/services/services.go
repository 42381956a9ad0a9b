// Package services holds the business logic behind the HTTP controllers and
// the practice socket. Services depend on repository interfaces so they can
// be exercised with in-memory fakes.
package services

import (
	"context"

	"github.com/yigit/storetrainer/internal/ai"
	"github.com/yigit/storetrainer/internal/app/models"
)

// TokenIssuer signs access tokens for authenticated users
type TokenIssuer interface {
	GenerateAccessToken(user *models.User) (string, int, error)
}

// Responder produces the next AI line of a practice conversation
type Responder interface {
	Respond(ctx context.Context, in ai.RespondInput) string
}

// Evaluator scores a finished practice transcript
type Evaluator interface {
	Evaluate(ctx context.Context, in ai.EvaluationInput) ai.EvaluationResult
}

// Summarizer writes the short AI summary attached to new posts
type Summarizer interface {
	Summarize(ctx context.Context, data ai.SummaryPromptData) (string, bool)
}

// ReactionRecorder counts reaction toggles
type ReactionRecorder interface {
	RecordReaction(reaction string)
}

// PracticeRecorder tracks open practice sessions
type PracticeRecorder interface {
	PracticeSessionOpened()
	PracticeSessionClosed()
}
