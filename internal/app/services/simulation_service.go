package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/storetrainer/internal/ai"
	"github.com/yigit/storetrainer/internal/app/models/dto"
	"github.com/yigit/storetrainer/internal/pkg/apperrors"
)

// SimulationService runs practice conversations and scores them
type SimulationService interface {
	Respond(ctx context.Context, req *dto.RespondRequest) string
	Evaluate(ctx context.Context, req *dto.EvaluateRequest) ai.EvaluationResult
	StartPractice(persona ai.Persona, scenario string) *PracticeSession
}

type simulationServiceImpl struct {
	responder Responder
	evaluator Evaluator
	logger    zerolog.Logger
	now       func() time.Time
}

// NewSimulationService creates a new SimulationService
func NewSimulationService(responder Responder, evaluator Evaluator, logger zerolog.Logger) SimulationService {
	return &simulationServiceImpl{
		responder: responder,
		evaluator: evaluator,
		logger:    logger,
		now:       time.Now,
	}
}

// Respond returns the next AI line. It never fails.
func (s *simulationServiceImpl) Respond(ctx context.Context, req *dto.RespondRequest) string {
	return s.responder.Respond(ctx, ai.RespondInput{
		Message:  req.Message,
		Persona:  ai.Persona(req.Persona).Normalize(),
		Scenario: strings.TrimSpace(req.Scenario),
		History:  req.History,
	})
}

// Evaluate scores a transcript. It never fails.
func (s *simulationServiceImpl) Evaluate(ctx context.Context, req *dto.EvaluateRequest) ai.EvaluationResult {
	return s.evaluator.Evaluate(ctx, ai.EvaluationInput{
		Transcript: req.Transcript,
		Scenario:   strings.TrimSpace(req.Scenario),
		Duration:   time.Duration(req.DurationSeconds) * time.Second,
	})
}

// StartPractice opens a new in-memory practice session
func (s *simulationServiceImpl) StartPractice(persona ai.Persona, scenario string) *PracticeSession {
	p := &PracticeSession{
		ID:        uuid.NewString(),
		Persona:   persona.Normalize(),
		Scenario:  strings.TrimSpace(scenario),
		StartedAt: s.now(),
		responder: s.responder,
		evaluator: s.evaluator,
		now:       s.now,
	}
	s.logger.Debug().Str("sessionID", p.ID).Str("persona", string(p.Persona)).Msg("Practice session started")
	return p
}

// PracticeSession is one conversation between a staff member and an AI
// persona. Turns are kept in send order and only one reply may be pending.
type PracticeSession struct {
	ID        string
	Persona   ai.Persona
	Scenario  string
	StartedAt time.Time

	responder Responder
	evaluator Evaluator
	now       func() time.Time

	mu      sync.Mutex
	turns   []ai.Turn
	pending bool
}

// Say records the staff line and returns the AI reply turn. A call made
// while another reply is pending returns apperrors.ErrSessionBusy.
func (p *PracticeSession) Say(ctx context.Context, text string) (ai.Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ai.Turn{}, apperrors.NewValidationError("text", "message cannot be empty")
	}

	p.mu.Lock()
	if p.pending {
		p.mu.Unlock()
		return ai.Turn{}, apperrors.ErrSessionBusy
	}
	p.pending = true
	history := ai.HistoryFromTurns(p.turns)
	p.turns = append(p.turns, ai.Turn{Sender: ai.SenderUser, Text: text, Timestamp: p.now()})
	p.mu.Unlock()

	reply := p.responder.Respond(ctx, ai.RespondInput{
		Message:  text,
		Persona:  p.Persona,
		Scenario: p.Scenario,
		History:  history,
	})

	turn := ai.Turn{Sender: ai.SenderAI, Text: reply, Timestamp: p.now()}

	p.mu.Lock()
	p.turns = append(p.turns, turn)
	p.pending = false
	p.mu.Unlock()

	return turn, nil
}

// Transcript returns a copy of the turns so far
func (p *PracticeSession) Transcript() []ai.Turn {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ai.Turn(nil), p.turns...)
}

// Evaluate scores the conversation so far
func (p *PracticeSession) Evaluate(ctx context.Context) (ai.EvaluationResult, error) {
	p.mu.Lock()
	if p.pending {
		p.mu.Unlock()
		return ai.EvaluationResult{}, apperrors.ErrSessionBusy
	}
	turns := append([]ai.Turn(nil), p.turns...)
	p.mu.Unlock()

	return p.evaluator.Evaluate(ctx, ai.EvaluationInput{
		Transcript: turns,
		Scenario:   p.Scenario,
		Duration:   p.now().Sub(p.StartedAt),
	}), nil
}
