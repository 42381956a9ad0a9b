package dto

import "github.com/yigit/storetrainer/internal/ai"

// RespondRequest asks for the next AI line of a practice conversation
type RespondRequest struct {
	Message  string            `json:"message" binding:"required,max=2000"`
	Persona  string            `json:"persona" binding:"omitempty,oneof=customer assistant"`
	Scenario string            `json:"scenario" binding:"max=200"`
	History  []ai.HistoryEntry `json:"history" binding:"max=200"`
}

// RespondResponse carries the AI line
type RespondResponse struct {
	Reply string `json:"reply"`
}

// EvaluateRequest submits a finished practice transcript for scoring
type EvaluateRequest struct {
	Transcript      []ai.Turn `json:"transcript" binding:"required,min=1,max=400"`
	Scenario        string    `json:"scenario" binding:"max=200"`
	DurationSeconds int       `json:"durationSeconds" binding:"min=0"`
}

// PracticeFrame is one websocket message of a practice session
type PracticeFrame struct {
	Type     string               `json:"type"`
	Text     string               `json:"text,omitempty"`
	Persona  string               `json:"persona,omitempty"`
	Scenario string               `json:"scenario,omitempty"`
	Turn     *ai.Turn             `json:"turn,omitempty"`
	Result   *ai.EvaluationResult `json:"result,omitempty"`
	Error    *ErrorDetail         `json:"error,omitempty"`
}

// Practice frame types
const (
	FrameStart    = "start"
	FrameSay      = "say"
	FrameEvaluate = "evaluate"
	FrameReply    = "reply"
	FrameResult   = "result"
	FrameBusy     = "busy"
	FrameError    = "error"
	FrameReady    = "ready"
)
