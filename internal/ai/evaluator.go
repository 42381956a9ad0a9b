package ai

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
)

// EvaluatorConfig tunes the evaluation-synthesis client
type EvaluatorConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64
	TopP        float64
	Timeout     time.Duration
}

func (c EvaluatorConfig) withDefaults() EvaluatorConfig {
	if c.MaxTokens <= 0 {
		c.MaxTokens = 800
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.3
	}
	if c.TopP <= 0 {
		c.TopP = 0.9
	}
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	return c
}

// EvaluationInput is a finished practice session
type EvaluationInput struct {
	Transcript []Turn
	StaffTurns []string // derived from Transcript when nil
	Scenario   string
	Duration   time.Duration
}

func (in EvaluationInput) staffTurns() []string {
	if in.StaffTurns != nil {
		return in.StaffTurns
	}
	var out []string
	for _, t := range in.Transcript {
		if t.Sender == SenderUser {
			out = append(out, t.Text)
		}
	}
	return out
}

// Evaluator scores a practice transcript. Evaluate never fails: transport
// problems produce a synthesized result, unparsable replies produce defaults.
type Evaluator struct {
	completer Completer
	prompts   *PromptSet
	cfg       EvaluatorConfig
	observer  FallbackObserver
	logger    zerolog.Logger
}

// NewEvaluator creates an Evaluator
func NewEvaluator(completer Completer, prompts *PromptSet, cfg EvaluatorConfig, observer FallbackObserver, logger zerolog.Logger) *Evaluator {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	if observer == nil {
		observer = NopObserver()
	}
	return &Evaluator{
		completer: completer,
		prompts:   prompts,
		cfg:       cfg.withDefaults(),
		observer:  observer,
		logger:    logger.With().Str("component", "evaluator").Logger(),
	}
}

// Evaluate returns an EvaluationResult for the session
func (e *Evaluator) Evaluate(ctx context.Context, in EvaluationInput) EvaluationResult {
	staff := in.staffTurns()

	prompt, err := e.prompts.Evaluation(EvaluationPromptData{
		Scenario:        strings.TrimSpace(in.Scenario),
		DurationSeconds: int(in.Duration.Round(time.Second) / time.Second),
		StaffTurnCount:  len(staff),
		Transcript:      transcriptLines(in.Transcript),
	})
	if err != nil {
		e.observer.FallbackUsed(ctx, OperationEvaluate, ReasonPrompt, err)
		return SynthesizeEvaluation(in.Scenario, staff)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	reply, err := e.completer.Complete(callCtx, CompletionRequest{
		Model:       e.cfg.Model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
		TopP:        e.cfg.TopP,
		Operation:   OperationEvaluate,
	})
	if err != nil {
		e.observer.FallbackUsed(ctx, OperationEvaluate, ClassifyError(err), err)
		return SynthesizeEvaluation(in.Scenario, staff)
	}

	res, ok := DecodeEvaluation(reply)
	if !ok {
		e.observer.FallbackUsed(ctx, OperationEvaluate, ReasonDecode, nil)
		e.logger.Debug().Int("replyLength", len(reply)).Msg("Evaluation reply had no decodable JSON object")
	}
	return res
}

func transcriptLines(turns []Turn) []TranscriptLine {
	lines := make([]TranscriptLine, 0, len(turns))
	for _, t := range turns {
		speaker := "Customer"
		if t.Sender == SenderUser {
			speaker = "Associate"
		}
		text := strings.Join(strings.Fields(t.Text), " ")
		if text == "" {
			continue
		}
		lines = append(lines, TranscriptLine{Speaker: speaker, Text: text})
	}
	return lines
}

// Fallback synthesis bounds
const (
	synthBase      = 60
	synthFloor     = 60
	synthCeiling   = 90
	synthTurnCap   = 15
	synthLengthCap = 15
	synthVariation = 5
)

// SynthesizeEvaluation derives a plausible evaluation from transcript
// statistics alone. More and longer staff turns score higher; the result is
// fully determined by its inputs.
func SynthesizeEvaluation(scenario string, staffTurns []string) EvaluationResult {
	n := 0
	totalRunes := 0
	for _, t := range staffTurns {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		n++
		totalRunes += utf8.RuneCountInString(t)
	}
	avgLen := 0
	if n > 0 {
		avgLen = totalRunes / n
	}

	base := synthBase + min(synthTurnCap, 3*n) + min(synthLengthCap, avgLen/10)
	base = max(synthFloor, min(synthCeiling, base))

	seed := scenario + "\x00" + strconv.Itoa(n) + "\x00" + strings.Join(staffTurns, "\x1f")

	res := EvaluationResult{OverallScore: base, Feedback: synthFeedback(n, avgLen)}
	res.Categories.Each(func(name string, score *int) {
		*score = base + variation(seed, name)
	})

	switch {
	case n >= 4:
		res.Strengths = append(res.Strengths, "Kept the conversation moving with the customer")
	case n > 0:
		res.Strengths = append(res.Strengths, "Opened the conversation politely")
	}
	if avgLen >= 40 {
		res.Strengths = append(res.Strengths, "Gave detailed, complete answers")
	}
	res.Strengths = append(res.Strengths, "Maintained a professional tone")

	if n < 4 {
		res.Improvements = append(res.Improvements, "Ask more follow-up questions to understand the customer's needs")
	}
	if avgLen < 40 {
		res.Improvements = append(res.Improvements, "Explain product benefits in more detail")
	}
	res.Improvements = append(res.Improvements, "Close with a clear next step for the customer")

	res.EmotionalAnalysis = EmotionalAnalysis{
		Tone:       ToneNeutral,
		Confidence: 55 + min(20, 2*n),
		Engagement: 50 + min(30, 5*n),
	}

	res.Normalize()
	return res
}

// variation returns a deterministic offset in [-synthVariation, synthVariation]
func variation(seed, category string) int {
	h := xxhash.Sum64String(seed + "\x00" + category)
	return int(h%uint64(2*synthVariation+1)) - synthVariation
}

func synthFeedback(turns, avgLen int) string {
	switch {
	case turns == 0:
		return "The session ended before you replied to the customer. Try a full conversation to get a meaningful score."
	case avgLen < 20:
		return "You responded to the customer, but your answers were very short. Add more detail about needs, features and benefits."
	default:
		return "Solid practice session. You engaged with the customer consistently; focus on tailoring recommendations to what they tell you."
	}
}
