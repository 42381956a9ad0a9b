package ai

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// Template names, also the file names LoadPrompts looks for (with a .tmpl suffix).
const (
	PromptCustomer   = "customer"
	PromptAssistant  = "assistant"
	PromptEvaluation = "evaluation"
	PromptSummary    = "summary"
)

const defaultCustomerPrompt = `You are role-playing a customer visiting an electronics and home appliance store.
{{- if .Scenario}}
Scenario: {{.Scenario}}
{{- end}}
Stay in character as the customer at all times. Never mention that you are an AI.
Answer the sales associate in one to three short, natural sentences.
Show realistic doubts about price, features or delivery, and warm up when the associate listens well.
Do not wrap your reply in quotes and do not prefix it with a speaker name.`

const defaultAssistantPrompt = `You are a senior sales coach helping a store associate prepare for customer conversations.
{{- if .Scenario}}
The associate is practicing this scenario: {{.Scenario}}
{{- end}}
Give concrete, practical advice in at most four sentences.
Suggest phrasing the associate could use with the customer when it helps.
Do not wrap your reply in quotes and do not prefix it with a speaker name.`

const defaultEvaluationPrompt = `You are evaluating a retail sales associate's practice conversation with a customer.
Scenario: {{if .Scenario}}{{.Scenario}}{{else}}general store visit{{end}}
Duration: {{.DurationSeconds}} seconds, {{.StaffTurnCount}} associate messages.

Transcript:
{{range .Transcript}}{{.Speaker}}: {{.Text}}
{{end}}
Score the associate from 0 to 100 and reply with a single JSON object only, using exactly these keys:
{"overallScore": 0, "scores": {"communication": 0, "empathy": 0, "problemSolving": 0, "productKnowledge": 0, "professionalism": 0}, "feedback": "two or three sentences", "strengths": ["up to three items"], "improvements": ["up to three items"], "emotionalAnalysis": {"tone": "positive|neutral|negative|mixed", "confidence": 0, "engagement": 0}}`

const defaultSummaryPrompt = `Summarize this store case for colleagues in two sentences. Focus on what worked and what others can reuse.
Title: {{.Title}}
Situation: {{.Situation}}
{{- if .Approach}}
Approach: {{.Approach}}
{{- end}}
{{- if .Result}}
Result: {{.Result}}
{{- end}}
{{- if .Learning}}
Learning: {{.Learning}}
{{- end}}`

// TranscriptLine is one rendered line of the evaluation transcript
type TranscriptLine struct {
	Speaker string
	Text    string
}

// EvaluationPromptData feeds the evaluation template
type EvaluationPromptData struct {
	Scenario        string
	DurationSeconds int
	StaffTurnCount  int
	Transcript      []TranscriptLine
}

// SummaryPromptData feeds the post summary template
type SummaryPromptData struct {
	Title     string
	Situation string
	Approach  string
	Result    string
	Learning  string
}

// PromptSet holds the swappable prompt templates
type PromptSet struct {
	templates map[string]*template.Template
}

// DefaultPrompts returns the built-in prompt templates
func DefaultPrompts() *PromptSet {
	ps, err := NewPromptSet(map[string]string{
		PromptCustomer:   defaultCustomerPrompt,
		PromptAssistant:  defaultAssistantPrompt,
		PromptEvaluation: defaultEvaluationPrompt,
		PromptSummary:    defaultSummaryPrompt,
	})
	if err != nil {
		panic(fmt.Sprintf("built-in prompt templates: %v", err))
	}
	return ps
}

// NewPromptSet parses the given templates. Missing names fall back to the built-ins.
func NewPromptSet(sources map[string]string) (*PromptSet, error) {
	ps := &PromptSet{templates: make(map[string]*template.Template, 4)}
	for _, name := range []string{PromptCustomer, PromptAssistant, PromptEvaluation, PromptSummary} {
		src, ok := sources[name]
		if !ok || strings.TrimSpace(src) == "" {
			src = builtinPrompt(name)
		}
		tmpl, err := template.New(name).Option("missingkey=error").Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parse %s prompt: %w", name, err)
		}
		ps.templates[name] = tmpl
	}
	return ps, nil
}

// LoadPrompts reads <name>.tmpl files from dir, keeping built-ins for absent files
func LoadPrompts(dir string) (*PromptSet, error) {
	sources := make(map[string]string)
	for _, name := range []string{PromptCustomer, PromptAssistant, PromptEvaluation, PromptSummary} {
		b, err := os.ReadFile(filepath.Join(dir, name+".tmpl"))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s prompt: %w", name, err)
		}
		sources[name] = string(b)
	}
	return NewPromptSet(sources)
}

func builtinPrompt(name string) string {
	switch name {
	case PromptCustomer:
		return defaultCustomerPrompt
	case PromptAssistant:
		return defaultAssistantPrompt
	case PromptEvaluation:
		return defaultEvaluationPrompt
	default:
		return defaultSummaryPrompt
	}
}

func (p *PromptSet) render(name string, data any) (string, error) {
	tmpl, ok := p.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// System renders the system instruction for a persona
func (p *PromptSet) System(persona Persona, scenario string) (string, error) {
	name := PromptCustomer
	if persona.Normalize() == PersonaAssistant {
		name = PromptAssistant
	}
	return p.render(name, struct{ Scenario string }{Scenario: strings.TrimSpace(scenario)})
}

// Evaluation renders the evaluation request
func (p *PromptSet) Evaluation(data EvaluationPromptData) (string, error) {
	return p.render(PromptEvaluation, data)
}

// Summary renders the post summary request
func (p *PromptSet) Summary(data SummaryPromptData) (string, error) {
	return p.render(PromptSummary, data)
}
