package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Persona selects which role the model plays in a practice conversation
type Persona string

const (
	PersonaCustomer  Persona = "customer"
	PersonaAssistant Persona = "assistant"
)

// Normalize maps unknown or empty personas to the customer persona
func (p Persona) Normalize() Persona {
	if p == PersonaAssistant {
		return PersonaAssistant
	}
	return PersonaCustomer
}

// Sender identifies who authored a conversation turn
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Turn is one line of a practice conversation
type Turn struct {
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryEntry is a prior turn as sent by clients. It accepts a plain string,
// a {role, content} object or a {sender, text} object.
type HistoryEntry struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content"`
}

// UnmarshalJSON implements json.Unmarshaler
func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*h = HistoryEntry{Content: s}
		return nil
	}

	var obj struct {
		Role    string `json:"role"`
		Content string `json:"content"`
		Sender  string `json:"sender"`
		Text    string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("history entry must be a string or an object: %w", err)
	}

	entry := HistoryEntry{Role: obj.Role, Content: obj.Content}
	if entry.Content == "" {
		entry.Content = obj.Text
	}
	if entry.Role == "" {
		entry.Role = obj.Sender
	}
	entry.Role = normalizeRole(entry.Role)
	*h = entry
	return nil
}

// normalizeRole maps sender and role spellings onto chat roles. Unknown
// values become "" so position decides the role.
func normalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "user", "staff", "human":
		return "user"
	case "ai", "assistant", "bot", "customer", "model":
		return "assistant"
	}
	return ""
}

// HistoryFromTurns converts practice turns into history entries
func HistoryFromTurns(turns []Turn) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(turns))
	for _, t := range turns {
		out = append(out, HistoryEntry{Role: normalizeRole(string(t.Sender)), Content: t.Text})
	}
	return out
}

// Tone is the overall emotional tone detected in a conversation
type Tone string

const (
	TonePositive Tone = "positive"
	ToneNeutral  Tone = "neutral"
	ToneNegative Tone = "negative"
	ToneMixed    Tone = "mixed"
)

// ParseTone returns the tone named by s, or false when s is not a known tone
func ParseTone(s string) (Tone, bool) {
	switch t := Tone(strings.ToLower(strings.TrimSpace(s))); t {
	case TonePositive, ToneNeutral, ToneNegative, ToneMixed:
		return t, true
	}
	return "", false
}

// EmotionalAnalysis describes the customer-facing tone of the staff turns
type EmotionalAnalysis struct {
	Tone       Tone `json:"tone"`
	Confidence int  `json:"confidence"`
	Engagement int  `json:"engagement"`
}

// CategoryScores are the five skill categories of an evaluation
type CategoryScores struct {
	Communication    int `json:"communication"`
	Empathy          int `json:"empathy"`
	ProblemSolving   int `json:"problemSolving"`
	ProductKnowledge int `json:"productKnowledge"`
	Professionalism  int `json:"professionalism"`
}

// Each calls fn for every category in a fixed order
func (c *CategoryScores) Each(fn func(name string, score *int)) {
	fn("communication", &c.Communication)
	fn("empathy", &c.Empathy)
	fn("problemSolving", &c.ProblemSolving)
	fn("productKnowledge", &c.ProductKnowledge)
	fn("professionalism", &c.Professionalism)
}

// EvaluationResult is the structured assessment of one practice session.
// Every score is an integer in [0,100]; Strengths and Improvements hold at most 3 entries.
type EvaluationResult struct {
	OverallScore      int               `json:"overallScore"`
	Categories        CategoryScores    `json:"categories"`
	Feedback          string            `json:"feedback"`
	Strengths         []string          `json:"strengths"`
	Improvements      []string          `json:"improvements"`
	EmotionalAnalysis EmotionalAnalysis `json:"emotionalAnalysis"`
}

const (
	maxListItems = 3
	minScore     = 0
	maxScore     = 100
)

// Normalize clamps every score and trims the lists in place
func (r *EvaluationResult) Normalize() {
	r.OverallScore = clampScore(r.OverallScore)
	r.Categories.Each(func(_ string, score *int) { *score = clampScore(*score) })
	r.EmotionalAnalysis.Confidence = clampScore(r.EmotionalAnalysis.Confidence)
	r.EmotionalAnalysis.Engagement = clampScore(r.EmotionalAnalysis.Engagement)
	if _, ok := ParseTone(string(r.EmotionalAnalysis.Tone)); !ok {
		r.EmotionalAnalysis.Tone = ToneNeutral
	}
	r.Strengths = limitList(r.Strengths)
	r.Improvements = limitList(r.Improvements)
}

func clampScore(v int) int {
	if v < minScore {
		return minScore
	}
	if v > maxScore {
		return maxScore
	}
	return v
}

func limitList(items []string) []string {
	out := make([]string, 0, maxListItems)
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		out = append(out, it)
		if len(out) == maxListItems {
			break
		}
	}
	return out
}
