package ai

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Defaults substituted for absent or malformed evaluation fields
const (
	DefaultCategoryScore = 75
	DefaultOverallScore  = 75
	DefaultToneScore     = 50
	DefaultFeedback      = "Good effort. You kept the conversation going and responded to the customer. Keep practicing to make your recommendations more specific."
)

var (
	defaultStrengths    = []string{"Polite and friendly tone", "Stayed engaged with the customer"}
	defaultImprovements = []string{"Ask more questions about the customer's needs", "Connect product features to concrete benefits"}
)

// DefaultEvaluation returns the all-defaults result
func DefaultEvaluation() EvaluationResult {
	return EvaluationResult{
		OverallScore: DefaultOverallScore,
		Categories: CategoryScores{
			Communication:    DefaultCategoryScore,
			Empathy:          DefaultCategoryScore,
			ProblemSolving:   DefaultCategoryScore,
			ProductKnowledge: DefaultCategoryScore,
			Professionalism:  DefaultCategoryScore,
		},
		Feedback:     DefaultFeedback,
		Strengths:    append([]string(nil), defaultStrengths...),
		Improvements: append([]string(nil), defaultImprovements...),
		EmotionalAnalysis: EmotionalAnalysis{
			Tone:       ToneNeutral,
			Confidence: DefaultToneScore,
			Engagement: DefaultToneScore,
		},
	}
}

// ExtractJSONObject returns the first balanced top-level {...} region of s.
// Braces inside JSON strings are ignored.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// DecodeEvaluation parses a model reply into an EvaluationResult. Each field
// is decoded on its own; anything absent or of the wrong shape keeps its
// default. The bool is false when no decodable JSON object was found at all.
func DecodeEvaluation(reply string) (EvaluationResult, bool) {
	res := DefaultEvaluation()

	region, ok := ExtractJSONObject(reply)
	if !ok {
		return res, false
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(region), &top); err != nil {
		return res, false
	}

	if v, ok := decodeScore(lookup(top, "overallScore", "overall_score", "overall")); ok {
		res.OverallScore = v
	}

	nested := decodeObject(lookup(top, "scores", "categories", "categoryScores", "category_scores"))
	res.Categories.Each(func(name string, score *int) {
		keys := categoryKeys(name)
		raw := lookup(nested, keys...)
		if raw == nil {
			raw = lookup(top, keys...)
		}
		if v, ok := decodeScore(raw); ok {
			*score = v
		}
	})

	if v, ok := decodeString(lookup(top, "feedback")); ok {
		res.Feedback = v
	}
	if v, ok := decodeList(lookup(top, "strengths")); ok {
		res.Strengths = v
	}
	if v, ok := decodeList(lookup(top, "improvements", "areasForImprovement", "areas_for_improvement")); ok {
		res.Improvements = v
	}

	emotion := decodeObject(lookup(top, "emotionalAnalysis", "emotional_analysis", "emotion"))
	if s, ok := decodeString(lookup(emotion, "tone")); ok {
		if tone, ok := ParseTone(s); ok {
			res.EmotionalAnalysis.Tone = tone
		}
	}
	if v, ok := decodeScore(lookup(emotion, "confidence")); ok {
		res.EmotionalAnalysis.Confidence = v
	}
	if v, ok := decodeScore(lookup(emotion, "engagement")); ok {
		res.EmotionalAnalysis.Engagement = v
	}

	res.Normalize()
	return res, true
}

func categoryKeys(name string) []string {
	switch name {
	case "problemSolving":
		return []string{"problemSolving", "problem_solving"}
	case "productKnowledge":
		return []string{"productKnowledge", "product_knowledge"}
	}
	return []string{name}
}

func lookup(m map[string]json.RawMessage, keys ...string) json.RawMessage {
	if m == nil {
		return nil
	}
	for _, k := range keys {
		if raw, ok := m[k]; ok && !isNull(raw) {
			return raw
		}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func decodeObject(raw json.RawMessage) map[string]json.RawMessage {
	if raw == nil {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// decodeScore accepts a JSON number or a numeric string, rounded and clamped
func decodeScore(raw json.RawMessage) (int, bool) {
	if raw == nil {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	}
	if math.IsNaN(f) {
		return 0, false
	}
	// clamp before converting; huge floats overflow int
	return int(math.Round(math.Max(0, math.Min(100, f)))), true
}

func decodeString(raw json.RawMessage) (string, bool) {
	if raw == nil {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// decodeList accepts only arrays of strings; blanks are dropped and the
// result is cut to three entries.
func decodeList(raw json.RawMessage) ([]string, bool) {
	if raw == nil {
		return nil, false
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return limitList(items), true
}
