// Package insight parses and validates the structured JSON a completion
// model produces when asked to summarize one diagnostic dimension.
package insight

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Insight is the structured assessment of a single dimension.
type Insight struct {
	Score           float64  `json:"score"`
	Tags            []string `json:"tags"`
	KeyIssues       []string `json:"key_issues"`
	Summary         string   `json:"summary,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// InvalidError reports model output that could not be turned into a valid
// insight. The raw output is kept for diagnostics; callers must treat this
// as a hard failure, never substitute a default insight.
type InvalidError struct {
	Reason string
	Raw    string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid insight: %s", e.Reason)
}

// StripCodeFence removes markdown code fence markers the model may wrap its
// JSON in.
func StripCodeFence(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// Parse strips fencing, decodes, and validates the model output.
func Parse(raw string) (*Insight, error) {
	jsonStr := StripCodeFence(raw)
	if jsonStr == "" {
		return nil, &InvalidError{Reason: "empty output", Raw: raw}
	}

	var parsed Insight
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, &InvalidError{Reason: fmt.Sprintf("not valid JSON: %v", err), Raw: raw}
	}

	if err := Validate(&parsed); err != nil {
		return nil, &InvalidError{Reason: err.Error(), Raw: raw}
	}

	// Normalize absent arrays so persisted insights always carry them.
	if parsed.Tags == nil {
		parsed.Tags = []string{}
	}
	if parsed.KeyIssues == nil {
		parsed.KeyIssues = []string{}
	}
	if parsed.Recommendations == nil {
		parsed.Recommendations = []string{}
	}

	return &parsed, nil
}

// Validate checks the invariants a stored insight must satisfy.
func Validate(ins *Insight) error {
	if math.IsNaN(ins.Score) || math.IsInf(ins.Score, 0) {
		return fmt.Errorf("score is not a finite number")
	}
	if ins.Score < 0 || ins.Score > 100 {
		return fmt.Errorf("score %v out of range [0, 100]", ins.Score)
	}
	return nil
}
