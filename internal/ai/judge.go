// Package ai defines the provider-agnostic contract for LLM judgment of a
// posting against a candidate profile.
package ai

import (
	"context"
	"encoding/json"
)

// Judgment is the structured verdict returned by a judge. Confidence is nil
// when the judge was unavailable or its output was unusable; callers must
// treat a nil confidence as "no LLM signal for this posting".
type Judgment struct {
	Confidence  *float64 `json:"confidence"`
	Label       string   `json:"label"`
	Explanation string   `json:"explanation"`
}

// MarshalJSON emits a missing label as null, matching the persisted run
// contract downstream renderers rely on.
func (j Judgment) MarshalJSON() ([]byte, error) {
	out := struct {
		Confidence  *float64 `json:"confidence"`
		Label       *string  `json:"label"`
		Explanation string   `json:"explanation"`
	}{
		Confidence:  j.Confidence,
		Explanation: j.Explanation,
	}

	if j.Label != "" {
		out.Label = &j.Label
	}

	return json.Marshal(out)
}

// JudgeRequest carries the texts evaluated by a judge. JobText and ResumeText
// are expected to be pre-extracted; judges apply their own prompt budgets.
type JudgeRequest struct {
	Title      string
	JobText    string
	ResumeText string
	Skills     []string
}

// Judge asks an external language model for a match judgment. Implementations
// must be safe for concurrent use.
type Judge interface {
	Evaluate(ctx context.Context, req *JudgeRequest) (*Judgment, error)
}

// Unavailable builds the degraded judgment recorded when a judge call failed:
// nil confidence, no label, and the failure reason as explanation.
func Unavailable(reason string) *Judgment {
	return &Judgment{Explanation: reason}
}
