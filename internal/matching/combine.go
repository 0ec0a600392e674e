package matching

import (
	"fmt"
	"math"

	"job-radar/internal/ai"
)

// The four recommendation tiers, ordered by severity.
const (
	LabelMustApply   = "must apply"
	LabelRecommended = "recommended"
	LabelCanApply    = "can apply"
	LabelGeneral     = "general"
)

// Combine fuses the embedding similarity, the skill-match signal and an
// optional LLM judgment into the final score, category and explanation.
//
// An LLM judgment with usable confidence takes precedence: 70% of the
// confidence blended with 30% of the embedding score, its label winning over
// the numeric derivation when provided. Otherwise the embedding score carries
// 70% and the skill ratio contributes up to 30 points as a cheap lexical
// recall proxy. The result is clamped to [0,100] in both branches.
func Combine(embedSim float64, skills SkillMatch, judgment *ai.Judgment) (final float64, label, explanation string) {
	embScore := embedSim * 100

	if judgment != nil && judgment.Confidence != nil {
		final = 0.7**judgment.Confidence + 0.3*embScore

		label = judgment.Label
		if label == "" {
			label = LabelFromScore(final)
		}
		explanation = judgment.Explanation
	} else {
		final = 0.7*embScore + 30*skills.Ratio
		label = LabelFromScore(final)
		explanation = fmt.Sprintf("Embed sim %.1f; skill hits %d/%d.", embScore, skills.Hits, skills.Total)
	}

	final = math.Max(0, math.Min(100, final))

	return final, label, explanation
}

// LabelFromScore maps a score to its recommendation tier. Boundaries are
// inclusive on the lower end.
func LabelFromScore(score float64) string {
	switch {
	case score >= 85:
		return LabelMustApply
	case score >= 70:
		return LabelRecommended
	case score >= 50:
		return LabelCanApply
	default:
		return LabelGeneral
	}
}
