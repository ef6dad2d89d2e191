// Package scoring turns a FeatureSet into a bounded credit score and blends it
// with an optional externally supplied score hint.
package scoring

import (
	"math"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/insights"
)

// Source tells whether the final score used the external hint.
type Source string

const (
	SourceRuleBased Source = "rule_based"
	SourceBlended   Source = "blended"
)

const (
	MinScore = 300
	MaxScore = 850

	// BlendWindow is the largest distance between hint and base score at
	// which the hint is still trusted.
	BlendWindow = 80

	ruleWeight = 0.6
	hintWeight = 0.4
)

type threshold struct {
	above float64
	score int
}

// savingsTable maps the savings ratio to a starting score, checked in order.
var savingsTable = []threshold{
	{0.5, 720},
	{0.3, 680},
	{0.15, 640},
	{0, 600},
}

const (
	mildDeficitFloor = -0.5
	mildDeficitScore = 540
	deepDeficitScore = 480
)

// BaseScore computes the deterministic rule-based score of a FeatureSet.
func BaseScore(fs *insights.FeatureSet) int {
	score := savingsScore(fs.SavingsRatio)

	switch {
	case fs.BNPLDepth > 0.3:
		score -= 90
	case fs.BNPLDepth > 0.15:
		score -= 60
	case fs.BNPLDepth > 0:
		score -= 30
	}

	switch {
	case fs.IncomeStability > 0.8:
		score += 30
	case fs.IncomeStability > 0.6:
		score += 15
	case fs.IncomeStability < 0.4:
		score -= 30
	}

	switch {
	case fs.SpendingVolatility > 0.7:
		score -= 30
	case fs.SpendingVolatility > 0.5:
		score -= 20
	case fs.SpendingVolatility > 0.3:
		score -= 10
	}

	return roundToTen(clampScore(float64(score)))
}

func savingsScore(ratio float64) int {
	for _, t := range savingsTable {
		if ratio > t.above {
			return t.score
		}
	}
	if ratio >= mildDeficitFloor {
		return mildDeficitScore
	}
	return deepDeficitScore
}

// ValidHint reports whether a hint value can take part in blending: it must
// be finite and inside the score range.
func ValidHint(hint float64) bool {
	return !math.IsNaN(hint) && !math.IsInf(hint, 0) && hint >= MinScore && hint <= MaxScore
}

// Blend combines base with an optional hint. The hint is used only when it is
// valid and within BlendWindow of base; otherwise base is returned unchanged.
func Blend(base int, hint *float64) (int, Source) {
	if hint == nil || !ValidHint(*hint) {
		return base, SourceRuleBased
	}
	if math.Abs(*hint-float64(base)) > BlendWindow {
		return base, SourceRuleBased
	}
	return roundToTen(clampScore(ruleWeight*float64(base) + hintWeight*(*hint))), SourceBlended
}

func clampScore(v float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, v))
}

// roundToTen rounds half away from zero to the nearest multiple of 10.
func roundToTen(v float64) int {
	return int(math.Round(v/10)) * 10
}
