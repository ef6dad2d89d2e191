package scoring

import (
	"context"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/insights"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
)

// SummaryStats are the headline numbers sent to the hint provider.
type SummaryStats struct {
	TotalTransactions  int     `json:"totalTransactions"`
	TotalIncome        float64 `json:"totalIncome"`
	TotalExpenses      float64 `json:"totalExpenses"`
	SavingsRatio       float64 `json:"savingsRatio"`
	BNPLDepth          float64 `json:"bnplDepth"`
	IncomeStability    float64 `json:"incomeStability"`
	SpendingVolatility float64 `json:"spendingVolatility"`
	BNPLCount          int     `json:"bnplCount"`
	BNPLAmount         float64 `json:"bnplAmount"`
	RuleBasedScore     int     `json:"ruleBasedScore"`
	StartDate          string  `json:"startDate,omitempty"`
	EndDate            string  `json:"endDate,omitempty"`
}

// HintRequest is the input of a HintProvider call.
type HintRequest struct {
	// SampleText holds the leading transactions as text lines, or the raw
	// text of a flow-text document.
	SampleText string
	// Stats is nil for flow-text documents, which carry no transactions.
	Stats *SummaryStats
}

// Hint is an advisory answer from a HintProvider.
type Hint struct {
	ExpectedScore   float64  `json:"expectedScore"`
	Recommendations []string `json:"recommendations"`
	Narrative       string   `json:"narrative"`
}

// HintProvider produces an advisory score and narrative. Implementations
// must honor ctx cancellation.
type HintProvider interface {
	ScoreHint(ctx context.Context, req HintRequest) (*Hint, error)
}

// NewSummaryStats builds the provider summary from a FeatureSet.
func NewSummaryStats(fs *insights.FeatureSet, parsed *statement.ParsedStatement, baseScore int) *SummaryStats {
	stats := &SummaryStats{
		TotalTransactions:  fs.TransactionCount,
		TotalIncome:        fs.TotalIncome,
		TotalExpenses:      fs.TotalSpent,
		SavingsRatio:       fs.SavingsRatio,
		BNPLDepth:          fs.BNPLDepth,
		IncomeStability:    fs.IncomeStability,
		SpendingVolatility: fs.SpendingVolatility,
		BNPLCount:          fs.BNPLTransactionCount,
		BNPLAmount:         fs.BNPLTotal,
		RuleBasedScore:     baseScore,
	}
	if parsed != nil {
		if start, end, ok := parsed.DateRange(); ok {
			stats.StartDate = start.String()
			stats.EndDate = end.String()
		}
	}
	return stats
}
