// Package insights aggregates classified statement transactions into the
// behavioral features consumed by the credit score engine.
package insights

import (
	"sort"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/installments"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
	"github.com/FACorreiaa/statement-analyzer/pkg/money"
)

const (
	minSavingsRatio = -1.5
	maxSavingsRatio = 1.5

	// insufficientData is reported for stability and volatility when the
	// statement does not carry enough months to measure them.
	insufficientData = 0.5

	topCategoryLimit = 5
)

// MonthlyAmount is one point of the monthly income or spending series.
type MonthlyAmount struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// MonthlyBalance is the cumulative net flow at the end of a month.
type MonthlyBalance struct {
	Month   string  `json:"month"`
	Balance float64 `json:"balance"`
}

// CategorySpend is the absolute outflow booked to a category.
type CategorySpend struct {
	Category statement.Category `json:"category"`
	Amount   float64            `json:"amount"`
}

// FeatureSet contains the financial behavior features of one statement.
type FeatureSet struct {
	TotalIncome        float64 `json:"totalIncome"`
	TotalSpent         float64 `json:"totalSpent"`
	SavingsRatio       float64 `json:"savingsRatio"`
	IncomeStability    float64 `json:"incomeStability"`
	SpendingVolatility float64 `json:"spendingVolatility"`
	BNPLDepth          float64 `json:"bnplDepth"`
	SpendingSpeed      float64 `json:"spendingSpeed"`

	MonthlyIncome   []MonthlyAmount  `json:"monthlyIncome"`
	MonthlySpending []MonthlyAmount  `json:"monthlySpending"`
	MonthlyBalances []MonthlyBalance `json:"monthlyBalances"`

	// Provider maps always carry every bucket in statement.Providers.
	BNPLBreakdown               map[statement.Provider]float64 `json:"bnplBreakdown"`
	BNPLRemainingInstallments   map[statement.Provider]int     `json:"bnplRemainingInstallments"`
	EstimatedMonthlyBNPLPayment map[statement.Provider]float64 `json:"estimatedMonthlyBnplPayment"`

	TopSpendingCategories []CategorySpend     `json:"topSpendingCategories"`
	AverageMonthlySavings float64             `json:"averageMonthlySavings"`
	RecurringMerchants    []RecurringMerchant `json:"recurringMerchants"`
	SpendingSpikes        []SpendingSpike     `json:"spendingSpikes"`

	TransactionCount     int     `json:"transactionCount"`
	BNPLTransactionCount int     `json:"bnplTransactionCount"`
	BNPLTotal            float64 `json:"bnplTotal"`
}

// MonthCount returns the number of months covered by the monthly series.
func (f *FeatureSet) MonthCount() int {
	return len(f.MonthlyIncome)
}

// Aggregate computes the FeatureSet of a classified transaction sequence.
// Undated transactions count toward the totals but not the monthly series.
// An empty sequence is a pipeline defect and yields a ComputationError.
func Aggregate(txs []statement.Transaction) (*FeatureSet, error) {
	if len(txs) == 0 {
		return nil, &statement.ComputationError{Op: "aggregate features", Err: statement.ErrNoTransactionsInput}
	}

	income := money.NewAccumulator(money.DefaultCurrency)
	spent := money.NewAccumulator(money.DefaultCurrency)
	bnplTotal := money.NewAccumulator(money.DefaultCurrency)
	bnplByProvider := make(map[statement.Provider]*money.Accumulator, len(statement.Providers))
	for _, p := range statement.Providers {
		bnplByProvider[p] = money.NewAccumulator(money.DefaultCurrency)
	}
	series := newMonthlySeries()

	fs := &FeatureSet{TransactionCount: len(txs)}
	for _, tx := range txs {
		switch {
		case tx.Amount > 0:
			income.Add(tx.Amount)
		case tx.Amount < 0:
			spent.Add(-tx.Amount)
		}
		series.add(tx)

		if tx.IsBNPL {
			bnplTotal.Add(tx.AbsAmount())
			bnplByProvider[tx.Provider.Bucket()].Add(tx.AbsAmount())
			fs.BNPLTransactionCount++
		}
	}

	fs.TotalIncome = income.Total()
	fs.TotalSpent = spent.Total()
	fs.BNPLTotal = bnplTotal.Total()

	fs.MonthlyIncome, fs.MonthlySpending, fs.MonthlyBalances = series.build()
	fs.AverageMonthlySavings = averageSavings(fs.MonthlyIncome, fs.MonthlySpending)

	if fs.TotalIncome > 0 {
		fs.SavingsRatio = clamp((fs.TotalIncome-fs.TotalSpent)/fs.TotalIncome, minSavingsRatio, maxSavingsRatio)
		fs.BNPLDepth = fs.BNPLTotal / fs.TotalIncome
	}
	fs.IncomeStability = incomeStability(amounts(fs.MonthlyIncome))
	fs.SpendingVolatility = spendingVolatility(amounts(fs.MonthlySpending))
	fs.SpendingSpeed = SpendingSpeed(txs)

	fs.BNPLBreakdown = make(map[statement.Provider]float64, len(statement.Providers))
	fs.BNPLRemainingInstallments = make(map[statement.Provider]int, len(statement.Providers))
	fs.EstimatedMonthlyBNPLPayment = make(map[statement.Provider]float64, len(statement.Providers))
	for provider, plan := range installments.DetectByProvider(txs) {
		fs.BNPLBreakdown[provider] = bnplByProvider[provider].Total()
		fs.BNPLRemainingInstallments[provider] = plan.Remaining
		fs.EstimatedMonthlyBNPLPayment[provider] = plan.EstimatedMonthlyPayment
	}

	fs.TopSpendingCategories = topCategories(txs, topCategoryLimit)
	fs.RecurringMerchants = RecurringMerchants(txs)
	fs.SpendingSpikes = SpendingSpikes(txs, fs.TotalSpent, fs.MonthCount())

	return fs, nil
}

// incomeStability is 1 - CV of monthly income, or 1.0 for a single month.
// Only dated income is measured; undated inflows have no month.
func incomeStability(monthly []float64) float64 {
	total := sum(monthly)
	switch {
	case len(monthly) > 1 && total > 0:
		return clamp(1-min(coefficientOfVariation(monthly), 1), 0, 1)
	case len(monthly) == 1 && total > 0:
		return 1.0
	default:
		return insufficientData
	}
}

// spendingVolatility is the CV of monthly spending, or 0 for a single month.
func spendingVolatility(monthly []float64) float64 {
	total := sum(monthly)
	switch {
	case len(monthly) > 1 && total > 0:
		return clamp(coefficientOfVariation(monthly), 0, 1)
	case len(monthly) == 1:
		return 0.0
	default:
		return insufficientData
	}
}

func averageSavings(income, spending []MonthlyAmount) float64 {
	if len(income) == 0 {
		return 0
	}
	var sum float64
	for i := range income {
		sum += income[i].Amount - spending[i].Amount
	}
	return sum / float64(len(income))
}

// topCategories sums absolute outflow per category, largest first. Ties keep
// the order in which categories first appear.
func topCategories(txs []statement.Transaction, limit int) []CategorySpend {
	index := make(map[statement.Category]int)
	out := make([]CategorySpend, 0, limit)
	for _, tx := range txs {
		if !tx.IsOutflow() {
			continue
		}
		category := tx.Category
		if category == "" {
			category = statement.CategoryOther
		}
		i, ok := index[category]
		if !ok {
			i = len(out)
			index[category] = i
			out = append(out, CategorySpend{Category: category})
		}
		out[i].Amount += tx.AbsAmount()
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount > out[j].Amount
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func amounts(series []MonthlyAmount) []float64 {
	out := make([]float64, len(series))
	for i, m := range series {
		out[i] = m.Amount
	}
	return out
}
