package insights

import (
	"math"
	"sort"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
)

// monthlySeries accumulates income and spending per YYYY-MM key.
type monthlySeries struct {
	income   map[string]float64
	spending map[string]float64
	months   map[string]struct{}
}

func newMonthlySeries() *monthlySeries {
	return &monthlySeries{
		income:   make(map[string]float64),
		spending: make(map[string]float64),
		months:   make(map[string]struct{}),
	}
}

func (s *monthlySeries) add(tx statement.Transaction) {
	key := tx.Date.MonthKey()
	if key == "" {
		return
	}
	s.months[key] = struct{}{}
	switch {
	case tx.Amount > 0:
		s.income[key] += tx.Amount
	case tx.Amount < 0:
		s.spending[key] -= tx.Amount
	}
}

// build returns the income, spending and running balance series over every
// touched month in ascending order. A month missing one side reports 0.
func (s *monthlySeries) build() ([]MonthlyAmount, []MonthlyAmount, []MonthlyBalance) {
	keys := make([]string, 0, len(s.months))
	for k := range s.months {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	income := make([]MonthlyAmount, len(keys))
	spending := make([]MonthlyAmount, len(keys))
	balances := make([]MonthlyBalance, len(keys))
	var running float64
	for i, k := range keys {
		in, out := finite(s.income[k]), finite(s.spending[k])
		running += in - out
		income[i] = MonthlyAmount{Month: k, Amount: in}
		spending[i] = MonthlyAmount{Month: k, Amount: out}
		balances[i] = MonthlyBalance{Month: k, Balance: finite(running)}
	}
	return income, spending, balances
}

// stdDev is the population standard deviation. A series with zero mean
// reports 0.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	if m == 0 {
		return 0
	}
	var variance float64
	for _, v := range values {
		variance += (v - m) * (v - m)
	}
	return math.Sqrt(variance / float64(len(values)))
}

// coefficientOfVariation returns stdDev/mean, or 1 when the mean is not
// positive.
func coefficientOfVariation(values []float64) float64 {
	m := mean(values)
	if m <= 0 {
		return 1
	}
	return stdDev(values) / m
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
