package insights

import (
	"fmt"
	"math"
	"sort"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement/normalizer"
)

const (
	minRecurringCount    = 3
	recurringMerchantCap = 10
	spikeMultiplier      = 2.5
	spikeCap             = 10
	spendingSpeedHorizon = 30
	defaultSpendingSpeed = 0.5
	hoursPerDay          = 24
)

// RecurringMerchant is a merchant seen on at least three outflows.
type RecurringMerchant struct {
	Merchant         string `json:"merchant"`
	TransactionCount int    `json:"transactionCount"`
}

// SpendingSpike is an outflow far above the average monthly spend.
type SpendingSpike struct {
	Date        statement.Date `json:"date"`
	Description string         `json:"description"`
	Amount      float64        `json:"amount"`
	// Deviation is the percentage above the monthly average, e.g. "212.5%".
	Deviation string `json:"deviation"`
}

// RecurringMerchants counts merchant tokens over outflows and keeps the ten
// most frequent with at least three occurrences.
func RecurringMerchants(txs []statement.Transaction) []RecurringMerchant {
	index := make(map[string]int)
	var counted []RecurringMerchant
	for _, tx := range txs {
		if !tx.IsOutflow() {
			continue
		}
		token, ok := normalizer.MerchantToken(tx.Description)
		if !ok {
			continue
		}
		i, seen := index[token]
		if !seen {
			i = len(counted)
			index[token] = i
			counted = append(counted, RecurringMerchant{Merchant: token})
		}
		counted[i].TransactionCount++
	}

	out := make([]RecurringMerchant, 0)
	for _, m := range counted {
		if m.TransactionCount >= minRecurringCount {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TransactionCount > out[j].TransactionCount
	})
	if len(out) > recurringMerchantCap {
		out = out[:recurringMerchantCap]
	}
	return out
}

// SpendingSpikes reports outflows above 2.5x the average monthly spend,
// largest first, at most ten.
func SpendingSpikes(txs []statement.Transaction, totalSpent float64, monthCount int) []SpendingSpike {
	out := make([]SpendingSpike, 0)
	avg := totalSpent / float64(max(1, monthCount))
	if avg <= 0 {
		return out
	}

	for _, tx := range txs {
		if !tx.IsOutflow() {
			continue
		}
		amount := tx.AbsAmount()
		if amount <= avg*spikeMultiplier {
			continue
		}
		out = append(out, SpendingSpike{
			Date:        tx.Date,
			Description: tx.Description,
			Amount:      amount,
			Deviation:   fmt.Sprintf("%.1f%%", (amount/avg-1)*100),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount > out[j].Amount
	})
	if len(out) > spikeCap {
		out = out[:spikeCap]
	}
	return out
}

// SpendingSpeed measures how fast income is spent. For each dated inflow it
// finds the days until later outflows add up to the inflow, capped at 30, and
// returns 1 - avg/30. Statements without dated income report 0.5.
func SpendingSpeed(txs []statement.Transaction) float64 {
	dated := make([]statement.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Date.Valid() {
			dated = append(dated, tx)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].Date.Before(dated[j].Date.Time)
	})

	var days []float64
	for _, inflow := range dated {
		if !isIncome(inflow) {
			continue
		}
		days = append(days, daysToSpend(inflow, dated))
	}
	if len(days) == 0 {
		return defaultSpendingSpeed
	}
	return 1 - math.Min(mean(days)/spendingSpeedHorizon, 1)
}

func isIncome(tx statement.Transaction) bool {
	return tx.Category == statement.CategorySalary || (tx.Type == statement.TypeIncome && tx.Amount > 0)
}

// daysToSpend walks the date-ordered transactions after inflow and returns the
// whole number of days until cumulative outflow reaches its amount.
func daysToSpend(inflow statement.Transaction, sorted []statement.Transaction) float64 {
	target := inflow.AbsAmount()
	var spent float64
	for _, tx := range sorted {
		if !tx.Date.After(inflow.Date.Time) {
			continue
		}
		diff := math.Floor(tx.Date.Sub(inflow.Date.Time).Hours() / hoursPerDay)
		if diff > spendingSpeedHorizon {
			break
		}
		if tx.IsOutflow() {
			spent += tx.AbsAmount()
		}
		if spent >= target {
			return diff
		}
	}
	return spendingSpeedHorizon
}
