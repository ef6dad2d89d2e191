// Package installments groups a provider's BNPL charges into payment cycles
// and estimates what is still owed on them.
package installments

import (
	"math"
	"sort"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
)

const (
	// AmountTolerance is the relative distance from a cluster's running
	// average within which a payment joins that cluster.
	AmountTolerance = 0.05

	// SinglePaymentTotal and SinglePaymentCompleted describe how a lone BNPL
	// charge is read: the first payment of a four-part plan. This is an
	// unvalidated business assumption and should be tuned against real
	// statements.
	SinglePaymentTotal     = 4
	SinglePaymentCompleted = 1
)

// Cycle windows, in days between the first and last payment of a cluster.
const (
	fourPartMinDays  = 28
	fourPartMaxDays  = 50
	threePartMinDays = 15
	threePartMaxDays = 30
)

// Payment is one dated BNPL charge. Amount may carry either sign.
type Payment struct {
	Date   statement.Date
	Amount float64
}

// Plan is the inferred installment plan for one provider.
type Plan struct {
	TotalInstallments     int     `json:"totalInstallments"`
	CompletedInstallments int     `json:"completedInstallments"`
	AmountPerPayment      float64 `json:"amountPerPayment"`
	// Remaining is max(0, total - completed).
	Remaining int `json:"remainingInstallments"`
	// EstimatedMonthlyPayment is AmountPerPayment while payments remain, else 0.
	EstimatedMonthlyPayment float64 `json:"estimatedMonthlyPayment"`
}

type cluster struct {
	payments []Payment
	sum      float64
}

func (c *cluster) average() float64 {
	return c.sum / float64(len(c.payments))
}

func (c *cluster) add(p Payment) {
	c.payments = append(c.payments, p)
	c.sum += math.Abs(p.Amount)
}

// Detect infers the plan behind a provider's payments. Payments are ordered by
// date, grouped greedily by amount, and the largest group decides the cycle.
// An empty input yields the zero Plan.
func Detect(payments []Payment) Plan {
	if len(payments) == 0 {
		return Plan{}
	}

	sorted := make([]Payment, len(payments))
	copy(sorted, payments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date.Time)
	})

	best := largestCluster(clusterByAmount(sorted))
	count := len(best.payments)
	span := best.payments[count-1].Date.DaysSince(best.payments[0].Date)

	total, completed := count, count
	switch {
	case count == 4 && span >= fourPartMinDays && span <= fourPartMaxDays:
		total, completed = 4, 4
	case count == 3 && span >= threePartMinDays && span <= threePartMaxDays:
		total, completed = 3, 3
	case count == 2:
		total, completed = 2, 2
	case count == 1:
		total, completed = SinglePaymentTotal, SinglePaymentCompleted
	}

	plan := Plan{
		TotalInstallments:     total,
		CompletedInstallments: completed,
		AmountPerPayment:      best.average(),
		Remaining:             max(0, total-completed),
	}
	if plan.Remaining > 0 && plan.AmountPerPayment > 0 {
		plan.EstimatedMonthlyPayment = plan.AmountPerPayment
	}
	return plan
}

// clusterByAmount assigns each payment to the first cluster whose running
// average is within AmountTolerance, opening a new cluster otherwise.
func clusterByAmount(payments []Payment) []*cluster {
	var clusters []*cluster
	for _, p := range payments {
		amount := math.Abs(p.Amount)
		var found *cluster
		for _, c := range clusters {
			avg := c.average()
			if avg > 0 && math.Abs(amount-avg)/avg < AmountTolerance {
				found = c
				break
			}
		}
		if found == nil {
			found = &cluster{}
			clusters = append(clusters, found)
		}
		found.add(p)
	}
	return clusters
}

// largestCluster returns the first cluster with the most payments.
func largestCluster(clusters []*cluster) *cluster {
	best := clusters[0]
	for _, c := range clusters[1:] {
		if len(c.payments) > len(best.payments) {
			best = c
		}
	}
	return best
}

// DetectByProvider runs Detect over the dated BNPL transactions of every
// provider bucket. Each bucket in statement.Providers is present in the
// result, with the zero Plan when the provider has no payments.
func DetectByProvider(txs []statement.Transaction) map[statement.Provider]Plan {
	grouped := make(map[statement.Provider][]Payment, len(statement.Providers))
	for _, tx := range txs {
		if !tx.IsBNPL || !tx.Date.Valid() {
			continue
		}
		provider := tx.Provider.Bucket()
		grouped[provider] = append(grouped[provider], Payment{Date: tx.Date, Amount: tx.Amount})
	}

	plans := make(map[statement.Provider]Plan, len(statement.Providers))
	for _, provider := range statement.Providers {
		plans[provider] = Detect(grouped[provider])
	}
	return plans
}
