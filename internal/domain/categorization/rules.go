package categorization

import (
	"math"
	"regexp"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
)

// Rule names, reported in classification stats.
const (
	RuleHardProvider        = "hard_provider"
	RuleSoftProvider        = "soft_provider"
	RuleRepeatedInstallment = "repeated_installment"
	RuleDefault             = "default"
)

// Label is the outcome of a rule.
type Label struct {
	Category statement.Category
	IsBNPL   bool
	Provider statement.Provider
}

var otherLabel = Label{Category: statement.CategoryOther}

// Input is what a rule sees: one transaction, its position and the whole
// statement for cross-transaction checks.
type Input struct {
	Index        int
	Transactions []statement.Transaction
	// Text is the normalized, lowercased description.
	Text  string
	Match *MatchResult
	// Installment reports an explicit installment keyword in Text.
	Installment bool
}

// Tx returns the transaction under classification.
func (in Input) Tx() statement.Transaction {
	return in.Transactions[in.Index]
}

// Rule is one (predicate, label) pair of the ordered rule list.
type Rule struct {
	Name  string
	Apply func(in Input) (Label, bool)
}

// RuleSet is a compiled catalog: the alias matcher, the installment keyword
// pattern and the ordered rules.
type RuleSet struct {
	aliases     *aliasMatcher
	installment *regexp.Regexp
	rules       []Rule
}

// Compile builds a RuleSet from a validated catalog.
func Compile(c *Catalog) (*RuleSet, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	rs := &RuleSet{
		aliases:     newAliasMatcher(c.Providers),
		installment: regexp.MustCompile(c.InstallmentKeywords),
	}

	rs.rules = []Rule{
		{Name: RuleHardProvider, Apply: hardProviderRule},
		{Name: RuleSoftProvider, Apply: softProviderRule},
		{Name: RuleRepeatedInstallment, Apply: repeatedInstallmentRule(c.Repetition)},
	}
	for _, entry := range c.Categories {
		rs.rules = append(rs.rules, keywordRule(entry))
	}
	return rs, nil
}

// Rules returns the rule names in evaluation order.
func (rs *RuleSet) Rules() []string {
	names := make([]string, 0, len(rs.rules)+1)
	for _, r := range rs.rules {
		names = append(names, r.Name)
	}
	return append(names, RuleDefault)
}

// Evaluate runs the rules in order and returns the first label that applies,
// falling back to "other".
func (rs *RuleSet) Evaluate(in Input) (Label, string) {
	for _, r := range rs.rules {
		if label, ok := r.Apply(in); ok {
			return label, r.Name
		}
	}
	return otherLabel, RuleDefault
}

func hardProviderRule(in Input) (Label, bool) {
	if in.Match == nil || in.Match.Kind != KindHard {
		return Label{}, false
	}
	return Label{Category: statement.CategoryBNPL, IsBNPL: true, Provider: in.Match.Provider}, true
}

func softProviderRule(in Input) (Label, bool) {
	if in.Match == nil || in.Match.Kind != KindSoft || !in.Installment {
		return Label{}, false
	}
	return Label{Category: statement.CategoryBNPL, IsBNPL: true, Provider: in.Match.Provider}, true
}

// repeatedInstallmentRule accepts an installment keyword without a provider
// only when the same amount recurs within the window, so that one-off
// purchases mentioning installments in marketing text stay purchases.
func repeatedInstallmentRule(cfg RepetitionConfig) func(Input) (Label, bool) {
	return func(in Input) (Label, bool) {
		if !in.Installment {
			return Label{}, false
		}
		if countSimilar(in.Transactions, in.Index, cfg) < cfg.MinOccurrences {
			return Label{}, false
		}
		return Label{Category: statement.CategoryBNPL, IsBNPL: true, Provider: statement.ProviderOther}, true
	}
}

// countSimilar counts dated transactions, including the one at idx, whose
// amount is within tolerance of it and whose date lies within the window.
func countSimilar(txs []statement.Transaction, idx int, cfg RepetitionConfig) int {
	base := txs[idx]
	if !base.Date.Valid() {
		return 0
	}
	amount := base.AbsAmount()

	count := 0
	for _, other := range txs {
		if !other.Date.Valid() {
			continue
		}
		if math.Abs(other.Date.DaysSince(base.Date)) > cfg.WindowDays {
			continue
		}
		if math.Abs(other.AbsAmount()-amount) <= cfg.Tolerance*amount {
			count++
		}
	}
	return count
}

func keywordRule(entry CategoryEntry) Rule {
	pattern := regexp.MustCompile(entry.Pattern)
	label := Label{Category: entry.Category}
	return Rule{
		Name: string(entry.Category),
		Apply: func(in Input) (Label, bool) {
			return label, pattern.MatchString(in.Text)
		},
	}
}
