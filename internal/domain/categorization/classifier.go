// Package categorization assigns a category and BNPL provider to statement
// transactions using an ordered list of keyword and heuristic rules.
package categorization

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement/normalizer"
)

// Result summarizes one classification pass.
type Result struct {
	// RuleHits counts transactions per winning rule.
	RuleHits map[string]int
	BNPL     int
}

// Classifier annotates transactions in place. The rule set can be swapped at
// runtime; a pass always sees one consistent rule set.
type Classifier struct {
	rules  atomic.Pointer[RuleSet]
	logger *slog.Logger
}

// NewClassifier compiles catalog into a classifier.
func NewClassifier(catalog *Catalog, logger *slog.Logger) (*Classifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Classifier{logger: logger}
	if err := c.Reload(catalog); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload compiles and installs a new catalog. On error the current rules stay
// active.
func (c *Classifier) Reload(catalog *Catalog) error {
	rs, err := Compile(catalog)
	if err != nil {
		return fmt.Errorf("failed to compile catalog: %w", err)
	}
	c.rules.Store(rs)
	c.logger.Info("classifier catalog loaded",
		slog.Int("aliases", rs.aliases.size()),
		slog.Any("rules", rs.Rules()))
	return nil
}

// Classify sets Category, IsBNPL and Provider on every transaction.
func (c *Classifier) Classify(txs []statement.Transaction) Result {
	rs := c.rules.Load()
	result := Result{RuleHits: make(map[string]int)}

	for i := range txs {
		text := strings.ToLower(normalizer.Text(txs[i].Description))
		label, rule := rs.Evaluate(Input{
			Index:        i,
			Transactions: txs,
			Text:         text,
			Match:        rs.aliases.best(text),
			Installment:  rs.installment.MatchString(text),
		})

		txs[i].Category = label.Category
		txs[i].IsBNPL = label.IsBNPL
		txs[i].Provider = label.Provider

		result.RuleHits[rule]++
		if label.IsBNPL {
			result.BNPL++
		}
	}
	return result
}

// ClassifyDescription labels a single description without the
// cross-transaction repetition check.
func (c *Classifier) ClassifyDescription(description string) Label {
	txs := []statement.Transaction{{Description: description}}
	c.Classify(txs)
	return Label{Category: txs[0].Category, IsBNPL: txs[0].IsBNPL, Provider: txs[0].Provider}
}
