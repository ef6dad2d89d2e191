package statement

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// FilterByDescription keeps the transactions whose description contains the
// characters of query in order, ignoring case and diacritics. Closer matches
// come first; ties keep statement order. An empty query returns txs as is.
func FilterByDescription(txs []Transaction, query string) []Transaction {
	query = strings.TrimSpace(query)
	if query == "" {
		return txs
	}

	descriptions := make([]string, len(txs))
	for i, tx := range txs {
		descriptions[i] = tx.Description
	}

	ranks := fuzzy.RankFindNormalizedFold(query, descriptions)
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Distance < ranks[j].Distance
	})

	out := make([]Transaction, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, txs[r.OriginalIndex])
	}
	return out
}
