package categorization

import (
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
)

// MatchResult is the provider whose alias was found in a description.
type MatchResult struct {
	Alias    string
	Provider statement.Provider
	Kind     ProviderKind
	// rank orders candidates: hard providers first, then catalog order.
	rank int
}

// aliasMatcher finds every provider alias, Latin and Arabic, in one
// Aho-Corasick pass over a description. It is built per compiled catalog and
// never modified afterwards, so lookups need no locking.
type aliasMatcher struct {
	matcher *ahocorasick.Matcher
	// candidates[i] lists the providers that declare dictionary entry i.
	candidates [][]MatchResult
}

func newAliasMatcher(providers []ProviderEntry) *aliasMatcher {
	m := &aliasMatcher{}
	index := make(map[string]int)
	var dictionary [][]byte

	for i, p := range providers {
		rank := i
		if p.Kind != KindHard {
			rank += len(providers)
		}
		for _, alias := range p.Aliases {
			key := strings.ToLower(strings.TrimSpace(alias))
			if key == "" {
				continue
			}
			idx, ok := index[key]
			if !ok {
				idx = len(dictionary)
				index[key] = idx
				dictionary = append(dictionary, []byte(key))
				m.candidates = append(m.candidates, nil)
			}
			m.candidates[idx] = append(m.candidates[idx], MatchResult{
				Alias:    alias,
				Provider: p.Name,
				Kind:     p.Kind,
				rank:     rank,
			})
		}
	}

	if len(dictionary) > 0 {
		m.matcher = ahocorasick.NewMatcher(dictionary)
	}
	return m
}

// best returns the top ranked provider with an alias in text, or nil. text
// must already be normalized and lowercased.
func (m *aliasMatcher) best(text string) *MatchResult {
	if m.matcher == nil || text == "" {
		return nil
	}

	var best *MatchResult
	for _, idx := range m.matcher.MatchThreadSafe([]byte(text)) {
		for i := range m.candidates[idx] {
			if c := &m.candidates[idx][i]; best == nil || c.rank < best.rank {
				best = c
			}
		}
	}
	return best
}

// size is the number of distinct aliases.
func (m *aliasMatcher) size() int {
	return len(m.candidates)
}
