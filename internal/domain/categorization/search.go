package categorization

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
)

// Entry kinds besides the provider kinds "hard" and "soft".
const (
	KindCategory    = "category"
	KindInstallment = "installment"
)

const defaultSearchLimit = 10

var ErrIndexClosed = errors.New("catalog index is closed")

// SearchResult is one catalog entry that a query hit.
type SearchResult struct {
	Provider string  `json:"provider,omitempty"`
	Alias    string  `json:"alias"`
	Kind     string  `json:"kind"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// catalogEntry is the indexed form of a provider alias or keyword.
type catalogEntry struct {
	Alias    string `json:"alias"`
	Provider string `json:"provider"`
	Kind     string `json:"kind"`
	Category string `json:"category"`
}

// SearchIndex answers "which provider or rule would this text hit" over an
// in-memory Bleve index of the catalog, with typo tolerance. The index is
// rebuilt whole on every catalog reload.
type SearchIndex struct {
	mu      sync.RWMutex
	index   bleve.Index
	entries int
}

// NewSearchIndex creates an index populated from catalog.
func NewSearchIndex(catalog *Catalog) (*SearchIndex, error) {
	si := &SearchIndex{}
	if err := si.IndexCatalog(catalog); err != nil {
		return nil, err
	}
	return si, nil
}

func entryMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = simple.Name
	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keyword.Name

	entry := bleve.NewDocumentMapping()
	entry.AddFieldMappingsAt("alias", text)
	for _, field := range []string{"provider", "kind", "category"} {
		entry.AddFieldMappingsAt(field, exact)
	}

	m := bleve.NewIndexMapping()
	m.DefaultMapping = entry
	m.DefaultAnalyzer = simple.Name
	return m
}

// IndexCatalog builds a fresh index from catalog and swaps it in. Searches in
// flight finish on the previous index.
func (si *SearchIndex) IndexCatalog(catalog *Catalog) error {
	index, err := bleve.NewMemOnly(entryMapping())
	if err != nil {
		return fmt.Errorf("failed to create catalog index: %w", err)
	}

	entries := catalogEntries(catalog)
	batch := index.NewBatch()
	for id, e := range entries {
		if err := batch.Index(id, e); err != nil {
			index.Close()
			return fmt.Errorf("failed to index %s: %w", id, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		index.Close()
		return fmt.Errorf("failed to index catalog: %w", err)
	}

	si.mu.Lock()
	previous := si.index
	si.index, si.entries = index, len(entries)
	si.mu.Unlock()

	if previous != nil {
		return previous.Close()
	}
	return nil
}

// Len returns the number of indexed entries.
func (si *SearchIndex) Len() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return si.entries
}

// catalogEntries keys every alias and keyword by a stable document ID.
func catalogEntries(catalog *Catalog) map[string]catalogEntry {
	entries := make(map[string]catalogEntry)
	for _, p := range catalog.Providers {
		for i, alias := range p.Aliases {
			entries[fmt.Sprintf("provider:%s:%d", p.Name, i)] = catalogEntry{
				Alias: alias, Provider: string(p.Name), Kind: string(p.Kind), Category: "bnpl",
			}
		}
	}
	for i, kw := range KeywordsFromPattern(catalog.InstallmentKeywords) {
		entries[fmt.Sprintf("installment:%d", i)] = catalogEntry{
			Alias: kw, Kind: KindInstallment, Category: "bnpl",
		}
	}
	for _, c := range catalog.Categories {
		for i, kw := range KeywordsFromPattern(c.Pattern) {
			entries[fmt.Sprintf("category:%s:%d", c.Category, i)] = catalogEntry{
				Alias: kw, Kind: KindCategory, Category: string(c.Category),
			}
		}
	}
	return entries
}

var (
	patternGaps = regexp.MustCompile(`\\s[*+]?|\.\*|\.\+`)
	patternMeta = regexp.MustCompile(`\\b|[\\^$()\[\]?+*]`)
)

// KeywordsFromPattern turns an alternation pattern such as
// `monthly\s*plan|قسط` into plain keywords.
func KeywordsFromPattern(pattern string) []string {
	var out []string
	for _, part := range strings.Split(pattern, "|") {
		kw := patternMeta.ReplaceAllString(patternGaps.ReplaceAllString(part, " "), "")
		if kw = strings.Join(strings.Fields(kw), " "); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// Search ranks catalog entries against query, tolerating one typo per term
// and matching alias prefixes.
func (si *SearchIndex) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	fuzzy := bleve.NewMatchQuery(query)
	fuzzy.SetField("alias")
	fuzzy.SetFuzziness(1)
	prefix := bleve.NewPrefixQuery(strings.ToLower(strings.TrimSpace(query)))
	prefix.SetField("alias")

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(fuzzy, prefix))
	req.Size = limit
	req.Fields = []string{"*"}

	si.mu.RLock()
	defer si.mu.RUnlock()
	if si.index == nil {
		return nil, ErrIndexClosed
	}
	res, err := si.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}

	results := make([]SearchResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		results = append(results, SearchResult{
			Provider: stringField(hit, "provider"),
			Alias:    stringField(hit, "alias"),
			Kind:     stringField(hit, "kind"),
			Category: stringField(hit, "category"),
			Score:    hit.Score,
		})
	}
	return results, nil
}

func stringField(hit *search.DocumentMatch, name string) string {
	s, _ := hit.Fields[name].(string)
	return s
}

// Close releases the index.
func (si *SearchIndex) Close() error {
	si.mu.Lock()
	defer si.mu.Unlock()
	if si.index == nil {
		return nil
	}
	err := si.index.Close()
	si.index = nil
	return err
}
