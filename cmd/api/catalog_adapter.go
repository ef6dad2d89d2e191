package api

import (
	"github.com/FACorreiaa/statement-analyzer/internal/domain/categorization"
	"github.com/FACorreiaa/statement-analyzer/pkg/cron"
)

// searchIndexAdapter adapts categorization.SearchIndex to the scheduler's
// CatalogConsumer interface
type searchIndexAdapter struct {
	index *categorization.SearchIndex
}

// newSearchIndexAdapter creates a new adapter
func newSearchIndexAdapter(index *categorization.SearchIndex) cron.CatalogConsumer {
	return &searchIndexAdapter{index: index}
}

// Reload implements cron.CatalogConsumer by rebuilding the index
func (a *searchIndexAdapter) Reload(catalog *categorization.Catalog) error {
	return a.index.IndexCatalog(catalog)
}

// catalogConsumers lists everything that must see a reloaded catalog. The
// classifier comes first so uploads pick up new rules before search does.
func catalogConsumers(classifier *categorization.Classifier, index *categorization.SearchIndex) []cron.CatalogConsumer {
	return []cron.CatalogConsumer{classifier, newSearchIndexAdapter(index)}
}
