package categorization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchIndex(t *testing.T) {
	index, err := NewSearchIndex(DefaultCatalog())
	require.NoError(t, err)
	defer index.Close()

	assert.Greater(t, index.Len(), 20)

	t.Run("exact alias", func(t *testing.T) {
		results, err := index.Search("tabby", 5)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "tabby", results[0].Provider)
		assert.Equal(t, "hard", results[0].Kind)
		assert.Equal(t, "bnpl", results[0].Category)
	})

	t.Run("typo tolerance", func(t *testing.T) {
		results, err := index.Search("tamra", 5)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "tamara", results[0].Provider)
	})

	t.Run("prefix", func(t *testing.T) {
		results, err := index.Search("cash", 5)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "cashew", results[0].Provider)
	})

	t.Run("category keyword", func(t *testing.T) {
		results, err := index.Search("payroll", 5)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, KindCategory, results[0].Kind)
		assert.Equal(t, "salary", results[0].Category)
	})

	t.Run("installment keyword", func(t *testing.T) {
		results, err := index.Search("installment", 5)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, KindInstallment, results[0].Kind)
		assert.Empty(t, results[0].Provider)
	})

	t.Run("reindex replaces documents", func(t *testing.T) {
		small := DefaultCatalog()
		small.Providers = small.Providers[:1]
		small.Categories = nil
		require.NoError(t, index.IndexCatalog(small))
		assert.Equal(t, len(small.Providers[0].Aliases)+len(KeywordsFromPattern(small.InstallmentKeywords)), index.Len())

		results, err := index.Search("tamara", 5)
		require.NoError(t, err)
		for _, r := range results {
			assert.NotEqual(t, "tamara", r.Provider)
		}
	})
}

func TestSearchIndex_Closed(t *testing.T) {
	index, err := NewSearchIndex(DefaultCatalog())
	require.NoError(t, err)
	require.NoError(t, index.Close())
	require.NoError(t, index.Close())

	_, err = index.Search("tabby", 5)
	assert.ErrorIs(t, err, ErrIndexClosed)
}

func TestKeywordsFromPattern(t *testing.T) {
	got := KeywordsFromPattern(`installment|3\s*payments|buy\s*now\s*pay\s*later|\bfees?\b|تم.*الشراء`)
	assert.Equal(t, []string{"installment", "3 payments", "buy now pay later", "fees", "تم الشراء"}, got)
}
