package categorization

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// ProviderKind controls how much evidence a provider alias needs.
type ProviderKind string

const (
	// KindHard aliases classify a transaction as BNPL on their own.
	KindHard ProviderKind = "hard"
	// KindSoft aliases also require an installment keyword.
	KindSoft ProviderKind = "soft"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

// ProviderEntry lists the aliases of one BNPL provider bucket.
type ProviderEntry struct {
	Name    statement.Provider `yaml:"name"`
	Kind    ProviderKind       `yaml:"kind"`
	Aliases []string           `yaml:"aliases"`
}

// CategoryEntry is one keyword rule of the fallback category ladder.
type CategoryEntry struct {
	Category statement.Category `yaml:"category"`
	Pattern  string             `yaml:"pattern"`
}

// RepetitionConfig tunes the repeated-amount check applied to installment
// keywords without a known provider.
type RepetitionConfig struct {
	Tolerance      float64 `yaml:"tolerance"`
	WindowDays     float64 `yaml:"windowDays"`
	MinOccurrences int     `yaml:"minOccurrences"`
}

// Catalog is the configurable keyword data behind the classifier.
type Catalog struct {
	Providers           []ProviderEntry  `yaml:"providers"`
	InstallmentKeywords string           `yaml:"installmentKeywords"`
	Repetition          RepetitionConfig `yaml:"repetition"`
	Categories          []CategoryEntry  `yaml:"categories"`
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(bytes.NewReader(defaultCatalogYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// LoadCatalog decodes and validates a YAML catalog.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadCatalogFile reads a catalog from disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// Validate checks provider names, kinds and that every pattern compiles.
func (c *Catalog) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("%w: no providers", ErrInvalidCatalog)
	}
	for _, p := range c.Providers {
		if !knownProvider(p.Name) {
			return fmt.Errorf("%w: unknown provider %q", ErrInvalidCatalog, p.Name)
		}
		if p.Kind != KindHard && p.Kind != KindSoft {
			return fmt.Errorf("%w: provider %s has kind %q", ErrInvalidCatalog, p.Name, p.Kind)
		}
		if len(p.Aliases) == 0 {
			return fmt.Errorf("%w: provider %s has no aliases", ErrInvalidCatalog, p.Name)
		}
	}

	if strings.TrimSpace(c.InstallmentKeywords) == "" {
		return fmt.Errorf("%w: installment keywords are empty", ErrInvalidCatalog)
	}
	if _, err := regexp.Compile(c.InstallmentKeywords); err != nil {
		return fmt.Errorf("%w: installment keywords: %v", ErrInvalidCatalog, err)
	}

	if c.Repetition.Tolerance <= 0 || c.Repetition.WindowDays <= 0 || c.Repetition.MinOccurrences < 1 {
		return fmt.Errorf("%w: repetition settings must be positive", ErrInvalidCatalog)
	}

	for _, cat := range c.Categories {
		switch cat.Category {
		case statement.CategorySalary, statement.CategoryPurchase, statement.CategoryTransfer,
			statement.CategoryFee, statement.CategoryOther:
		default:
			return fmt.Errorf("%w: category %q cannot be a keyword rule", ErrInvalidCatalog, cat.Category)
		}
		if _, err := regexp.Compile(cat.Pattern); err != nil {
			return fmt.Errorf("%w: category %s: %v", ErrInvalidCatalog, cat.Category, err)
		}
	}
	return nil
}

func knownProvider(p statement.Provider) bool {
	for _, known := range statement.Providers {
		if p == known {
			return true
		}
	}
	return false
}
