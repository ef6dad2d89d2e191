package normalizer

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
)

// BankPattern maps an issuing bank to the keywords that identify it.
type BankPattern struct {
	Pattern *regexp.Regexp
	Name    string
}

// defaultBankPatterns is evaluated in order; earlier banks win when a sheet
// mentions several (e.g. a transfer to another bank).
func defaultBankPatterns() []BankPattern {
	return []BankPattern{
		{regexp.MustCompile(`alinma|الإنماء`), "Alinma"},
		{regexp.MustCompile(`al.*rajhi|الراجحي|rajhi`), "AlRajhi"},
		{regexp.MustCompile(`snb|national.*commercial|ncb|الأهلي|ahli`), "SNB"},
		{regexp.MustCompile(`riyad|الرياض`), "Riyad"},
	}
}

// BankDetector identifies the issuing bank from whole-sheet text.
type BankDetector struct {
	patterns []BankPattern
}

// NewBankDetector creates a detector with the Saudi bank keyword groups.
func NewBankDetector() *BankDetector {
	return &BankDetector{patterns: defaultBankPatterns()}
}

// Detect returns the first matching bank name or statement.UnknownBank.
func (d *BankDetector) Detect(text string) string {
	lower := strings.ToLower(Text(text))
	for _, p := range d.patterns {
		if p.Pattern.MatchString(lower) {
			return p.Name
		}
	}
	return statement.UnknownBank
}

// DetectGrid joins every cell of a grid and runs Detect over the result.
func (d *BankDetector) DetectGrid(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	return d.Detect(b.String())
}
