package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement/normalizer"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement/sniffer"
	"github.com/FACorreiaa/statement-analyzer/pkg/money"
)

const (
	// DefaultSampleSize is how many transactions are rendered into the
	// narrative sample.
	DefaultSampleSize = 20

	// dateFallbackColumns bounds how many unlabeled columns are probed for a
	// serial date when the date column is missing or unparseable.
	dateFallbackColumns = 5

	maxDescriptionAmount = 1000000
	maxNumericCell       = 10000000
)

const (
	msgNoTransactions = "No valid transactions could be extracted from the document."
	msgEmptyDocument  = "Uploaded document appears to be empty or could not be parsed."
)

var (
	// Label rows that carry account details instead of transactions.
	metadataPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^customer\s*name|^اسم\s*العميل$`),
		regexp.MustCompile(`(?i)^account\s+number|^رقم\s+الحساب$`),
		regexp.MustCompile(`(?i)^from\[|^to\[`),
		regexp.MustCompile(`(?i)^statement\s+period|^فترة\s+البيان$`),
		regexp.MustCompile(`(?i)^brief\s+statement`),
	}

	descriptionAmountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)SAR\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`(?i)([\d,]+\.?\d*)\s*SAR`),
		regexp.MustCompile(`ر\.س\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`([\d,]+\.?\d*)\s*ر\.س`),
	}

	incomeIndicator  = regexp.MustCompile(`(?i)\bcr\b|credit|deposit|salary|راتب|إيداع|دائن|حوالة.*واردة|transfer.*\bin\b`)
	expenseIndicator = regexp.MustCompile(`(?i)\bdr\b|debit|withdrawal|purchase|شراء|تم.*الشراء|سحب|مدين|apple.*pay|mada`)
)

// amountSource records which column chain produced a row's amount.
type amountSource int

const (
	sourceNone amountSource = iota
	sourceDebit
	sourceCredit
	sourceAmount
	sourceDescription
)

// Config tunes the extractor.
type Config struct {
	HeaderScanRows int
	SampleSize     int
}

// DefaultConfig returns the extractor defaults.
func DefaultConfig() Config {
	return Config{
		HeaderScanRows: sniffer.DefaultHeaderScanRows,
		SampleSize:     DefaultSampleSize,
	}
}

// Extractor locates the transaction table in a grid and converts its rows to
// transactions.
type Extractor struct {
	config  Config
	banks   *normalizer.BankDetector
	headers *sniffer.HeaderDetector
}

// NewExtractor creates an extractor.
func NewExtractor(config Config) *Extractor {
	if config.SampleSize <= 0 {
		config.SampleSize = DefaultSampleSize
	}
	return &Extractor{
		config:  config,
		banks:   normalizer.NewBankDetector(),
		headers: sniffer.NewHeaderDetector(config.HeaderScanRows),
	}
}

// Extract runs bank detection, header localization, column resolution and
// row extraction over grid. The input grid is not modified.
func (e *Extractor) Extract(grid Grid) (*statement.ParsedStatement, error) {
	if grid.IsEmpty() {
		return nil, statement.NewParseError("spreadsheet", msgEmptyDocument, "the file contains no cells", statement.ErrEmptyDocument)
	}

	rows := make([][]string, len(grid))
	for i, row := range grid {
		rows[i] = normalizer.Row(append([]string(nil), row...))
	}

	bank := e.banks.DetectGrid(rows)
	headerRow := e.headers.FindHeaderRow(rows)
	schema := sniffer.ResolveColumns(rows[headerRow])

	var txs []statement.Transaction
	for r := headerRow + 1; r < len(rows); r++ {
		row := rows[r]
		if isMetadataRow(row) {
			continue
		}
		tx, ok := extractRow(row, schema)
		if !ok {
			continue
		}
		tx.Bank = bank
		tx.Row = r
		txs = append(txs, tx)
	}

	if len(txs) == 0 {
		return nil, statement.NewParseError("spreadsheet", msgNoTransactions, "check that the sheet has a date, description and amount column", statement.ErrNoTransactions)
	}

	return &statement.ParsedStatement{
		Bank:         bank,
		Transactions: txs,
		SampleText:   SampleText(txs, e.config.SampleSize),
		HeaderRow:    headerRow,
		Headers:      rows[headerRow],
		Layout:       sniffer.Fingerprint(rows[headerRow]),
		Columns:      resolvedColumns(schema),
	}, nil
}

func resolvedColumns(schema sniffer.Schema) map[string]string {
	columns := make(map[string]string, len(sniffer.Roles))
	for _, role := range sniffer.Roles {
		if name := schema.HeaderName(role); name != "" {
			columns[string(role)] = name
		}
	}
	return columns
}

// SampleText renders the first n transactions one per line, followed by the
// total count.
func SampleText(txs []statement.Transaction, n int) string {
	if n > len(txs) {
		n = len(txs)
	}
	lines := make([]string, 0, n)
	for _, tx := range txs[:n] {
		lines = append(lines, fmt.Sprintf("%s | %s | %s SAR | %s", tx.Date, tx.Description, money.Signed(tx.Amount), tx.Type))
	}
	return strings.Join(lines, "\n") + fmt.Sprintf("\n\n... (total: %d transactions)", len(txs))
}

// isMetadataRow reports empty rows and pure label rows. A row holding any
// numeric value is never metadata.
func isMetadataRow(row []string) bool {
	var values []string
	for _, cell := range row {
		if cell != "" {
			values = append(values, cell)
		}
	}
	if len(values) == 0 {
		return true
	}

	for _, v := range values {
		if n, ok := normalizer.NumericValue(v); ok && n != 0 && abs(n) < maxNumericCell {
			return false
		}
	}

	if len(values) > 2 {
		return false
	}
	text := strings.ToLower(strings.Join(values, " "))
	for _, p := range metadataPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func extractRow(row []string, schema sniffer.Schema) (statement.Transaction, bool) {
	cell := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	tx := statement.Transaction{
		Date:        extractDate(row, schema),
		Description: extractDescription(row, schema),
	}

	amount, source := resolveAmount(cell(schema.Debit), cell(schema.Credit), cell(schema.Amount), tx.Description)
	if source == sourceNone || amount == 0 {
		return statement.Transaction{}, false
	}

	switch source {
	case sourceDebit, sourceCredit:
		// Debit and credit columns carry an authoritative sign.
		tx.Type = typeFromSign(amount)
	default:
		tx.Type = determineType(tx.Description, amount, cell(schema.Debit), cell(schema.Credit))
		if tx.Type == statement.TypeIncome && amount < 0 {
			amount = -amount
		} else if tx.Type == statement.TypeExpense && amount > 0 {
			amount = -amount
		}
	}

	tx.Amount = amount
	tx.Category = statement.CategoryOther
	return tx, true
}

func extractDate(row []string, schema sniffer.Schema) statement.Date {
	if schema.Date >= 0 && schema.Date < len(row) {
		if d, ok := ParseDate(row[schema.Date]); ok {
			return d
		}
	}

	probed := 0
	for idx, value := range row {
		if probed >= dateFallbackColumns {
			break
		}
		if schema.IsRoleColumn(idx) {
			continue
		}
		probed++
		if value == "" {
			continue
		}
		if serial, err := strconv.ParseFloat(value, 64); err == nil {
			if d, ok := SerialToDate(serial); ok {
				return d
			}
		}
	}
	return statement.Date{}
}

// extractDescription joins the description column with every other free-text
// column so that merchant names in auxiliary columns are not lost.
func extractDescription(row []string, schema sniffer.Schema) string {
	var parts []string
	if schema.Description >= 0 && schema.Description < len(row) && row[schema.Description] != "" {
		parts = append(parts, row[schema.Description])
	}
	for idx, value := range row {
		if schema.IsRoleColumn(idx) || value == "" {
			continue
		}
		if normalizer.IsNumericToken(value) || utf8.RuneCountInString(value) <= 2 {
			continue
		}
		parts = append(parts, value)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// resolveAmount walks debit, credit, amount and description in priority order.
func resolveAmount(debit, credit, amount, description string) (float64, amountSource) {
	if v, ok := columnAmount(debit); ok {
		// A negative debit is a reversal, i.e. money coming in.
		return -v, sourceDebit
	}
	if v, ok := columnAmount(credit); ok {
		return v, sourceCredit
	}
	if v, ok := columnAmount(amount); ok {
		return v, sourceAmount
	}
	if v, ok := AmountFromDescription(description); ok {
		return v, sourceDescription
	}
	return 0, sourceNone
}

func columnAmount(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	v, err := money.ParseAmountFloat(raw)
	if err != nil || v == 0 {
		return 0, false
	}
	return v, true
}

// AmountFromDescription finds a currency amount such as "SAR 1,250.00" or
// "350 ر.س" in free text.
func AmountFromDescription(description string) (float64, bool) {
	if description == "" {
		return 0, false
	}
	for _, p := range descriptionAmountPatterns {
		m := p.FindStringSubmatch(description)
		if len(m) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err == nil && v > 0 && v < maxDescriptionAmount {
			return v, true
		}
	}
	return 0, false
}

// determineType combines bilingual keyword indicators with the debit and
// credit cells. Missing or contradictory indicators fall back to the sign.
func determineType(description string, amount float64, debit, credit string) statement.TransactionType {
	if description == "" {
		return typeFromSign(amount)
	}

	isIncome := incomeIndicator.MatchString(description) || positiveCell(credit)
	isExpense := expenseIndicator.MatchString(description) || positiveCell(debit)

	switch {
	case isIncome && !isExpense:
		return statement.TypeIncome
	case isExpense && !isIncome:
		return statement.TypeExpense
	}
	return typeFromSign(amount)
}

func positiveCell(raw string) bool {
	v, ok := normalizer.NumericValue(raw)
	return ok && v > 0
}

func typeFromSign(amount float64) statement.TransactionType {
	if amount >= 0 {
		return statement.TypeIncome
	}
	return statement.TypeExpense
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
