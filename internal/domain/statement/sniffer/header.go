// Package sniffer locates the transaction table inside an arbitrary statement
// grid: it finds the header row, resolves column roles and, for delimited
// text, detects the field delimiter.
package sniffer

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement/normalizer"
)

// DefaultHeaderScanRows bounds how far down the grid a header is searched for.
const DefaultHeaderScanRows = 30

// minHeaderGroups is the number of distinct keyword groups a row must hit.
const minHeaderGroups = 2

// Keyword groups a header row is expected to mention (bilingual).
var headerGroups = []*regexp.Regexp{
	regexp.MustCompile(`date|التاريخ|تاريخ`),
	regexp.MustCompile(`description|البيان|الوصف|تفاصيل`),
	regexp.MustCompile(`amount|المبلغ|مبلغ|debit|credit|مدين|دائن`),
}

// Account summary lines such as "Customer Name | Ali" mention header words
// but are never the table header.
var metadataHeaderPattern = regexp.MustCompile(`^customer|^name|^account\s+number|^from\[|^to\[`)

const maxMetadataHeaderCells = 3

// HeaderDetector finds the header row of a statement grid.
type HeaderDetector struct {
	maxRows int
}

// NewHeaderDetector creates a detector scanning at most maxRows rows. A
// non-positive value selects DefaultHeaderScanRows.
func NewHeaderDetector(maxRows int) *HeaderDetector {
	if maxRows <= 0 {
		maxRows = DefaultHeaderScanRows
	}
	return &HeaderDetector{maxRows: maxRows}
}

// FindHeaderRow returns the index of the first row matching at least two
// keyword groups. When no row qualifies it returns 0.
func (d *HeaderDetector) FindHeaderRow(rows [][]string) int {
	for r := 0; r < len(rows) && r < d.maxRows; r++ {
		populated := populatedCells(rows[r])
		joined := strings.ToLower(strings.Join(populated, " "))

		if metadataHeaderPattern.MatchString(joined) && len(populated) <= maxMetadataHeaderCells {
			continue
		}
		if headerScore(joined) >= minHeaderGroups {
			return r
		}
	}
	return 0
}

func headerScore(joined string) int {
	score := 0
	for _, group := range headerGroups {
		if group.MatchString(joined) {
			score++
		}
	}
	return score
}

func populatedCells(row []string) []string {
	cells := make([]string, 0, len(row))
	for _, cell := range row {
		if c := normalizer.Cell(cell); c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}
