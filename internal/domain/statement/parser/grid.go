// Package parser turns uploaded statement spreadsheets into a cell grid and
// extracts typed transactions from that grid.
package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement/sniffer"
)

// Grid is a 2-D cell grid. Rows may have different lengths.
type Grid [][]string

// Cell returns the cell at (row, col) or "" when out of range.
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return ""
	}
	return g[row][col]
}

// Text renders the grid as comma separated lines, the form bank detection
// scans.
func (g Grid) Text() string {
	var b strings.Builder
	for i, row := range g {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Join(row, ","))
	}
	return b.String()
}

// IsEmpty reports whether no cell holds any text.
func (g Grid) IsEmpty() bool {
	for _, row := range g {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return false
			}
		}
	}
	return true
}

// LoadWorkbook reads the first non-empty sheet of an XLSX workbook. Cells are
// read raw so that dates arrive as spreadsheet serials and amounts without
// display formatting.
func LoadWorkbook(r io.Reader) (Grid, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		if grid := Grid(rows); !grid.IsEmpty() {
			return grid, nil
		}
	}
	return Grid{}, nil
}

// LoadCSV reads a delimited text export. The delimiter is sniffed from the
// data and rows may have any number of fields.
func LoadCSV(r io.Reader) (Grid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	delimiter, err := sniffer.DetectDelimiter(data)
	if err != nil {
		if errors.Is(err, sniffer.ErrEmptyFile) {
			return Grid{}, nil
		}
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return Grid(records), nil
}
