package parser

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
)

func buildWorkbook(t *testing.T, sheets map[string][][]interface{}, order []string) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(name, cell, &values))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestLoadWorkbook(t *testing.T) {
	t.Run("reads serial dates raw", func(t *testing.T) {
		buf := buildWorkbook(t, map[string][][]interface{}{
			"Statement": {
				{"Date", "Description", "Amount"},
				{45296, "Salary", 5000},
				{45301, "Coffee", -12.5},
			},
		}, []string{"Statement"})

		grid, err := LoadWorkbook(buf)
		require.NoError(t, err)
		require.Len(t, grid, 3)
		assert.Equal(t, "45296", grid.Cell(1, 0))
		assert.Equal(t, "-12.5", grid.Cell(2, 2))
	})

	t.Run("skips empty leading sheet", func(t *testing.T) {
		buf := buildWorkbook(t, map[string][][]interface{}{
			"Cover": {},
			"Data":  {{"Date", "Amount"}, {45296, 10}},
		}, []string{"Cover", "Data"})

		grid, err := LoadWorkbook(buf)
		require.NoError(t, err)
		assert.Equal(t, "Date", grid.Cell(0, 0))
	})

	t.Run("rejects non workbook input", func(t *testing.T) {
		_, err := LoadWorkbook(strings.NewReader("not a zip"))
		assert.Error(t, err)
	})
}

func TestLoadCSV(t *testing.T) {
	t.Run("semicolon with bom and ragged rows", func(t *testing.T) {
		data := "\xef\xbb\xbfCustomer Name;Ali\nDate;Description;Amount\n05/01/2024;Salary;5000\n06/01/2024;Coffee;-4.50;extra\n"

		grid, err := LoadCSV(strings.NewReader(data))
		require.NoError(t, err)
		require.Len(t, grid, 4)
		assert.Equal(t, "Customer Name", grid.Cell(0, 0))
		assert.Equal(t, "extra", grid.Cell(3, 3))
		assert.Equal(t, "", grid.Cell(9, 9))
	})

	t.Run("empty file", func(t *testing.T) {
		grid, err := LoadCSV(strings.NewReader(""))
		require.NoError(t, err)
		assert.True(t, grid.IsEmpty())
	})

	t.Run("csv feeds the extractor", func(t *testing.T) {
		data := "Date,Description,Amount\n2024-01-05,Salary ACME,5000\n2024-01-10,Coffee,-12.50\n"

		grid, err := LoadCSV(strings.NewReader(data))
		require.NoError(t, err)

		parsed, err := NewExtractor(DefaultConfig()).Extract(grid)
		require.NoError(t, err)
		require.Len(t, parsed.Transactions, 2)
		assert.Equal(t, "2024-01-10", parsed.Transactions[1].Date.String())
	})
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"45296", "2024-01-05", true},
		{"45296.75", "2024-01-05", true},
		{"2024-01-05", "2024-01-05", true},
		{"05/01/2024", "2024-01-05", true},
		{"5 Jan 2024", "2024-01-05", true},
		{"2024/01/05", "2024-01-05", true},
		{"100", "", false},
		{"1999-12-31", "", false},
		{"2101-01-01", "", false},
		{"pending", "", false},
		{"", "", false},
		{"-5", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseDate(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestSerialRoundTrip(t *testing.T) {
	first, ok := SerialToDate(36526)
	require.True(t, ok)
	assert.Equal(t, statement.NewDate(2000, time.January, 1), first)

	for serial := 36526.0; serial < 73051; serial += 97 {
		d, ok := SerialToDate(serial)
		require.True(t, ok, "serial %v", serial)

		month, err := time.Parse("2006-01", d.MonthKey())
		require.NoError(t, err)
		assert.Equal(t, d.Year(), month.Year())
		assert.Equal(t, d.Month(), month.Month())
		assert.Equal(t, serial, DateToSerial(d))
	}
}
