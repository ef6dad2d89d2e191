package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
)

const (
	minStatementYear = 2000
	maxStatementYear = 2100
	maxSerial        = 1000000
)

// Layouts tried for dates exported as text. Day-first variants come before
// month-first ones because Saudi banks print dates that way.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02/01/2006",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	"2006/01/02",
	"01/02/2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ParseDate converts a cell to a calendar date. Numeric cells are read as
// spreadsheet serials (days since 1899-12-30); anything else is tried against
// the known text layouts. Only years in [2000, 2100] are accepted.
func ParseDate(raw string) (statement.Date, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return statement.Date{}, false
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return SerialToDate(serial)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return plausible(statement.DateOf(t))
		}
	}
	return statement.Date{}, false
}

// SerialToDate converts a spreadsheet serial day count to a date.
func SerialToDate(serial float64) (statement.Date, bool) {
	if serial <= 0 || serial >= maxSerial {
		return statement.Date{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return statement.Date{}, false
	}
	return plausible(statement.DateOf(t))
}

// DateToSerial is the inverse of SerialToDate for whole days.
func DateToSerial(d statement.Date) float64 {
	epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	return d.Sub(epoch).Hours() / 24
}

func plausible(d statement.Date) (statement.Date, bool) {
	if y := d.Year(); y < minStatementYear || y > maxStatementYear {
		return statement.Date{}, false
	}
	return d, true
}
