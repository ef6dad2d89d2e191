package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
)

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain ascii", "  Coffee Shop ", "Coffee Shop"},
		{"arabic-indic digits", "٢٠٢٤-٠١-٠٥", "2024-01-05"},
		{"eastern arabic-indic digits", "۱۲۳", "123"},
		{"right-to-left mark", "\u200fالمبلغ\u200f", "المبلغ"},
		{"zero width and bom", "\ufeffDate\u200b", "Date"},
		{"bidi embedding", "\u202bمدين\u202c", "مدين"},
		{"fullwidth digits folded", "１２３", "123"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.input))
		})
	}
}

func TestCell_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "Transaction Date", Cell(" Transaction \n  Date\t"))
}

func TestHeader(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Transaction Date:", "transactiondate"},
		{"Debit (SAR)", "debitsar"},
		{"\u200fتاريخ العملية", "تاريخالعملية"},
		{"Amount ١", "amount1"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Header(tt.input))
		})
	}
}

func TestIsNumericToken(t *testing.T) {
	assert.True(t, IsNumericToken("120"))
	assert.True(t, IsNumericToken("-4,5"))
	assert.True(t, IsNumericToken("12.50"))
	assert.False(t, IsNumericToken("1,250.00"))
	assert.False(t, IsNumericToken("SAR 12"))
	assert.False(t, IsNumericToken(""))
}

func TestNumericValue(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"1,250.00 SAR", 1250, true},
		{"-45.5", -45.5, true},
		{"45296", 45296, true},
		{"Customer Name", 0, false},
		{"-", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := NumericValue(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}

func TestBankDetector_Detect(t *testing.T) {
	detector := NewBankDetector()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"alinma english", "Alinma Bank Account Statement", "Alinma"},
		{"alinma arabic", "مصرف الإنماء", "Alinma"},
		{"al rajhi spaced", "Al Rajhi Bank", "AlRajhi"},
		{"rajhi arabic", "مصرف الراجحي", "AlRajhi"},
		{"snb", "SNB statement", "SNB"},
		{"national commercial", "The National Commercial Bank", "SNB"},
		{"ahli arabic", "البنك الأهلي السعودي", "SNB"},
		{"riyad", "Riyad Bank", "Riyad"},
		{"first match wins", "Alinma transfer to Riyad Bank", "Alinma"},
		{"unknown", "Some Other Bank", statement.UnknownBank},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detector.Detect(tt.text))
		})
	}
}

func TestBankDetector_DetectGrid(t *testing.T) {
	detector := NewBankDetector()
	grid := [][]string{
		{"Customer Name", "Ali"},
		{"", "Riyad Bank"},
	}
	assert.Equal(t, "Riyad", detector.DetectGrid(grid))
	assert.Equal(t, statement.UnknownBank, detector.DetectGrid(nil))
}

func TestMerchantToken(t *testing.T) {
	tests := []struct {
		name   string
		desc   string
		want   string
		wantOK bool
	}{
		{"marker with on", "Purchase at Starbucks Riyadh on 12/01", "starbucks riyadh", true},
		{"marker at end", "POS purchase at Jarir", "jarir", true},
		{"at sign", "Apple Pay @ careem", "careem", true},
		{"leading words", "Netflix subscription", "netflix subscription", true},
		{"reference number stripped", "starbucks 123456", "starbucks", true},
		{"too short", "abc", "", false},
		{"arabic only", "شراء من متجر", "", false},
		{"atm is not a marker", "ATM withdrawal", "atm withdrawal", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MerchantToken(tt.desc)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
