package parser

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement/sniffer"
	"github.com/FACorreiaa/statement-analyzer/pkg/money"
)

func TestExtractor_Extract(t *testing.T) {
	extractor := NewExtractor(DefaultConfig())

	t.Run("skips metadata rows without numbers", func(t *testing.T) {
		grid := Grid{
			{"Customer Name: Ali"},
			{"Date", "Description", "Amount"},
			{"45296", "Salary ACME", "5000"},
			{"Customer Name: Ali"},
			{"45301", "Tabby installment 1/4", "-1250"},
		}

		parsed, err := extractor.Extract(grid)
		require.NoError(t, err)
		require.Len(t, parsed.Transactions, 2)
		assert.Equal(t, 1, parsed.HeaderRow)
		assert.Equal(t, sniffer.Fingerprint([]string{"Date", "Description", "Amount"}), parsed.Layout)
		assert.Equal(t, map[string]string{"date": "Date", "description": "Description", "amount": "Amount"}, parsed.Columns)

		salary := parsed.Transactions[0]
		assert.Equal(t, "2024-01-05", salary.Date.String())
		assert.Equal(t, "Salary ACME", salary.Description)
		assert.Equal(t, 5000.0, salary.Amount)
		assert.Equal(t, statement.TypeIncome, salary.Type)
		assert.Equal(t, 2, salary.Row)

		tabby := parsed.Transactions[1]
		assert.Equal(t, "2024-01-10", tabby.Date.String())
		assert.Equal(t, -1250.0, tabby.Amount)
		assert.Equal(t, statement.TypeExpense, tabby.Type)
	})

	t.Run("arabic debit credit layout with arabic-indic digits", func(t *testing.T) {
		grid := Grid{
			{"مصرف الراجحي"},
			{"التاريخ", "البيان", "مدين", "دائن", "الرصيد"},
			{"٤٥٢٩٦", "راتب شهر يناير", "", "٥٠٠٠", "٥٠٠٠"},
			{"45300", "شراء عبر نقاط البيع بنده", "150.00", "", "4850"},
		}

		parsed, err := extractor.Extract(grid)
		require.NoError(t, err)
		require.Len(t, parsed.Transactions, 2)
		assert.Equal(t, "AlRajhi", parsed.Bank)
		assert.Equal(t, "مدين", parsed.Columns["debit"])
		assert.Equal(t, "دائن", parsed.Columns["credit"])

		assert.Equal(t, 5000.0, parsed.Transactions[0].Amount)
		assert.Equal(t, statement.TypeIncome, parsed.Transactions[0].Type)
		assert.Equal(t, "AlRajhi", parsed.Transactions[0].Bank)

		assert.Equal(t, -150.0, parsed.Transactions[1].Amount)
		assert.Equal(t, statement.TypeExpense, parsed.Transactions[1].Type)
	})

	t.Run("negative debit is an inflow", func(t *testing.T) {
		grid := Grid{
			{"Date", "Description", "Debit", "Credit"},
			{"45296", "Refund from merchant", "-200", ""},
			{"45297", "Card payment reversal", "", "-80"},
		}

		parsed, err := extractor.Extract(grid)
		require.NoError(t, err)
		require.Len(t, parsed.Transactions, 2)
		assert.Equal(t, 200.0, parsed.Transactions[0].Amount)
		assert.Equal(t, statement.TypeIncome, parsed.Transactions[0].Type)
		assert.Equal(t, -80.0, parsed.Transactions[1].Amount)
		assert.Equal(t, statement.TypeExpense, parsed.Transactions[1].Type)
	})

	t.Run("amount column sign follows keywords", func(t *testing.T) {
		grid := Grid{
			{"Date", "Description", "Amount"},
			{"45296", "Coffee", "1,235.50-"},
			{"45297", "ATM withdrawal", "500"},
			{"45298", "Salary deposit", "-7000"},
			{"45299", "Misc", "40"},
		}

		parsed, err := extractor.Extract(grid)
		require.NoError(t, err)
		require.Len(t, parsed.Transactions, 4)
		assert.Equal(t, -1235.5, parsed.Transactions[0].Amount)
		assert.Equal(t, -500.0, parsed.Transactions[1].Amount)
		assert.Equal(t, 7000.0, parsed.Transactions[2].Amount)
		assert.Equal(t, 40.0, parsed.Transactions[3].Amount)
		assert.Equal(t, statement.TypeIncome, parsed.Transactions[3].Type)
	})

	t.Run("amount from description", func(t *testing.T) {
		grid := Grid{
			{"Date", "Description", "Amount"},
			{"45296", "POS purchase SAR 89.50 Jarir", ""},
			{"45297", "Opening balance", ""},
		}

		parsed, err := extractor.Extract(grid)
		require.NoError(t, err)
		require.Len(t, parsed.Transactions, 1)
		assert.Equal(t, -89.5, parsed.Transactions[0].Amount)
	})

	t.Run("date fallback to unlabeled column", func(t *testing.T) {
		grid := Grid{
			{"Ref", "Description", "Amount"},
			{"45296", "Coffee", "-10"},
		}

		parsed, err := extractor.Extract(grid)
		require.NoError(t, err)
		require.Len(t, parsed.Transactions, 1)
		assert.Equal(t, "2024-01-05", parsed.Transactions[0].Date.String())
	})

	t.Run("undated rows are kept", func(t *testing.T) {
		grid := Grid{
			{"Date", "Description", "Amount"},
			{"pending", "Coffee", "-10"},
		}

		parsed, err := extractor.Extract(grid)
		require.NoError(t, err)
		require.Len(t, parsed.Transactions, 1)
		assert.False(t, parsed.Transactions[0].Date.Valid())
	})

	t.Run("auxiliary text columns join the description", func(t *testing.T) {
		grid := Grid{
			{"Date", "Description", "Amount", "Merchant", "Ref"},
			{"45296", "POS", "-50", "tabby store", "12345"},
		}

		parsed, err := extractor.Extract(grid)
		require.NoError(t, err)
		require.Len(t, parsed.Transactions, 1)
		assert.Equal(t, "POS tabby store", parsed.Transactions[0].Description)
	})

	t.Run("no transactions", func(t *testing.T) {
		grid := Grid{
			{"Date", "Description", "Amount"},
			{"45296", "Opening balance", ""},
		}

		_, err := extractor.Extract(grid)
		require.Error(t, err)
		assert.ErrorIs(t, err, statement.ErrNoTransactions)

		var parseErr *statement.ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, "No valid transactions could be extracted from the document.", parseErr.Message)
	})

	t.Run("empty grid", func(t *testing.T) {
		_, err := extractor.Extract(Grid{{"", " "}})
		assert.ErrorIs(t, err, statement.ErrEmptyDocument)
	})

	t.Run("input grid is not modified", func(t *testing.T) {
		grid := Grid{
			{"Date", "Description", "Amount"},
			{"45296", "  Coffee\u200f  ", "-10"},
		}
		_, err := extractor.Extract(grid)
		require.NoError(t, err)
		assert.Equal(t, "  Coffee\u200f  ", grid[1][1])
	})
}

func TestExtractor_GeneratedStatement(t *testing.T) {
	gen := money.NewStatementGenerator(2024)
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	rows := gen.Statement(start, 3, true)
	grid := Grid(gen.Grid("Al Rajhi Bank", rows))

	parsed, err := NewExtractor(DefaultConfig()).Extract(grid)
	require.NoError(t, err)

	assert.Equal(t, "AlRajhi", parsed.Bank)
	assert.Equal(t, 4, parsed.HeaderRow)
	require.Len(t, parsed.Transactions, len(rows))

	var want, got float64
	for i, r := range rows {
		want += r.Net().InexactFloat64()
		got += parsed.Transactions[i].Amount
		assert.Equal(t, r.Date.Format("2006-01-02"), parsed.Transactions[i].Date.String())
	}
	assert.InDelta(t, want, got, 0.001)
}

func TestSampleText(t *testing.T) {
	txs := []statement.Transaction{
		{Date: statement.NewDate(2024, time.January, 5), Description: "Salary ACME", Amount: 5000, Type: statement.TypeIncome},
		{Date: statement.NewDate(2024, time.January, 10), Description: "Coffee", Amount: -12.5, Type: statement.TypeExpense},
		{Description: "Pending", Amount: -3, Type: statement.TypeExpense},
	}

	text := SampleText(txs, 2)
	lines := strings.Split(text, "\n")

	assert.Equal(t, "2024-01-05 | Salary ACME | +5000.00 SAR | income", lines[0])
	assert.Equal(t, "2024-01-10 | Coffee | -12.50 SAR | expense", lines[1])
	assert.True(t, strings.HasSuffix(text, "\n\n... (total: 3 transactions)"))
}

func TestAmountFromDescription(t *testing.T) {
	tests := []struct {
		desc   string
		want   float64
		wantOK bool
	}{
		{"Payment SAR 1,250.00", 1250, true},
		{"Paid 99.5 SAR online", 99.5, true},
		{"تحويل ر.س 300", 300, true},
		{"شراء 45 ر.س", 45, true},
		{"SAR 2000000", 0, false},
		{"no amount here", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, ok := AmountFromDescription(tt.desc)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsMetadataRow(t *testing.T) {
	tests := []struct {
		name string
		row  []string
		want bool
	}{
		{"empty", []string{"", ""}, true},
		{"customer name", []string{"Customer Name: Ali"}, true},
		{"account number", []string{"Account Number", "SA0380000000608010167519"}, true},
		{"arabic customer name", []string{"اسم العميل"}, true},
		{"statement period with dates", []string{"Statement Period", "01/01/2024"}, false},
		{"transaction row", []string{"45296", "Coffee", "-10"}, false},
		{"free text", []string{"Opening balance"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isMetadataRow(tt.row))
		})
	}
}

func BenchmarkExtractor_Extract(b *testing.B) {
	gen := money.NewStatementGenerator(1)
	rows := gen.Statement(time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), 24, true)
	grid := Grid(gen.Grid("Alinma Bank", rows))
	extractor := NewExtractor(DefaultConfig())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := extractor.Extract(grid); err != nil {
			b.Fatal(err)
		}
	}
}
