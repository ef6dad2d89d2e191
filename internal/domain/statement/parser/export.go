package parser

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
	"github.com/FACorreiaa/statement-analyzer/pkg/money"
)

// ExportRow is the CSV shape of an extracted transaction.
type ExportRow struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Type        string `csv:"type"`
	Category    string `csv:"category"`
	IsBNPL      bool   `csv:"is_bnpl"`
	Provider    string `csv:"provider"`
	Bank        string `csv:"bank"`
}

// ToExportRows converts transactions to their CSV shape.
func ToExportRows(txs []statement.Transaction) []*ExportRow {
	rows := make([]*ExportRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, &ExportRow{
			Date:        tx.Date.String(),
			Description: tx.Description,
			Amount:      money.FromFloat(tx.Amount, money.DefaultCurrency).String(),
			Type:        string(tx.Type),
			Category:    string(tx.Category),
			IsBNPL:      tx.IsBNPL,
			Provider:    string(tx.Provider),
			Bank:        tx.Bank,
		})
	}
	return rows
}

// WriteCSV writes transactions as CSV with a header row.
func WriteCSV(w io.Writer, txs []statement.Transaction) error {
	rows := ToExportRows(txs)
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
