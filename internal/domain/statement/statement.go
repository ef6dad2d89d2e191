// Package statement defines the transaction model shared by every stage of the
// statement analysis pipeline.
package statement

import (
	"encoding/json"
	"time"
)

// UnknownBank is reported when no issuing bank could be detected.
const UnknownBank = "Unknown"

// TransactionType is the direction of a transaction.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Category is the classifier's label for a transaction.
type Category string

const (
	CategorySalary   Category = "salary"
	CategoryPurchase Category = "purchase"
	CategoryTransfer Category = "transfer"
	CategoryFee      Category = "fee"
	CategoryBNPL     Category = "bnpl"
	CategoryOther    Category = "other"
)

// Provider identifies a BNPL provider bucket.
type Provider string

const (
	ProviderNone   Provider = ""
	ProviderTabby  Provider = "tabby"
	ProviderTamara Provider = "tamara"
	ProviderCashew Provider = "cashew"
	ProviderSpotii Provider = "spotii"
	ProviderOther  Provider = "other"
)

// Providers lists the reported provider buckets in display order.
var Providers = []Provider{ProviderTabby, ProviderTamara, ProviderCashew, ProviderSpotii, ProviderOther}

// Bucket maps a provider onto one of the reported buckets. Unnamed and
// unknown providers fall into ProviderOther.
func (p Provider) Bucket() Provider {
	switch p {
	case ProviderTabby, ProviderTamara, ProviderCashew, ProviderSpotii:
		return p
	default:
		return ProviderOther
	}
}

// Date is a calendar date without a time component. The zero value means the
// date could not be parsed.
type Date struct {
	time.Time
}

// NewDate truncates t to midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Valid reports whether the date is known.
func (d Date) Valid() bool {
	return !d.IsZero()
}

// String formats the date as YYYY-MM-DD, or "" when unknown.
func (d Date) String() string {
	if !d.Valid() {
		return ""
	}
	return d.Format("2006-01-02")
}

// MonthKey returns the YYYY-MM bucket of the date.
func (d Date) MonthKey() string {
	if !d.Valid() {
		return ""
	}
	return d.Format("2006-01")
}

// DaysSince returns the number of days from other to d.
func (d Date) DaysSince(other Date) float64 {
	return d.Sub(other.Time).Hours() / 24
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return err
	}
	*d = DateOf(t)
	return nil
}

// Transaction is one extracted statement row.
type Transaction struct {
	Date        Date            `json:"date"`
	Description string          `json:"description"`
	Amount      float64         `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    Category        `json:"category"`
	IsBNPL      bool            `json:"isBnpl"`
	Provider    Provider        `json:"provider,omitempty"`
	Bank        string          `json:"bank"`

	// Row is the zero-based grid row the transaction came from.
	Row int `json:"-"`
}

// IsOutflow reports whether money left the account.
func (t Transaction) IsOutflow() bool {
	return t.Amount < 0
}

// AbsAmount returns the unsigned amount.
func (t Transaction) AbsAmount() float64 {
	if t.Amount < 0 {
		return -t.Amount
	}
	return t.Amount
}

// ParsedStatement is the result of running the extractor over one grid.
type ParsedStatement struct {
	Bank         string
	Transactions []Transaction
	// SampleText renders the leading transactions for narrative generation.
	SampleText string
	HeaderRow  int
	// Headers are the normalized cells of the header row.
	Headers []string
	// Layout fingerprints the header row so repeated bank layouts can be
	// recognized across uploads.
	Layout string
	// Columns maps each resolved column role to its header text.
	Columns map[string]string
}

// DateRange returns the earliest and latest known transaction dates.
func (p *ParsedStatement) DateRange() (start, end Date, ok bool) {
	for _, tx := range p.Transactions {
		if !tx.Date.Valid() {
			continue
		}
		if !ok || tx.Date.Before(start.Time) {
			start = tx.Date
		}
		if !ok || tx.Date.After(end.Time) {
			end = tx.Date
		}
		ok = true
	}
	return start, end, ok
}
