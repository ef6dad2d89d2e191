package sniffer

import (
	"regexp"

	"github.com/agnivade/levenshtein"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement/normalizer"
)

// Role is the semantic meaning of a statement column.
type Role string

const (
	RoleDate        Role = "date"
	RoleDescription Role = "description"
	RoleAmount      Role = "amount"
	RoleDebit       Role = "debit"
	RoleCredit      Role = "credit"
)

// Roles lists every role in resolution order.
var Roles = []Role{RoleDate, RoleDescription, RoleAmount, RoleDebit, RoleCredit}

// NotPresent marks a role that no header matched.
const NotPresent = -1

// rolePatterns are tried in order against cleaned header text; within one
// pattern the leftmost matching header wins.
var rolePatterns = map[Role][]*regexp.Regexp{
	RoleDate: {
		regexp.MustCompile(`date|التاريخ|transaction.*date|posting.*date|تاريخ.*عملية`),
		regexp.MustCompile(`^تاريخ`),
		regexp.MustCompile(`^date$`),
	},
	RoleDescription: {
		regexp.MustCompile(`description|details|وصف|تفاصيل|البيان|narration|particulars|memo`),
		regexp.MustCompile(`transaction.*details|تفاصيل.*عملية`),
	},
	RoleAmount: {
		regexp.MustCompile(`amount|مبلغ|المبلغ|balance|رصيد`),
	},
	RoleDebit: {
		regexp.MustCompile(`debit|withdrawal|سحب|مدين`),
	},
	RoleCredit: {
		regexp.MustCompile(`credit|deposit|إيداع|دائن`),
	},
}

// Misspelled English labels ("Descripton", "Ammount") are matched by edit
// distance once every pattern has failed. Labels of four letters or fewer
// must match exactly: one edit away from "date" is "rate" or "data".
var roleLabels = map[Role][]string{
	RoleDate:        {"date"},
	RoleDescription: {"description", "details", "narration"},
	RoleAmount:      {"amount"},
	RoleDebit:       {"debit", "withdrawal"},
	RoleCredit:      {"credit", "deposit"},
}

// Schema maps each role to a column index. It is built once per document and
// shared read-only by row extraction.
type Schema struct {
	Headers     []string
	Date        int
	Description int
	Amount      int
	Debit       int
	Credit      int
}

// Column returns the index resolved for role.
func (s Schema) Column(role Role) int {
	switch role {
	case RoleDate:
		return s.Date
	case RoleDescription:
		return s.Description
	case RoleAmount:
		return s.Amount
	case RoleDebit:
		return s.Debit
	case RoleCredit:
		return s.Credit
	}
	return NotPresent
}

// Has reports whether role resolved to a column.
func (s Schema) Has(role Role) bool {
	return s.Column(role) != NotPresent
}

// IsRoleColumn reports whether idx is bound to any role.
func (s Schema) IsRoleColumn(idx int) bool {
	return idx == s.Date || idx == s.Description || idx == s.Amount || idx == s.Debit || idx == s.Credit
}

// HeaderName returns the original header text of a role, or "".
func (s Schema) HeaderName(role Role) string {
	idx := s.Column(role)
	if idx < 0 || idx >= len(s.Headers) {
		return ""
	}
	return s.Headers[idx]
}

// ResolveColumns builds a Schema from raw header cells.
func ResolveColumns(headers []string) Schema {
	cleaned := make([]string, len(headers))
	for i, h := range headers {
		cleaned[i] = normalizer.Header(h)
	}

	resolved := make(map[Role]int, len(Roles))
	for _, role := range Roles {
		resolved[role] = findColumn(cleaned, rolePatterns[role])
	}
	for _, role := range Roles {
		if resolved[role] == NotPresent {
			resolved[role] = findColumnByDistance(cleaned, roleLabels[role], resolved)
		}
	}

	return Schema{
		Headers:     headers,
		Date:        resolved[RoleDate],
		Description: resolved[RoleDescription],
		Amount:      resolved[RoleAmount],
		Debit:       resolved[RoleDebit],
		Credit:      resolved[RoleCredit],
	}
}

func findColumn(cleaned []string, patterns []*regexp.Regexp) int {
	for _, p := range patterns {
		for i, h := range cleaned {
			if h != "" && p.MatchString(h) {
				return i
			}
		}
	}
	return NotPresent
}

func findColumnByDistance(cleaned []string, labels []string, taken map[Role]int) int {
	for i, h := range cleaned {
		if h == "" || isTaken(i, taken) {
			continue
		}
		for _, label := range labels {
			if levenshtein.ComputeDistance(h, label) <= maxLabelDistance(label) {
				return i
			}
		}
	}
	return NotPresent
}

func maxLabelDistance(label string) int {
	switch n := len(label); {
	case n <= 4:
		return 0
	case n <= 6:
		return 1
	default:
		return 2
	}
}

func isTaken(idx int, resolved map[Role]int) bool {
	for _, col := range resolved {
		if col == idx {
			return true
		}
	}
	return false
}
