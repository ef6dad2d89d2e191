package advisor

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/scoring"
)

// maxPromptText bounds, in runes, the free text forwarded for flow-text documents.
const maxPromptText = 12000

var (
	ErrNoJSON        = errors.New("response does not contain a JSON object")
	ErrMissingScore  = errors.New("response has no numeric expectedScore")
	ErrEmptyResponse = errors.New("empty response from model")
)

// jsonObject matches the outermost braces of a model answer.
var jsonObject = regexp.MustCompile(`\{[\s\S]*\}`)

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func savingsLabel(r float64) string {
	switch {
	case r > 0.3:
		return "HIGH - positive savings"
	case r < 0:
		return "NEGATIVE - spending exceeds income"
	default:
		return "MODERATE"
	}
}

func bnplLabel(d float64) string {
	switch {
	case d > 0.3:
		return "HIGH RISK"
	case d > 0.15:
		return "MODERATE RISK"
	case d > 0:
		return "LOW RISK"
	default:
		return "NO BNPL"
	}
}

func stabilityLabel(s float64) string {
	switch {
	case s > 0.8:
		return "STABLE"
	case s < 0.4:
		return "UNSTABLE"
	default:
		return "MODERATE"
	}
}

func volatilityLabel(v float64) string {
	switch {
	case v < 0.3:
		return "LOW - consistent spending"
	case v > 0.7:
		return "HIGH - erratic spending"
	default:
		return "MODERATE"
	}
}

const responseFormat = `Respond ONLY with a JSON object of this shape:
{
  "expectedScore": <integer between 300 and 850>,
  "recommendations": ["<specific recommendation>", "..."],
  "narrative": "<2-3 sentences explaining the score using the numbers above>"
}`

// BuildPrompt renders the analyst prompt for a hint request.
func BuildPrompt(req scoring.HintRequest) string {
	var b strings.Builder
	b.WriteString("You are a financial risk analyst for a bank. Credit scores range from 300 to 850; higher means lower risk.\n\n")

	if req.Stats == nil {
		text := req.SampleText
		if r := []rune(text); len(r) > maxPromptText {
			text = string(r[:maxPromptText])
		}
		b.WriteString("The following text was extracted from a bank statement document:\n\n")
		b.WriteString(text)
		b.WriteString("\n\nSummarize the account holder's financial behavior. Use 0 for expectedScore if the text does not allow scoring.\n\n")
		b.WriteString(responseFormat)
		return b.String()
	}

	s := req.Stats
	b.WriteString("Sample transactions:\n")
	b.WriteString(req.SampleText)
	b.WriteString("\n\nFinancial summary (use these exact values):\n")
	fmt.Fprintf(&b, "- Total transactions: %d\n", s.TotalTransactions)
	fmt.Fprintf(&b, "- Total income: %.2f SAR\n", s.TotalIncome)
	fmt.Fprintf(&b, "- Total expenses: %.2f SAR\n", s.TotalExpenses)
	fmt.Fprintf(&b, "- Savings ratio: %s (%s)\n", pct(s.SavingsRatio), savingsLabel(s.SavingsRatio))
	fmt.Fprintf(&b, "- BNPL depth: %s (%d transactions, %.2f SAR) (%s)\n", pct(s.BNPLDepth), s.BNPLCount, s.BNPLAmount, bnplLabel(s.BNPLDepth))
	fmt.Fprintf(&b, "- Income stability: %s (%s)\n", pct(s.IncomeStability), stabilityLabel(s.IncomeStability))
	fmt.Fprintf(&b, "- Spending volatility: %s (%s)\n", pct(s.SpendingVolatility), volatilityLabel(s.SpendingVolatility))
	if s.StartDate != "" {
		fmt.Fprintf(&b, "- Period: %s to %s\n", s.StartDate, s.EndDate)
	}
	fmt.Fprintf(&b, "- Rule-based credit score: %d\n\n", s.RuleBasedScore)
	fmt.Fprintf(&b, "Use the rule-based score as a reference but calculate independently from the metrics. "+
		"Stay within 50 points of %d unless the metrics strongly suggest otherwise. Do not default to 650.\n\n", s.RuleBasedScore)
	b.WriteString(responseFormat)
	return b.String()
}

type hintPayload struct {
	ExpectedScore   *float64 `json:"expectedScore"`
	Recommendations []string `json:"recommendations"`
	Narrative       string   `json:"narrative"`
}

// ParseHint extracts a Hint from a model answer. The answer may wrap the JSON
// object in prose or code fences. Range checks are left to the score engine.
func ParseHint(answer string) (*scoring.Hint, error) {
	raw := jsonObject.FindString(answer)
	if raw == "" {
		return nil, ErrNoJSON
	}

	var payload hintPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode hint: %w", err)
	}
	if payload.ExpectedScore == nil {
		return nil, ErrMissingScore
	}

	return &scoring.Hint{
		ExpectedScore:   *payload.ExpectedScore,
		Recommendations: payload.Recommendations,
		Narrative:       strings.TrimSpace(payload.Narrative),
	}, nil
}
