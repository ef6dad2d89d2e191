package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/insights"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/scoring"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement/service"
	"github.com/FACorreiaa/statement-analyzer/pkg/money"
)

type analyzeOptions struct {
	json bool
	hint bool
}

type analyzeReport struct {
	File             string               `json:"file"`
	Mode             service.Mode         `json:"mode"`
	Bank             string               `json:"bank,omitempty"`
	Score            int                  `json:"score,omitempty"`
	BaseScore        int                  `json:"baseScore,omitempty"`
	AIExpectedScore  *int                 `json:"aiExpectedScore,omitempty"`
	ScoreSource      scoring.Source       `json:"scoreSource,omitempty"`
	Summary          string               `json:"summary"`
	Recommendations  []string             `json:"recommendations"`
	TransactionCount int                  `json:"transactionCount,omitempty"`
	Features         *insights.FeatureSet `json:"features,omitempty"`
}

func newAnalyzeCommand(global *globalOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Score a statement file (.xlsx, .csv, .docx, .pdf)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return err
			}

			p, err := global.newPipeline(cmd.Context(), global.logger(cmd.ErrOrStderr()), opts.hint)
			if err != nil {
				return err
			}
			defer p.Close()

			analysis, err := p.svc.Analyze(cmd.Context(), filepath.Base(args[0]), data)
			if err != nil {
				return err
			}

			report := newAnalyzeReport(args[0], analysis)
			if opts.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return writeAnalyzeText(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "print the full report as JSON")
	cmd.Flags().BoolVar(&opts.hint, "hint", false, "ask Gemini for a score hint (needs GEMINI_API_KEY)")

	return cmd
}

func newAnalyzeReport(file string, a *service.Analysis) analyzeReport {
	report := analyzeReport{
		File:            file,
		Mode:            a.Mode,
		Summary:         a.Score.Summary,
		Recommendations: a.Score.Recommendations,
	}
	if a.Mode == service.ModeScored {
		report.Bank = a.Statement.Bank
		report.Score = a.Score.FinalScore
		report.BaseScore = a.Score.BaseScore
		report.AIExpectedScore = a.Score.ExternalScoreHint
		report.ScoreSource = a.Score.Source
		report.TransactionCount = len(a.Statement.Transactions)
		report.Features = a.Features
	}
	return report
}

func writeAnalyzeText(w io.Writer, r analyzeReport) error {
	var b strings.Builder
	fmt.Fprintf(&b, "File:         %s\n", r.File)
	if r.Mode == service.ModeScored {
		fs := r.Features
		fmt.Fprintf(&b, "Bank:         %s\n", r.Bank)
		fmt.Fprintf(&b, "Transactions: %d\n", r.TransactionCount)
		fmt.Fprintf(&b, "Score:        %d (%s, rule based %d)\n", r.Score, r.ScoreSource, r.BaseScore)
		fmt.Fprintf(&b, "Income:       %s\n", money.FromFloat(fs.TotalIncome, money.DefaultCurrency).Display())
		fmt.Fprintf(&b, "Spent:        %s\n", money.FromFloat(fs.TotalSpent, money.DefaultCurrency).Display())
		fmt.Fprintf(&b, "Savings:      %.1f%%\n", fs.SavingsRatio*100)
		fmt.Fprintf(&b, "BNPL depth:   %.1f%%\n", fs.BNPLDepth*100)
		for _, p := range statement.Providers {
			if remaining := fs.BNPLRemainingInstallments[p]; remaining > 0 {
				fmt.Fprintf(&b, "  %-10s %d installments left, ~%.2f per month\n", p, remaining, fs.EstimatedMonthlyBNPLPayment[p])
			}
		}
	}
	fmt.Fprintf(&b, "\n%s\n", r.Summary)
	_, err := io.WriteString(w, b.String())
	return err
}
