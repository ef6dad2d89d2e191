// Package commands implements the statementctl CLI.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/advisor"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/categorization"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/scoring"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement/parser"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement/service"
)

// globalOptions are shared by every subcommand.
type globalOptions struct {
	catalogPath string
	verbose     bool
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "statementctl",
		Short: "Analyze bank statement spreadsheets offline",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "provider catalog YAML (default: embedded catalog)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline progress to stderr")

	rootCmd.AddCommand(newAnalyzeCommand(opts))
	rootCmd.AddCommand(newExportCommand(opts))
	rootCmd.AddCommand(newCatalogCommand(opts))

	return rootCmd
}

func (o *globalOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *globalOptions) catalog() (*categorization.Catalog, error) {
	if o.catalogPath == "" {
		return categorization.DefaultCatalog(), nil
	}
	return categorization.LoadCatalogFile(o.catalogPath)
}

// pipeline holds a service built for one CLI invocation.
type pipeline struct {
	svc     *service.StatementService
	advisor *advisor.GeminiAdvisor
}

func (p *pipeline) Close() {
	if p.advisor != nil {
		_ = p.advisor.Close()
	}
}

// newPipeline builds the analysis service. When withHint is set the Gemini
// key is read from GEMINI_API_KEY.
func (o *globalOptions) newPipeline(ctx context.Context, logger *slog.Logger, withHint bool) (*pipeline, error) {
	catalog, err := o.catalog()
	if err != nil {
		return nil, err
	}
	classifier, err := categorization.NewClassifier(catalog, logger)
	if err != nil {
		return nil, err
	}

	p := &pipeline{}
	var provider scoring.HintProvider
	if withHint {
		adv, err := advisor.NewGeminiAdvisor(ctx, os.Getenv("GEMINI_API_KEY"), os.Getenv("GEMINI_MODEL"), logger)
		if err != nil {
			return nil, fmt.Errorf("score hints unavailable: %w", err)
		}
		p.advisor = adv
		provider = adv
	}

	p.svc = service.NewStatementService(
		parser.NewExtractor(parser.DefaultConfig()),
		classifier,
		scoring.NewEngine(provider, 0, logger),
		nil,
		service.Config{},
		logger,
	)
	return p, nil
}

func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
