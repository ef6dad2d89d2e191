package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/categorization"
)

func newCatalogCommand(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the provider catalog",
	}
	cmd.AddCommand(newCatalogSearchCommand(global))
	cmd.AddCommand(newCatalogValidateCommand(global))
	cmd.AddCommand(newCatalogClassifyCommand(global))
	return cmd
}

func newCatalogSearchCommand(global *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Find catalog entries matching a description, with typo tolerance",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := global.catalog()
			if err != nil {
				return err
			}
			index, err := categorization.NewSearchIndex(catalog)
			if err != nil {
				return err
			}
			defer index.Close()

			results, err := index.Search(strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no matches")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ALIAS\tPROVIDER\tKIND\tCATEGORY\tSCORE")
			for _, r := range results {
				provider := r.Provider
				if provider == "" {
					provider = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.3f\n", r.Alias, provider, r.Kind, r.Category, r.Score)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of results")
	return cmd
}

func newCatalogValidateCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that the catalog loads and compiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := global.catalog()
			if err != nil {
				return err
			}
			rules, err := categorization.Compile(catalog)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "catalog ok: %d providers, %d rules\n", len(catalog.Providers), len(rules.Rules()))
			return nil
		},
	}
}

func newCatalogClassifyCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "classify DESCRIPTION",
		Short: "Show the category and BNPL provider the catalog assigns to a description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := global.catalog()
			if err != nil {
				return err
			}
			classifier, err := categorization.NewClassifier(catalog, global.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			label := classifier.ClassifyDescription(strings.Join(args, " "))
			provider := string(label.Provider)
			if provider == "" {
				provider = "-"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "category: %s\nbnpl: %t\nprovider: %s\n", label.Category, label.IsBNPL, provider)
			return nil
		},
	}
}
