package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

type exportOptions struct {
	grep   string
	output string
}

func newExportCommand(global *globalOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write the classified transactions of a spreadsheet as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return err
			}

			p, err := global.newPipeline(cmd.Context(), global.logger(cmd.ErrOrStderr()), false)
			if err != nil {
				return err
			}
			defer p.Close()

			var w io.Writer = cmd.OutOrStdout()
			if opts.output != "" {
				f, err := os.Create(opts.output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", opts.output, err)
				}
				defer f.Close()
				w = f
			}

			n, err := p.svc.ExportCSV(cmd.Context(), filepath.Base(args[0]), data, opts.grep, w)
			if err != nil {
				return err
			}
			if opts.output != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d transactions to %s\n", n, opts.output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.grep, "grep", "g", "", "keep only descriptions that fuzzy-match this text")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to a file instead of stdout")

	return cmd
}
