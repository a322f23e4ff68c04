package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/balance/internal/batch"
)

func newBatchCommand(rt *runtime) *cobra.Command {
	var (
		input string
		out   string
		drop  []string
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Score every row of a CSV file",
		Long: `batch reads a CSV file whose header names catalog questions, scores each
row and writes the rows back with score, label, category and error columns.
Columns that are not questions are passed through; the target column is removed.`,
		Example: `  survey batch --input answers.csv --out scored.csv
  survey batch --input - --drop-target WORK_LIFE_BALANCE_SCORE --drop-target Timestamp < answers.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var in io.Reader = cmd.InOrStdin()
			if input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			svc, stop, err := rt.start(ctx)
			if err != nil {
				return err
			}
			defer stop()

			sum, err := svc.Batch(ctx, in, w, drop...)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%d rows: %d scored, %d failed in %s\n",
				sum.Rows, sum.Scored, sum.Failed, sum.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "CSV file to score, - for stdin")
	cmd.Flags().StringVarP(&out, "out", "O", "", "Output CSV file; stdout when empty")
	cmd.Flags().StringArrayVar(&drop, "drop-target", nil,
		fmt.Sprintf("Column to remove before scoring (repeatable, default %s)", batch.DefaultTarget))
	return cmd
}
