package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newHistoryCommand(rt *runtime) *cobra.Command {
	var (
		owner  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show a respondent's score history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, stop, err := rt.start(ctx)
			if err != nil {
				return err
			}
			defer stop()

			view, err := svc.History(ctx, owner)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			renderHistory(cmd.OutOrStdout(), view)
			return nil
		},
	}
	cmd.Flags().StringVarP(&owner, "owner", "o", "", "Respondent id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the history view as JSON")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
