package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newHealthCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Report store and classifier health",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(app.System.Health(cmd.Context()))
		},
	}
}
