package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSessionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and manage capture sessions",
	}

	cmd.AddCommand(
		newSessionListCmd(app),
		newSessionResultsCmd(app),
		newSessionEndCmd(app),
		newSessionPurgeCmd(app),
	)
	return cmd
}

func newSessionListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := app.Results.ListSessions(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SESSION\tSTATUS\tSTARTED\tENDED\tFRAMES")
			for _, s := range sessions {
				ended := "-"
				if s.EndTime != nil {
					ended = *s.EndTime
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
					s.SessionID, s.Status, s.StartTime, ended, s.TotalImages)
			}
			return w.Flush()
		},
	}
}

func newSessionResultsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "results <session-id>",
		Short: "Print a session's statistical results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := app.Results.GetSessionResults(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		},
	}
}

func newSessionEndCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "end <session-id>",
		Short: "Finalize an active session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := app.Sessions.EndSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s completed: %d frames across %d questions\n",
				results.SessionID, results.TotalFrames, results.TotalQuestions)
			return nil
		},
	}
}

func newSessionPurgeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "purge <session-id>",
		Short: "Delete a session and everything recorded under it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Sessions.PurgeSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s purged\n", args[0])
			return nil
		},
	}
}
