package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/openmood/emoscope/internal/httpserver"
	"github.com/openmood/emoscope/internal/service"
)

// App holds references to the service interfaces used by CLI commands.
type App struct {
	Sessions service.SessionService
	Results  service.ResultsService
	System   service.SystemService
	Server   *httpserver.Server
	Logger   *slog.Logger
}

// NewRootCmd creates the top-level "emoscope" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "emoscope",
		Short: "Emotion capture session server",
	}

	root.AddCommand(
		newServeCmd(app),
		newSessionCmd(app),
		newHealthCmd(app),
	)

	return root
}
