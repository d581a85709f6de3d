package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"recruitflow/internal/document"
	"recruitflow/internal/logging"
	"recruitflow/internal/session"
	"recruitflow/internal/web"
)

func newServeCommand(app *App) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workflows over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := app.Config.Server
			if cmd.Flags().Changed("port") {
				server.Port = port
			}

			store := session.NewStore(app.Registry,
				session.WithDeclineURL(app.Config.Interview.DeclineURL),
				session.WithLogger(logging.WithModule("session")),
				session.WithSubmitter(logSubmitter(app)),
			)
			api := web.NewAPI(logging.WithModule("api"), store, app.Registry, app.Importer)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app.Printer.Info("serving %d workflows on http://%s", len(app.Registry.Names()), server.Addr())
			if err := api.Serve(ctx, server.Addr()); err != nil {
				app.Printer.Error("%v", err)
				return exitWith(err)
			}
			app.Printer.Success("server stopped")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")

	return cmd
}

// logSubmitter records completed workflows in the log.
func logSubmitter(app *App) session.Submitter {
	return session.SubmitterFunc(func(_ context.Context, workflowName string, doc document.Document) error {
		app.Logger.Info("workflow submitted", "workflow", workflowName, "sections", doc.Names(), "version", doc.Version())
		return nil
	})
}
