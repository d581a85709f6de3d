package cli

import (
	"github.com/spf13/cobra"
)

func newWorkflowsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "workflows",
		Short: "List registered workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Printer.Workflows(app.Registry.Definitions())
			return nil
		},
	}
}

func newDescribeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <workflow>",
		Short: "Show a workflow's phases and steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := app.Registry.Get(args[0])
			if err != nil {
				app.Printer.Error("%v", err)
				return exitWith(err)
			}
			app.Printer.Describe(def)
			return nil
		},
	}
}
