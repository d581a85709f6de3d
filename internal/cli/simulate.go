package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"recruitflow/internal/catalog"
	"recruitflow/internal/lifecycle"
	"recruitflow/internal/script"
	"recruitflow/internal/workflow"
)

func newSimulateCommand(app *App) *cobra.Command {
	var (
		scriptPath     string
		transcriptPath string
		assumeYes      bool
		showDocument   bool
	)

	cmd := &cobra.Command{
		Use:   "simulate [workflow]",
		Short: "Replay a scripted session against a workflow",
		Long: `Replay the user actions in a YAML script against a workflow and print
the progress after each action.

The script names its workflow; when a workflow argument is given it must
match. The run stops at the first action that fails.

Example:
  recruitflow simulate interview-setup --script setup.yaml --transcript out/run.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := script.NewReader(scriptPath)
			s, err := reader.Read()
			if err != nil {
				app.Printer.Error("%v", err)
				return exitWith(err)
			}
			if len(args) == 1 && args[0] != s.Workflow {
				err := fmt.Errorf("script %s is for workflow %s, not %s", reader.Path(), s.Workflow, args[0])
				app.Printer.Error("%v", err)
				return exitWith(err)
			}

			def, err := app.Registry.Get(s.Workflow)
			if err != nil {
				app.Printer.Error("%v", err)
				return exitWith(err)
			}
			if err := lifecycle.Check(def.Schema, s.Actions); err != nil {
				app.Printer.Error("invalid script %s: %v", reader.Path(), err)
				return exitWith(err)
			}

			hooks := catalog.Hooks{
				DeclineURL: app.Config.Interview.DeclineURL,
				Redirect: func(url string) error {
					app.Printer.Info("redirect to %s", url)
					return nil
				},
				Confirm: func(prompt string) bool {
					answer := "no"
					if assumeYes {
						answer = "yes"
					}
					app.Printer.Warn("%s %s", prompt, answer)
					return assumeYes
				},
			}
			ctrl, err := app.Registry.NewController(s.Workflow, hooks)
			if err != nil {
				app.Printer.Error("%v", err)
				return exitWith(err)
			}

			app.Printer.Info("simulating %s from %s (%d actions)", def.Title, reader.Path(), len(s.Actions))
			if s.Description != "" {
				app.Printer.Info("%s", s.Description)
			}

			executor := lifecycle.NewExecutor()
			executor.SetImporter(app.Importer)
			executor.SetProgressCallback(func(index, total int, action lifecycle.Action, summary workflow.Summary) {
				app.Printer.Progress(summary)
				app.Printer.ActionHeader(index, total, action)
			})

			transcript, runErr := executor.Execute(cmd.Context(), ctrl, s.Actions)
			app.Printer.Progress(ctrl.Summary())
			app.Printer.Transcript(transcript)
			if showDocument {
				app.Printer.Document(transcript.Document)
			}

			if transcriptPath != "" {
				if err := script.NewWriter().WriteTranscript(transcriptPath, transcript); err != nil {
					app.Printer.Error("%v", err)
					return exitWith(err)
				}
				app.Printer.Success("transcript written to %s", transcriptPath)
			}

			if runErr != nil {
				app.Logger.Debug("simulation stopped", "workflow", s.Workflow, "error", runErr)
				app.Printer.Error("%v", runErr)
				return exitWith(runErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scriptPath, "script", "", "script file (default ./script.yaml or $RECRUITFLOW_SCRIPT_PATH)")
	cmd.Flags().StringVar(&transcriptPath, "transcript", "", "write the run transcript to this YAML file")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "answer yes to confirmation prompts")
	cmd.Flags().BoolVar(&showDocument, "document", false, "print the final document sections")

	return cmd
}
