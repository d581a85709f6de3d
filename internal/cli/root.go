// Package cli implements the recruitflow command line.
//
// Commands share an [App] holding the configuration, the workflow registry,
// the candidate importer and the printer. Tests build an App with a
// buffer-backed printer and run [NewRootCommand] directly.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"recruitflow/internal/candidates"
	"recruitflow/internal/catalog"
	"recruitflow/internal/config"
	"recruitflow/internal/logging"
	"recruitflow/internal/output"
)

// App holds the dependencies shared by all commands.
type App struct {
	Config   *config.Config
	Registry *catalog.Registry
	Importer *candidates.Importer
	Printer  *output.Printer
	Logger   *slog.Logger
}

// NewApp wires an App from cfg. Manifests named in cfg are registered next
// to the built-in workflows.
func NewApp(cfg *config.Config) (*App, error) {
	registry := catalog.Default()
	registry.SetLogger(logging.WithModule("workflow"))
	if err := registry.RegisterManifests(cfg.Manifests); err != nil {
		return nil, err
	}

	printer := output.NewPrinter()
	printer.SetColor(cfg.Output.Color)
	printer.SetBarWidth(cfg.Output.BarWidth)

	return &App{
		Config:   cfg,
		Registry: registry,
		Importer: newImporter(cfg.Import),
		Printer:  printer,
		Logger:   logging.WithModule("cli"),
	}, nil
}

func newImporter(cfg config.ImportConfig) *candidates.Importer {
	if cfg.FeedDir != "" {
		return candidates.NewImporter(candidates.NewFeedSource(cfg.FeedDir))
	}
	return candidates.NewImporter(candidates.NewMockATS(cfg.ATSDelay))
}

// reconfigure swaps in cfg, keeping the printer's writer.
func (app *App) reconfigure(cfg *config.Config) error {
	rebuilt, err := NewApp(cfg)
	if err != nil {
		return err
	}
	printer := app.Printer
	*app = *rebuilt
	if printer != nil {
		printer.SetColor(cfg.Output.Color)
		printer.SetBarWidth(cfg.Output.BarWidth)
		app.Printer = printer
	}
	return nil
}

// NewRootCommand creates the root command with all subcommands attached.
func NewRootCommand(app *App) *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:   "recruitflow",
		Short: "Run and simulate recruiting workflows",
		Long: `recruitflow drives multi-step recruiting workflows: employer onboarding,
interview setup and the candidate interview.

It can list and describe the registered workflows, replay scripted sessions
against them, import candidate lists and serve the workflows over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				cfg, err := config.NewLoader().LoadFromFile(configPath)
				if err != nil {
					return err
				}
				if err := app.reconfigure(cfg); err != nil {
					return err
				}
			}

			level := app.Config.Log.Level
			if logLevel != "" {
				level = logLevel
			}
			logging.Setup(level)
			app.Logger = logging.WithModule("cli")
			app.Registry.SetLogger(logging.WithModule("workflow"))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newWorkflowsCommand(app),
		newDescribeCommand(app),
		newSimulateCommand(app),
		newImportCommand(app),
		newServeCommand(app),
	)

	return rootCmd
}

// ExecuteResult is the outcome of a command line run.
type ExecuteResult struct {
	ExitCode int
	Err      error
}

// RunWithConfig runs the command line in args against cfg. It never exits
// the process.
func RunWithConfig(args []string, cfg *config.Config) ExecuteResult {
	app, err := NewApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExecuteResult{ExitCode: 1, Err: err}
	}
	return run(app, args, os.Stderr)
}

func run(app *App, args []string, stderr io.Writer) ExecuteResult {
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		if code, ok := IsExitError(err); ok {
			return ExecuteResult{ExitCode: code, Err: err}
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExecuteResult{ExitCode: 1, Err: err}
	}
	return ExecuteResult{}
}

// Execute loads configuration, runs the command line from os.Args and exits
// with the resulting code.
func Execute() {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level)

	result := RunWithConfig(os.Args[1:], cfg)
	os.Exit(result.ExitCode)
}
