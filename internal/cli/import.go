package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"recruitflow/internal/candidates"
)

func newImportCommand(app *App) *cobra.Command {
	var (
		format   string
		provider string
	)

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Parse a candidate list and show which rows are valid",
		Long: `Parse a candidate list the way the interview-setup workflow imports it.

The format is taken from --format, or from the file extension (.csv, .jsonl,
anything else is pasted text). Use "-" to read from stdin. With --provider
the list is fetched from the ATS instead of a file.

Examples:
  recruitflow import candidates.csv
  pbpaste | recruitflow import - --format text
  recruitflow import --provider greenhouse`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}

			f, err := resolveFormat(format, path, provider)
			if err != nil {
				app.Printer.Error("%v", err)
				return exitWith(err)
			}

			var data string
			if f != candidates.FormatATS {
				raw, err := readInput(cmd.InOrStdin(), path)
				if err != nil {
					app.Printer.Error("%v", err)
					return exitWith(err)
				}
				data = string(raw)
			}

			list, err := app.Importer.Import(cmd.Context(), f, data, provider)
			if err != nil {
				app.Printer.Error("%v", err)
				return exitWith(err)
			}

			app.Printer.Candidates(list)
			if list.CountValid() == 0 {
				app.Printer.Warn("no valid candidates; interview setup would reject this list")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "input format: csv, text, jsonl or ats")
	cmd.Flags().StringVar(&provider, "provider", "", "ATS provider to fetch from (implies --format ats)")

	return cmd
}

func resolveFormat(flag, path, provider string) (candidates.Format, error) {
	if flag != "" {
		return candidates.ParseFormat(flag)
	}
	if provider != "" {
		return candidates.FormatATS, nil
	}
	if path == "" {
		return "", fmt.Errorf("nothing to import: pass a file or --provider")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return candidates.FormatCSV, nil
	case ".jsonl", ".ndjson":
		return candidates.FormatJSONL, nil
	}
	return candidates.FormatText, nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}
	return data, nil
}
