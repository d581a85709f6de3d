package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"recruitflow/internal/config"
	"recruitflow/internal/output"
)

// newTestApp builds an App whose printer writes uncolored output to the
// returned buffer.
func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Import.ATSDelay = 0
	cfg.Interview.DeclineURL = "https://jobs.example.com/declined"

	app, err := NewApp(cfg)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	app.Printer = output.NewPrinterWithWriter(buf)
	app.Printer.SetColor(false)
	return app, buf
}

// runCommand executes the root command with args and returns what cobra
// itself wrote. Printer output goes to the buffer from newTestApp.
func runCommand(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()

	rootCmd := NewRootCommand(app)
	cmdOut := &bytes.Buffer{}
	rootCmd.SetOut(cmdOut)
	rootCmd.SetErr(cmdOut)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return cmdOut.String(), err
}

// writeFile writes content to name inside dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
