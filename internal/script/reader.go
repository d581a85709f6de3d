// Package script reads replay scripts and writes replay transcripts.
//
// A script is a YAML file naming a workflow and the user actions to replay
// against it:
//
//	workflow: interview-setup
//	actions:
//	  - op: advance
//	    expect_reject: true
//	  - op: import
//	    format: text
//	    data: |
//	      ada@example.com
//	  - op: advance
//
// Scripts drive the simulate command; see [lifecycle.Executor] for the action
// semantics.
package script

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"recruitflow/internal/lifecycle"
)

// DefaultScriptPath is the script file used when no path is given.
const DefaultScriptPath = "script.yaml"

// PathEnv overrides every other script path source.
const PathEnv = "RECRUITFLOW_SCRIPT_PATH"

// ResolvePath picks the script file location.
//
// Resolution order:
//  1. RECRUITFLOW_SCRIPT_PATH environment variable (used as-is if set)
//  2. Explicit scriptPath parameter (if non-empty)
//  3. ./script.yaml
func ResolvePath(scriptPath string) string {
	if envPath := os.Getenv(PathEnv); envPath != "" {
		return envPath
	}
	if scriptPath != "" {
		return scriptPath
	}
	return DefaultScriptPath
}

// Script is a parsed replay script.
type Script struct {
	// Workflow is the catalog name of the workflow to replay.
	Workflow string `yaml:"workflow"`

	// Description is free text shown by the simulate command.
	Description string `yaml:"description,omitempty"`

	// Actions are replayed in order.
	Actions []lifecycle.Action `yaml:"actions"`
}

// Reader reads scripts from YAML files.
//
// Use [NewReader] to create one; the path is resolved with [ResolvePath].
type Reader struct {
	scriptPath string
}

// NewReader creates a [Reader] for scriptPath. Pass an empty string for the
// default location.
func NewReader(scriptPath string) *Reader {
	return &Reader{scriptPath: ResolvePath(scriptPath)}
}

// Path returns the resolved script path.
func (r *Reader) Path() string {
	return r.scriptPath
}

// Read reads and parses the script file.
//
// Returns an error if the file cannot be read or parsed, names no workflow,
// or has no actions.
func (r *Reader) Read() (*Script, error) {
	data, err := os.ReadFile(r.scriptPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	return Parse(data)
}

// Parse parses script YAML.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}

	if s.Workflow == "" {
		return nil, fmt.Errorf("script has no workflow")
	}
	if len(s.Actions) == 0 {
		return nil, fmt.Errorf("script has no actions")
	}

	return &s, nil
}
