package script

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"recruitflow/internal/lifecycle"
)

// Writer writes replay transcripts to YAML files.
type Writer struct{}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteTranscript writes t to path, creating parent directories as needed.
func (w *Writer) WriteTranscript(path string, t *lifecycle.Transcript) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to write transcript: %w", err)
		}
	}

	// Write atomically (write to temp, then rename)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write transcript: %w", err)
	}

	return nil
}

// ReadTranscript reads a transcript written by [Writer.WriteTranscript].
func ReadTranscript(path string) (*lifecycle.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	var t lifecycle.Transcript
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}
	return &t, nil
}
