// Package manifest reads workflow definitions from manifest files.
//
// A manifest lists the steps of one workflow in order, grouped into phases.
// It lets operators add or reshape workflows without a rebuild: the catalog
// registers every manifest named in the configuration.
//
// CSV format:
//
//	phase,phase_name,skippable,step,label,rule
//	org,Organization,false,details,Company details,required:organization.name
//	org,Organization,false,size,Company size,required:organization.size
//	brand,Brand,true,logo,Logo,
//	review,Review,false,summary,Summary,always
//
// Consecutive rows with the same phase id form one phase; phase_name and
// skippable are taken from the first row of each phase. The rule column uses
// the vocabulary of [workflow.ParseRule]. Document sections are derived from
// the sections the rules reference.
//
// Manifests may also be written in YAML; see [ParseYAML].
package manifest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"recruitflow/internal/workflow"
)

// Row is a single step entry of a manifest.
type Row struct {
	// Phase is the phase id the step belongs to.
	Phase string

	// PhaseName is the display name of the phase. Defaults to the id.
	PhaseName string

	// Skippable marks the phase as optional.
	Skippable bool

	// Step is the step id, unique within its phase.
	Step string

	// Label is the display label of the step.
	Label string

	// Rule is the textual validity rule. Empty means always valid.
	Rule string

	// Line is the source line, for error messages.
	Line int

	valid    workflow.Predicate
	sections []string
}

// Manifest holds the rows of one workflow manifest in order.
type Manifest struct {
	Rows []Row
}

// Load reads a manifest file. Files ending in .yaml or .yml are parsed as
// YAML, everything else as CSV.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(f)
	}
	return Parse(f)
}

// ParseString parses a CSV manifest held in a string.
func ParseString(data string) (*Manifest, error) {
	return Parse(strings.NewReader(data))
}

// Parse reads a CSV manifest.
func Parse(r io.Reader) (*Manifest, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest header: %w", err)
	}

	colIndex := buildColumnIndex(header)
	if err := validateColumns(colIndex); err != nil {
		return nil, err
	}

	var rows []Row
	lineNum := 1
	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest line %d: %w", lineNum, err)
		}

		row := Row{
			Phase:     getField(record, colIndex, "phase"),
			PhaseName: getField(record, colIndex, "phase_name"),
			Step:      getField(record, colIndex, "step"),
			Label:     getField(record, colIndex, "label"),
			Rule:      getField(record, colIndex, "rule"),
			Line:      lineNum,
		}
		if s := getField(record, colIndex, "skippable"); s != "" {
			row.Skippable, err = strconv.ParseBool(s)
			if err != nil {
				return nil, fmt.Errorf("manifest line %d: invalid skippable value %q", lineNum, s)
			}
		}

		if err := row.compile(); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("manifest contains no steps")
	}

	return &Manifest{Rows: rows}, nil
}

// compile checks the required fields and parses the rule.
func (r *Row) compile() error {
	if r.Phase == "" {
		return fmt.Errorf("manifest line %d: phase is required", r.Line)
	}
	if r.Step == "" {
		return fmt.Errorf("manifest line %d: step is required", r.Line)
	}

	pred, sections, err := workflow.ParseRule(r.Rule)
	if err != nil {
		return fmt.Errorf("manifest line %d: %w", r.Line, err)
	}
	r.valid = pred
	r.sections = sections
	return nil
}

// requiredColumns are the columns that must be present in the manifest CSV.
var requiredColumns = []string{"phase", "step"}

func buildColumnIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(strings.ToLower(col))] = i
	}
	return index
}

func validateColumns(colIndex map[string]int) error {
	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			return fmt.Errorf("manifest missing required column: %s", col)
		}
	}
	return nil
}

func getField(record []string, colIndex map[string]int, column string) string {
	idx, ok := colIndex[column]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// Sections returns the document sections referenced by the manifest's rules,
// in order of first reference.
func (m *Manifest) Sections() []string {
	seen := make(map[string]bool)
	var sections []string
	for _, r := range m.Rows {
		for _, s := range r.sections {
			if !seen[s] {
				seen[s] = true
				sections = append(sections, s)
			}
		}
	}
	return sections
}

// Defaults returns an empty object for every referenced section.
func (m *Manifest) Defaults() map[string]any {
	defaults := make(map[string]any)
	for _, s := range m.Sections() {
		defaults[s] = map[string]any{}
	}
	return defaults
}

// Phases groups consecutive rows into phases.
func (m *Manifest) Phases() []workflow.Phase {
	var phases []workflow.Phase
	for _, r := range m.Rows {
		step := workflow.Step{ID: r.Step, Label: r.Label, Valid: r.valid}
		if step.Label == "" {
			step.Label = r.Step
		}

		if n := len(phases); n > 0 && phases[n-1].ID == r.Phase {
			phases[n-1].Steps = append(phases[n-1].Steps, step)
			continue
		}
		phases = append(phases, workflow.Phase{
			ID:        r.Phase,
			Name:      r.PhaseName,
			Skippable: r.Skippable,
			Steps:     []workflow.Step{step},
		})
	}
	return phases
}

// Schema builds the workflow schema described by the manifest.
//
// A phase id that reappears after a different phase is rejected by
// [workflow.NewSchema] as a duplicate.
func (m *Manifest) Schema(name string) (*workflow.Schema, error) {
	schema, err := workflow.NewSchema(name, m.Sections(), m.Phases()...)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", name, err)
	}
	return schema, nil
}
