// Package workflow provides the sequential multi-step workflow controller used
// by every wizard in recruitflow.
//
// A workflow is described by a [Schema]: an ordered list of phases, each holding
// an ordered list of steps. Flat workflows are a schema with a single implicit
// phase, so one transition algorithm serves linear, nested and branching flows.
//
// Key types:
//   - [Step] - static step definition with an optional validity predicate
//   - [Schema] - immutable ordered tree of phases and steps
//   - [Position] - cursor into the schema, or the terminal [CompletePosition]
//   - [Controller] - state machine driving advance, retreat, skip, jump and branches
//   - [Summary] - renderable progress computed by [Project]
//
// The controller is synchronous and performs no I/O. Callers await their
// collaborators (ATS fetches, question generation) first, write the result into
// the document, and only then call [Controller.Advance].
package workflow

import (
	"fmt"

	"recruitflow/internal/document"
)

// Predicate reports whether a step is valid for the given document.
// Predicates must be pure; they are evaluated lazily at transition time.
type Predicate func(doc document.Document) bool

// Step is the static definition of one screen in a workflow.
type Step struct {
	// ID is unique within the step's phase.
	ID string

	// Label is the display name. The controller never interprets it.
	Label string

	// Valid gates Advance. A nil predicate is always valid.
	Valid Predicate
}

// IsValid evaluates the step's predicate against doc.
func (s Step) IsValid(doc document.Document) bool {
	if s.Valid == nil {
		return true
	}
	return s.Valid(doc)
}

// Phase is a named group of one or more ordered steps.
type Phase struct {
	ID   string
	Name string

	// Skippable allows SkipPhase to bypass validation for this phase.
	Skippable bool

	Steps []Step
}

// Schema is the immutable ordered tree of phases and steps of one workflow.
//
// Create schemas with [NewSchema] or [NewFlatSchema]; both validate the
// structure so every position the controller builds resolves to a step.
type Schema struct {
	name     string
	sections []string
	phases   []Phase
}

// NewSchema creates a nested schema.
//
// sections lists the document sections the workflow reads and writes; the
// controller checks the document against it. Returns [ErrInvalidSchema] when
// there are no phases, a phase has no steps, or an id is empty or duplicated
// within its containing list.
func NewSchema(name string, sections []string, phases ...Phase) (*Schema, error) {
	if len(phases) == 0 {
		return nil, fmt.Errorf("%w: %s has no phases", ErrInvalidSchema, name)
	}

	phaseIDs := make(map[string]bool, len(phases))
	copied := make([]Phase, len(phases))
	for i, p := range phases {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: phase %d has no id", ErrInvalidSchema, i)
		}
		if phaseIDs[p.ID] {
			return nil, fmt.Errorf("%w: duplicate phase id %q", ErrInvalidSchema, p.ID)
		}
		phaseIDs[p.ID] = true

		if len(p.Steps) == 0 {
			return nil, fmt.Errorf("%w: phase %q has no steps", ErrInvalidSchema, p.ID)
		}

		stepIDs := make(map[string]bool, len(p.Steps))
		for j, s := range p.Steps {
			if s.ID == "" {
				return nil, fmt.Errorf("%w: phase %q step %d has no id", ErrInvalidSchema, p.ID, j)
			}
			if stepIDs[s.ID] {
				return nil, fmt.Errorf("%w: duplicate step id %q in phase %q", ErrInvalidSchema, s.ID, p.ID)
			}
			stepIDs[s.ID] = true
		}

		if p.Name == "" {
			p.Name = p.ID
		}
		p.Steps = append([]Step(nil), p.Steps...)
		copied[i] = p
	}

	return &Schema{
		name:     name,
		sections: append([]string(nil), sections...),
		phases:   copied,
	}, nil
}

// NewFlatSchema creates a linear schema. The steps are placed in a single
// implicit, non-skippable phase whose id and name are the schema name.
func NewFlatSchema(name string, sections []string, steps ...Step) (*Schema, error) {
	return NewSchema(name, sections, Phase{ID: name, Name: name, Steps: steps})
}

// Name returns the schema name.
func (s *Schema) Name() string {
	return s.name
}

// Sections returns the declared document section names.
func (s *Schema) Sections() []string {
	return append([]string(nil), s.sections...)
}

// PhaseCount returns the number of phases.
func (s *Schema) PhaseCount() int {
	return len(s.phases)
}

// Phase returns a copy of the phase at index i.
func (s *Schema) Phase(i int) Phase {
	p := s.phases[i]
	p.Steps = append([]Step(nil), p.Steps...)
	return p
}

// Phases returns copies of all phases in order.
func (s *Schema) Phases() []Phase {
	out := make([]Phase, len(s.phases))
	for i := range s.phases {
		out[i] = s.Phase(i)
	}
	return out
}

// StepCount returns the number of steps in phase i.
func (s *Schema) StepCount(phase int) int {
	return len(s.phases[phase].Steps)
}

// TotalSteps returns the number of steps across all phases.
func (s *Schema) TotalSteps() int {
	total := 0
	for _, p := range s.phases {
		total += len(p.Steps)
	}
	return total
}

// Contains reports whether pos resolves to a step in the schema.
// The terminal position is not contained.
func (s *Schema) Contains(pos Position) bool {
	if pos.Complete {
		return false
	}
	if pos.Phase < 0 || pos.Phase >= len(s.phases) {
		return false
	}
	return pos.Step >= 0 && pos.Step < len(s.phases[pos.Phase].Steps)
}

// StepAt returns the step at pos, or false if pos is terminal or out of range.
func (s *Schema) StepAt(pos Position) (Step, bool) {
	if !s.Contains(pos) {
		return Step{}, false
	}
	return s.phases[pos.Phase].Steps[pos.Step], true
}

// Locate returns the position of stepID within phaseID.
func (s *Schema) Locate(phaseID, stepID string) (Position, bool) {
	for i, p := range s.phases {
		if p.ID != phaseID {
			continue
		}
		for j, step := range p.Steps {
			if step.ID == stepID {
				return Position{Phase: i, Step: j}, true
			}
		}
		return Position{}, false
	}
	return Position{}, false
}
