// Package lifecycle replays scripted user actions against a workflow
// controller.
//
// The lifecycle package provides [Executor], which drives a
// [workflow.Controller] through a list of [Action] values the way a user would
// click through a wizard: filling in sections, advancing, retreating, skipping
// optional phases and raising branch events. It records a [Transcript] of the
// resulting positions.
//
// Key concepts:
//   - Actions are applied in order and execution stops at the first failure
//   - A rejected advance is a failure unless the action expects it
//   - Progress can be tracked via [ProgressCallback]
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"recruitflow/internal/candidates"
	"recruitflow/internal/workflow"
)

// Op names a scripted user action.
type Op string

const (
	OpUpdate  Op = "update"
	OpImport  Op = "import"
	OpAdvance Op = "advance"
	OpRetreat Op = "retreat"
	OpSkip    Op = "skip"
	OpJump    Op = "jump"
	OpBranch  Op = "branch"
)

// Sentinel errors for action replay.
var (
	// ErrUnknownOp is returned for an action whose Op is not recognized.
	ErrUnknownOp = errors.New("unknown action")

	// ErrMissingRejection is returned when an action marked ExpectReject
	// succeeds.
	ErrMissingRejection = errors.New("expected step to be rejected")

	// ErrInvalidAction is returned when an action lacks a field its Op needs.
	ErrInvalidAction = errors.New("invalid action")
)

// Action is one scripted user interaction.
type Action struct {
	Op Op `yaml:"op" json:"op"`

	// Section is the document section for update and import.
	Section string `yaml:"section,omitempty" json:"section,omitempty"`

	// Fields are shallow-merged into an object section by update.
	Fields map[string]any `yaml:"fields,omitempty" json:"fields,omitempty"`

	// Value replaces a non-object section by update when Fields is empty.
	Value any `yaml:"value,omitempty" json:"value,omitempty"`

	// Format, Data and Provider describe an import; see [candidates.Importer].
	Format   string `yaml:"format,omitempty" json:"format,omitempty"`
	Data     string `yaml:"data,omitempty" json:"data,omitempty"`
	Provider string `yaml:"provider,omitempty" json:"provider,omitempty"`

	// Phase and Step name the jump target by id.
	Phase string `yaml:"phase,omitempty" json:"phase,omitempty"`
	Step  string `yaml:"step,omitempty" json:"step,omitempty"`

	// Event is the branch event raised by branch.
	Event string `yaml:"event,omitempty" json:"event,omitempty"`

	// ExpectReject marks an advance the current step is expected to refuse.
	ExpectReject bool `yaml:"expect_reject,omitempty" json:"expect_reject,omitempty"`
}

// ActionError reports which action failed.
type ActionError struct {
	Index int
	Op    Op
	Err   error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action %d (%s): %v", e.Index, e.Op, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Entry records the state after one action.
type Entry struct {
	Index     int               `yaml:"index" json:"index"`
	Op        Op                `yaml:"op" json:"op"`
	Position  workflow.Position `yaml:"position" json:"position"`
	Rejected  bool              `yaml:"rejected,omitempty" json:"rejected,omitempty"`
	Completed []string          `yaml:"completed" json:"completed"`
}

// Transcript is the outcome of a replay.
type Transcript struct {
	Workflow string            `yaml:"workflow" json:"workflow"`
	Entries  []Entry           `yaml:"entries" json:"entries"`
	Progress workflow.Progress `yaml:"progress" json:"progress"`
	Document map[string]any    `yaml:"document" json:"document"`
}

// ProgressCallback is invoked before each action is applied.
//
// The callback receives index (1-based), the total action count, the action
// and the progress summary before the action runs.
type ProgressCallback func(index, total int, action Action, summary workflow.Summary)

// Executor applies scripted actions to a controller.
//
// Use [NewExecutor] to create an instance and [Executor.Execute] to run a
// script. Import actions need an importer; see [Executor.SetImporter].
type Executor struct {
	importer         *candidates.Importer
	progressCallback ProgressCallback
}

// NewExecutor creates an Executor without an importer or progress callback.
func NewExecutor() *Executor {
	return &Executor{}
}

// SetImporter configures the importer used by import actions.
func (e *Executor) SetImporter(imp *candidates.Importer) {
	e.importer = imp
}

// SetProgressCallback configures an optional progress callback.
func (e *Executor) SetProgressCallback(cb ProgressCallback) {
	e.progressCallback = cb
}

// Execute applies actions to ctrl in order.
//
// Execute uses fail-fast behavior: it stops at the first contract violation,
// unexpected rejection, expected rejection that did not happen, or context
// cancellation. The transcript of the actions applied so far is returned
// together with the error.
func (e *Executor) Execute(ctx context.Context, ctrl *workflow.Controller, actions []Action) (*Transcript, error) {
	t := &Transcript{Workflow: ctrl.Schema().Name()}
	defer func() {
		t.Progress = ctrl.Progress()
		t.Document = ctrl.Document().Snapshot()
	}()

	total := len(actions)
	for i, action := range actions {
		if err := ctx.Err(); err != nil {
			return t, err
		}

		if e.progressCallback != nil {
			e.progressCallback(i+1, total, action, ctrl.Summary())
		}

		rejected, err := e.apply(ctx, ctrl, action)
		if err != nil {
			return t, &ActionError{Index: i + 1, Op: action.Op, Err: err}
		}

		t.Entries = append(t.Entries, Entry{
			Index:     i + 1,
			Op:        action.Op,
			Position:  ctrl.Position(),
			Rejected:  rejected,
			Completed: ctrl.CompletedPhaseIDs(),
		})
	}

	return t, nil
}

// apply runs one action and reports whether it was an expected rejection.
func (e *Executor) apply(ctx context.Context, ctrl *workflow.Controller, a Action) (bool, error) {
	switch a.Op {
	case OpUpdate:
		if a.Section == "" {
			return false, fmt.Errorf("%w: update needs a section", ErrInvalidAction)
		}
		if a.Fields != nil {
			return false, ctrl.UpdateSection(a.Section, a.Fields)
		}
		if a.Value == nil {
			return false, fmt.Errorf("%w: update needs fields or a value", ErrInvalidAction)
		}
		return false, ctrl.UpdateSection(a.Section, a.Value)

	case OpImport:
		return false, e.importCandidates(ctx, ctrl, a)

	case OpAdvance:
		err := ctrl.Advance()
		switch {
		case err == nil && a.ExpectReject:
			return false, ErrMissingRejection
		case workflow.IsRejected(err) && a.ExpectReject:
			return true, nil
		}
		return false, err

	case OpRetreat:
		return false, ctrl.Retreat()

	case OpSkip:
		return false, ctrl.SkipPhase()

	case OpJump:
		pos, ok := ctrl.Schema().Locate(a.Phase, a.Step)
		if !ok {
			return false, fmt.Errorf("%w: %s/%s", workflow.ErrPositionOutOfRange, a.Phase, a.Step)
		}
		return false, ctrl.JumpTo(pos)

	case OpBranch:
		if a.Event == "" {
			return false, fmt.Errorf("%w: branch needs an event", ErrInvalidAction)
		}
		return false, ctrl.RaiseBranch(workflow.BranchEvent(a.Event))
	}

	return false, fmt.Errorf("%w: %q", ErrUnknownOp, a.Op)
}

func (e *Executor) importCandidates(ctx context.Context, ctrl *workflow.Controller, a Action) error {
	if e.importer == nil {
		return fmt.Errorf("%w: no importer configured", ErrInvalidAction)
	}
	format, err := candidates.ParseFormat(a.Format)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}

	list, err := e.importer.Import(ctx, format, a.Data, a.Provider)
	if err != nil {
		return err
	}

	section := a.Section
	if section == "" {
		section = "candidates"
	}
	return ctrl.UpdateSection(section, list)
}

// Check verifies that every action is well-formed for schema without running
// anything: ops are known, jump targets exist and required fields are set.
func Check(schema *workflow.Schema, actions []Action) error {
	for i, a := range actions {
		var err error
		switch a.Op {
		case OpUpdate:
			if a.Section == "" {
				err = fmt.Errorf("%w: update needs a section", ErrInvalidAction)
			}
		case OpImport:
			_, err = candidates.ParseFormat(a.Format)
		case OpAdvance, OpRetreat, OpSkip:
		case OpJump:
			if _, ok := schema.Locate(a.Phase, a.Step); !ok {
				err = fmt.Errorf("%w: %s/%s", workflow.ErrPositionOutOfRange, a.Phase, a.Step)
			}
		case OpBranch:
			if a.Event == "" {
				err = fmt.Errorf("%w: branch needs an event", ErrInvalidAction)
			}
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownOp, a.Op)
		}
		if err != nil {
			return &ActionError{Index: i + 1, Op: a.Op, Err: err}
		}
	}
	return nil
}
