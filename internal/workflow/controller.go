package workflow

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"recruitflow/internal/document"
)

// Controller is the sole authority for where the user is in a workflow and
// whether they may move.
//
// It owns the schema, the current [Position], the set of completed phases and
// the accumulated document. Every transition is a synchronous, total function
// of that state and the requested operation. A Controller is not safe for
// concurrent use; one instance serves one active session.
type Controller struct {
	schema    *Schema
	pos       Position
	completed map[string]bool
	doc       document.Document
	branches  map[BranchEvent]BranchHandler
	logger    *slog.Logger
}

// Option configures a [Controller].
type Option func(*Controller)

// WithBranch registers handler for event.
func WithBranch(event BranchEvent, handler BranchHandler) Option {
	return func(c *Controller) {
		c.branches[event] = handler
	}
}

// WithBranches registers every handler in handlers.
func WithBranches(handlers map[BranchEvent]BranchHandler) Option {
	return func(c *Controller) {
		for event, h := range handlers {
			c.branches[event] = h
		}
	}
}

// WithLogger sets the logger transitions are reported to at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController creates a controller at the initial position (0, 0).
//
// When the schema declares sections, the document must have exactly those
// sections; otherwise [ErrSectionMismatch] is returned.
func NewController(schema *Schema, doc document.Document, opts ...Option) (*Controller, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrInvalidSchema)
	}

	if declared := schema.Sections(); len(declared) > 0 {
		slices.Sort(declared)
		if !slices.Equal(declared, doc.Names()) {
			return nil, fmt.Errorf("%w: schema %s declares %v, document has %v",
				ErrSectionMismatch, schema.Name(), declared, doc.Names())
		}
	}

	c := &Controller{
		schema:    schema,
		completed: make(map[string]bool),
		doc:       doc,
		branches:  make(map[BranchEvent]BranchHandler),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Schema returns the controller's schema.
func (c *Controller) Schema() *Schema {
	return c.schema
}

// Position returns the current position.
func (c *Controller) Position() Position {
	return c.pos
}

// IsComplete reports whether the terminal position has been reached.
func (c *Controller) IsComplete() bool {
	return c.pos.Complete
}

// Current returns the step at the current position. It returns false once
// the workflow is complete.
func (c *Controller) Current() (Step, bool) {
	return c.schema.StepAt(c.pos)
}

// CurrentPhase returns the phase at the current position. It returns false
// once the workflow is complete.
func (c *Controller) CurrentPhase() (Phase, bool) {
	if c.pos.Complete {
		return Phase{}, false
	}
	return c.schema.Phase(c.pos.Phase), true
}

// Document returns the current accumulated document.
func (c *Controller) Document() document.Document {
	return c.doc
}

// Completed reports whether phaseID is in the completed set.
func (c *Controller) Completed(phaseID string) bool {
	return c.completed[phaseID]
}

// CompletedPhaseIDs returns the completed phase ids in schema order.
func (c *Controller) CompletedPhaseIDs() []string {
	ids := make([]string, 0, len(c.completed))
	for _, p := range c.schema.phases {
		if c.completed[p.ID] {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// CanSkip reports whether SkipPhase is legal at the current position, i.e.
// whether a skip control should be shown.
func (c *Controller) CanSkip() bool {
	if c.pos.Complete {
		return false
	}
	return c.schema.phases[c.pos.Phase].Skippable
}

// UpdateSection merges partial into a document section. See
// [document.Document.UpdateSection] for the merge rules.
func (c *Controller) UpdateSection(name string, partial any) error {
	if c.pos.Complete {
		return ErrWorkflowComplete
	}

	doc, err := c.doc.UpdateSection(name, partial)
	if err != nil {
		return err
	}
	c.doc = doc
	return nil
}

// Advance moves forward one step if the current step is valid.
//
// An invalid step yields a [*RejectedError] and leaves the position unchanged.
// Leaving the last step of a phase adds the phase to the completed set; leaving
// the last step of the last phase moves to [CompletePosition].
func (c *Controller) Advance() error {
	if c.pos.Complete {
		return ErrWorkflowComplete
	}

	phase := c.schema.phases[c.pos.Phase]
	step := phase.Steps[c.pos.Step]
	if !step.IsValid(c.doc) {
		c.logger.Debug("advance rejected", "workflow", c.schema.name, "phase", phase.ID, "step", step.ID)
		return &RejectedError{PhaseID: phase.ID, StepID: step.ID, Label: step.Label}
	}

	from := c.pos
	if c.pos.Step < len(phase.Steps)-1 {
		c.pos.Step++
	} else {
		c.exitPhase()
	}

	c.logger.Debug("advance", "workflow", c.schema.name, "from", from.String(), "to", c.pos.String())
	return nil
}

// Retreat moves back one step. It never validates and never removes phases
// from the completed set. At (0, 0) it is a no-op.
func (c *Controller) Retreat() error {
	if c.pos.Complete {
		return ErrWorkflowComplete
	}

	from := c.pos
	switch {
	case c.pos.Step > 0:
		c.pos.Step--
	case c.pos.Phase > 0:
		c.pos.Phase--
		c.pos.Step = len(c.schema.phases[c.pos.Phase].Steps) - 1
	default:
		return nil
	}

	c.logger.Debug("retreat", "workflow", c.schema.name, "from", from.String(), "to", c.pos.String())
	return nil
}

// SkipPhase leaves the current phase without validation, marking it
// completed. It returns [ErrPhaseNotSkippable] unless the phase is skippable.
func (c *Controller) SkipPhase() error {
	if c.pos.Complete {
		return ErrWorkflowComplete
	}

	phase := c.schema.phases[c.pos.Phase]
	if !phase.Skippable {
		return fmt.Errorf("%w: %s", ErrPhaseNotSkippable, phase.ID)
	}

	from := c.pos
	c.exitPhase()

	c.logger.Debug("skip phase", "workflow", c.schema.name, "phase", phase.ID, "from", from.String(), "to", c.pos.String())
	return nil
}

// JumpTo moves directly to pos without validation and without changing the
// completed set. pos must resolve to a step; the terminal position is only
// reachable through Advance or SkipPhase.
func (c *Controller) JumpTo(pos Position) error {
	if c.pos.Complete {
		return ErrWorkflowComplete
	}
	if !c.schema.Contains(pos) {
		return fmt.Errorf("%w: %s", ErrPositionOutOfRange, pos)
	}

	from := c.pos
	c.pos = pos

	c.logger.Debug("jump", "workflow", c.schema.name, "from", from.String(), "to", c.pos.String())
	return nil
}

// RaiseBranch invokes the handler registered for event exactly once. The
// controller does not move; the handler decides what happens next.
func (c *Controller) RaiseBranch(event BranchEvent) error {
	if c.pos.Complete {
		return ErrWorkflowComplete
	}

	handler, ok := c.branches[event]
	if !ok || handler == nil {
		return fmt.Errorf("%w: %s", ErrUnknownBranch, event)
	}

	c.logger.Debug("branch", "workflow", c.schema.name, "event", string(event), "at", c.pos.String())
	if err := handler(c, event); err != nil {
		return fmt.Errorf("branch %s: %w", event, err)
	}
	return nil
}

// HasBranch reports whether a handler is registered for event.
func (c *Controller) HasBranch(event BranchEvent) bool {
	_, ok := c.branches[event]
	return ok
}

// exitPhase marks the current phase completed and moves to the first step of
// the next phase, or to the terminal position after the last phase.
func (c *Controller) exitPhase() {
	c.completed[c.schema.phases[c.pos.Phase].ID] = true

	if c.pos.Phase < len(c.schema.phases)-1 {
		c.pos = Position{Phase: c.pos.Phase + 1}
		return
	}
	c.pos = CompletePosition
}

// Progress is the read-only projection of the controller state.
type Progress struct {
	CompletedPhaseIDs      []string `json:"completed_phase_ids" yaml:"completed_phase_ids"`
	CurrentPhaseIndex      int      `json:"current_phase_index" yaml:"current_phase_index"`
	CurrentSubStepIndex    int      `json:"current_sub_step_index" yaml:"current_sub_step_index"`
	TotalPhases            int      `json:"total_phases" yaml:"total_phases"`
	SubStepsInCurrentPhase int      `json:"sub_steps_in_current_phase" yaml:"sub_steps_in_current_phase"`
	Complete               bool     `json:"complete" yaml:"complete"`
}

// Progress returns the current progress. It has no side effects.
//
// Once complete, the indices point past the last phase and the sub-step count
// is zero.
func (c *Controller) Progress() Progress {
	p := Progress{
		CompletedPhaseIDs: c.CompletedPhaseIDs(),
		TotalPhases:       len(c.schema.phases),
		Complete:          c.pos.Complete,
	}
	if c.pos.Complete {
		p.CurrentPhaseIndex = len(c.schema.phases)
		return p
	}
	p.CurrentPhaseIndex = c.pos.Phase
	p.CurrentSubStepIndex = c.pos.Step
	p.SubStepsInCurrentPhase = len(c.schema.phases[c.pos.Phase].Steps)
	return p
}

// Summary projects the current state with [Project].
func (c *Controller) Summary() Summary {
	return Project(c.schema, c.pos, c.CompletedPhaseIDs())
}
