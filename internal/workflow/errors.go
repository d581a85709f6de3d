package workflow

import (
	"errors"
	"fmt"

	"recruitflow/internal/document"
)

// Sentinel errors for workflow navigation.
//
// ErrStepInvalid marks a user input problem: the caller re-renders the current
// step with validation feedback. The remaining errors are contract violations
// that indicate a schema or caller bug; see [IsContractViolation].
var (
	// ErrStepInvalid is wrapped by [RejectedError] when Advance is called on a
	// step whose validity predicate is false.
	ErrStepInvalid = errors.New("current step is not valid")

	// ErrWorkflowComplete is returned by every mutating operation once the
	// controller has reached the terminal position.
	ErrWorkflowComplete = errors.New("workflow is already complete")

	// ErrPhaseNotSkippable is returned by SkipPhase on a phase that is not
	// marked skippable in the schema.
	ErrPhaseNotSkippable = errors.New("phase is not skippable")

	// ErrUnknownBranch is returned by RaiseBranch when no handler is
	// registered for the event.
	ErrUnknownBranch = errors.New("no handler registered for branch event")

	// ErrPositionOutOfRange is returned by JumpTo for positions that do not
	// resolve to a step in the schema.
	ErrPositionOutOfRange = errors.New("position out of range")

	// ErrInvalidSchema is returned when a schema fails its structural checks.
	ErrInvalidSchema = errors.New("invalid workflow schema")

	// ErrSectionMismatch is returned by NewController when the document's
	// sections differ from the sections the schema declares.
	ErrSectionMismatch = errors.New("document sections do not match schema")
)

// RejectedError reports that Advance was refused because the current step is
// not valid. The position is unchanged.
type RejectedError struct {
	PhaseID string
	StepID  string
	Label   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("step %s/%s (%s): %v", e.PhaseID, e.StepID, e.Label, ErrStepInvalid)
}

func (e *RejectedError) Unwrap() error {
	return ErrStepInvalid
}

// IsRejected reports whether err is a user-facing rejection of Advance.
func IsRejected(err error) bool {
	return errors.Is(err, ErrStepInvalid)
}

// IsContractViolation reports whether err signals a programmer error: an
// operation that the schema or the controller state never permits.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrWorkflowComplete) ||
		errors.Is(err, ErrPhaseNotSkippable) ||
		errors.Is(err, ErrUnknownBranch) ||
		errors.Is(err, ErrPositionOutOfRange) ||
		errors.Is(err, document.ErrUnknownSection)
}
