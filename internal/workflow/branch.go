package workflow

// BranchEvent is a named early-exit signal a step can raise instead of
// advancing or retreating.
type BranchEvent string

const (
	// BranchDecline is raised when a candidate declines the interview.
	BranchDecline BranchEvent = "decline"

	// BranchEndEarly is raised when a candidate asks to finish before the
	// last question.
	BranchEndEarly BranchEvent = "endEarly"
)

// BranchHandler resolves a branch event. It receives the controller so it can
// decide the outcome, e.g. redirect elsewhere or confirm and then JumpTo the
// terminal step. The controller itself never moves when a branch is raised.
type BranchHandler func(c *Controller, event BranchEvent) error
