package workflow

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruitflow/internal/document"
)

// nestedSchema builds the 2-phase {2,1} schema used by several scenarios.
// Phase "setup" is skippable.
func nestedSchema(t *testing.T) *Schema {
	t.Helper()

	s, err := NewSchema("nested", nil,
		Phase{ID: "setup", Name: "Setup", Skippable: true, Steps: []Step{
			{ID: "first", Label: "First"},
			{ID: "second", Label: "Second"},
		}},
		Phase{ID: "finish", Name: "Finish", Steps: []Step{
			{ID: "last", Label: "Last"},
		}},
	)
	require.NoError(t, err)
	return s
}

func newController(t *testing.T, s *Schema, doc document.Document, opts ...Option) *Controller {
	t.Helper()

	c, err := NewController(s, doc, opts...)
	require.NoError(t, err)
	return c
}

func TestNewController_InitialState(t *testing.T) {
	c := newController(t, nestedSchema(t), document.New(nil))

	assert.Equal(t, At(0, 0), c.Position())
	assert.False(t, c.IsComplete())
	assert.Empty(t, c.CompletedPhaseIDs())

	step, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, "first", step.ID)
}

func TestNewController_SectionMismatch(t *testing.T) {
	s, err := NewFlatSchema("flat", []string{"job", "candidates"}, Step{ID: "a"})
	require.NoError(t, err)

	_, err = NewController(s, document.New(map[string]any{"job": map[string]any{}}))
	assert.True(t, errors.Is(err, ErrSectionMismatch))

	_, err = NewController(s, document.New(map[string]any{
		"job":        map[string]any{},
		"candidates": []any{},
	}))
	assert.NoError(t, err)
}

func TestNewController_NilSchema(t *testing.T) {
	_, err := NewController(nil, document.New(nil))
	assert.True(t, errors.Is(err, ErrInvalidSchema))
}

// Scenario A: flat 3-step interview setup gated on candidate validity.
func TestScenarioA_FlatGatedAdvance(t *testing.T) {
	s, err := NewFlatSchema("interview-setup", []string{"candidates", "job"},
		Step{ID: "import-candidates", Label: "Import candidates", Valid: AnyValid("candidates")},
		Step{ID: "job-context", Label: "Job context", Valid: Required("job", "title", "interview_type")},
		Step{ID: "review", Label: "Review"},
	)
	require.NoError(t, err)

	c := newController(t, s, document.New(map[string]any{
		"candidates": []any{},
		"job":        map[string]any{"title": "", "interview_type": ""},
	}))

	err = c.Advance()
	require.Error(t, err)
	assert.True(t, IsRejected(err))
	assert.False(t, IsContractViolation(err))
	assert.Equal(t, At(0, 0), c.Position())

	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, "import-candidates", rejected.StepID)

	require.NoError(t, c.UpdateSection("candidates", []any{
		map[string]any{"email": "a@b.com", "is_valid": true},
	}))

	require.NoError(t, c.Advance())
	assert.Equal(t, At(0, 1), c.Position())
}

// Scenario B: skipping a skippable phase bypasses its unvisited sub-steps.
func TestScenarioB_SkipPhase(t *testing.T) {
	c := newController(t, nestedSchema(t), document.New(nil))

	require.NoError(t, c.SkipPhase())

	assert.Equal(t, At(1, 0), c.Position())
	assert.True(t, c.Completed("setup"))
	assert.Equal(t, []string{"setup"}, c.CompletedPhaseIDs())
}

// Scenario C: advancing from the last step of the last phase completes.
func TestScenarioC_AdvanceToComplete(t *testing.T) {
	c := newController(t, nestedSchema(t), document.New(nil))
	require.NoError(t, c.JumpTo(At(1, 0)))

	require.NoError(t, c.Advance())

	assert.Equal(t, CompletePosition, c.Position())
	assert.True(t, c.IsComplete())
	assert.True(t, c.Completed("finish"))
}

// Scenario D: retreat within a phase and across a phase boundary.
func TestScenarioD_Retreat(t *testing.T) {
	c := newController(t, nestedSchema(t), document.New(nil))

	require.NoError(t, c.JumpTo(At(0, 1)))
	require.NoError(t, c.Retreat())
	assert.Equal(t, At(0, 0), c.Position())

	require.NoError(t, c.JumpTo(At(1, 0)))
	require.NoError(t, c.Retreat())
	assert.Equal(t, At(0, 1), c.Position(), "retreat lands on the last sub-step of the previous phase")
}

// Scenario E: a branch event invokes its handler once and leaves the position alone.
func TestScenarioE_BranchDecline(t *testing.T) {
	calls := 0
	var gotEvent BranchEvent
	handler := func(c *Controller, event BranchEvent) error {
		calls++
		gotEvent = event
		return nil
	}

	c := newController(t, nestedSchema(t), document.New(nil), WithBranch(BranchDecline, handler))
	require.NoError(t, c.JumpTo(At(0, 1)))

	require.NoError(t, c.RaiseBranch(BranchDecline))

	assert.Equal(t, 1, calls)
	assert.Equal(t, BranchDecline, gotEvent)
	assert.Equal(t, At(0, 1), c.Position())
}

func TestRaiseBranch_HandlerCanJump(t *testing.T) {
	s := nestedSchema(t)
	terminal, ok := s.Locate("finish", "last")
	require.True(t, ok)

	endEarly := func(c *Controller, _ BranchEvent) error {
		return c.JumpTo(terminal)
	}
	c := newController(t, s, document.New(nil), WithBranches(map[BranchEvent]BranchHandler{
		BranchEndEarly: endEarly,
	}))

	require.NoError(t, c.RaiseBranch(BranchEndEarly))

	assert.Equal(t, terminal, c.Position())
	assert.Empty(t, c.CompletedPhaseIDs(), "jumping does not complete phases")
}

func TestRaiseBranch_Errors(t *testing.T) {
	handlerErr := errors.New("redirect failed")
	c := newController(t, nestedSchema(t), document.New(nil),
		WithBranch(BranchDecline, func(*Controller, BranchEvent) error { return handlerErr }))

	err := c.RaiseBranch(BranchEndEarly)
	assert.True(t, errors.Is(err, ErrUnknownBranch))
	assert.True(t, IsContractViolation(err))
	assert.False(t, c.HasBranch(BranchEndEarly))

	err = c.RaiseBranch(BranchDecline)
	assert.True(t, errors.Is(err, handlerErr))
	assert.Equal(t, At(0, 0), c.Position())
}

func TestRetreat_AtStartIsNoop(t *testing.T) {
	c := newController(t, nestedSchema(t), document.New(nil))

	require.NoError(t, c.Retreat())

	assert.Equal(t, At(0, 0), c.Position())
}

func TestRetreat_NeverUncompletes(t *testing.T) {
	c := newController(t, nestedSchema(t), document.New(nil))
	require.NoError(t, c.Advance())
	require.NoError(t, c.Advance())
	require.True(t, c.Completed("setup"))

	require.NoError(t, c.Retreat())
	require.NoError(t, c.Retreat())

	assert.Equal(t, At(0, 0), c.Position())
	assert.True(t, c.Completed("setup"))
}

func TestRetreat_SkipsNoValidation(t *testing.T) {
	s, err := NewFlatSchema("flat", nil,
		Step{ID: "a"},
		Step{ID: "b", Valid: func(document.Document) bool { return false }},
	)
	require.NoError(t, err)
	c := newController(t, s, document.New(nil))
	require.NoError(t, c.Advance())

	require.NoError(t, c.Retreat())
	assert.Equal(t, At(0, 0), c.Position())
}

func TestSkipPhase_NotSkippable(t *testing.T) {
	c := newController(t, nestedSchema(t), document.New(nil))
	require.NoError(t, c.JumpTo(At(1, 0)))
	assert.False(t, c.CanSkip())

	err := c.SkipPhase()

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPhaseNotSkippable))
	assert.True(t, IsContractViolation(err))
	assert.Equal(t, At(1, 0), c.Position())
	assert.False(t, c.Completed("finish"))
}

func TestSkipPhase_LastPhaseCompletes(t *testing.T) {
	s, err := NewSchema("optional", nil,
		Phase{ID: "only", Skippable: true, Steps: []Step{{ID: "a"}, {ID: "b"}}},
	)
	require.NoError(t, err)
	c := newController(t, s, document.New(nil))
	assert.True(t, c.CanSkip())

	require.NoError(t, c.SkipPhase())

	assert.True(t, c.IsComplete())
	assert.Equal(t, []string{"only"}, c.CompletedPhaseIDs())
}

func TestSkipPhase_IgnoresValidity(t *testing.T) {
	never := func(document.Document) bool { return false }
	s, err := NewSchema("gated", nil,
		Phase{ID: "brand", Skippable: true, Steps: []Step{{ID: "logo", Valid: never}}},
		Phase{ID: "review", Steps: []Step{{ID: "summary"}}},
	)
	require.NoError(t, err)
	c := newController(t, s, document.New(nil))

	assert.True(t, IsRejected(c.Advance()))
	require.NoError(t, c.SkipPhase())
	assert.Equal(t, At(1, 0), c.Position())
}

func TestJumpTo_OutOfRange(t *testing.T) {
	c := newController(t, nestedSchema(t), document.New(nil))

	for _, pos := range []Position{At(2, 0), At(1, 1), At(-1, 0), At(0, -1), CompletePosition} {
		err := c.JumpTo(pos)
		assert.True(t, errors.Is(err, ErrPositionOutOfRange), "JumpTo(%s)", pos)
	}
	assert.Equal(t, At(0, 0), c.Position())
}

// P5: once complete, nothing moves the controller.
func TestTerminalAbsorption(t *testing.T) {
	c := newController(t, nestedSchema(t), document.New(map[string]any{"notes": map[string]any{}}),
		WithBranch(BranchDecline, func(*Controller, BranchEvent) error { return nil }))
	require.NoError(t, c.SkipPhase())
	require.NoError(t, c.Advance())
	require.True(t, c.IsComplete())
	before := c.CompletedPhaseIDs()

	ops := map[string]func() error{
		"advance": c.Advance,
		"retreat": c.Retreat,
		"skip":    c.SkipPhase,
		"jump":    func() error { return c.JumpTo(At(0, 0)) },
		"branch":  func() error { return c.RaiseBranch(BranchDecline) },
		"update":  func() error { return c.UpdateSection("notes", map[string]any{"a": 1}) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			assert.True(t, errors.Is(err, ErrWorkflowComplete))
			assert.True(t, IsContractViolation(err))
			assert.Equal(t, CompletePosition, c.Position())
			assert.Equal(t, before, c.CompletedPhaseIDs())
		})
	}

	_, ok := c.Current()
	assert.False(t, ok)
	assert.False(t, c.CanSkip())
}

func TestUpdateSection_UnknownSection(t *testing.T) {
	c := newController(t, nestedSchema(t), document.New(map[string]any{"job": map[string]any{}}))

	err := c.UpdateSection("brand", map[string]any{"logo": "x"})

	assert.True(t, errors.Is(err, document.ErrUnknownSection))
	assert.True(t, IsContractViolation(err))
}

func TestProgress(t *testing.T) {
	c := newController(t, nestedSchema(t), document.New(nil))
	require.NoError(t, c.Advance())

	assert.Equal(t, Progress{
		CompletedPhaseIDs:      []string{},
		CurrentPhaseIndex:      0,
		CurrentSubStepIndex:    1,
		TotalPhases:            2,
		SubStepsInCurrentPhase: 2,
	}, c.Progress())

	require.NoError(t, c.Advance())
	require.NoError(t, c.Advance())

	assert.Equal(t, Progress{
		CompletedPhaseIDs: []string{"setup", "finish"},
		CurrentPhaseIndex: 2,
		TotalPhases:       2,
		Complete:          true,
	}, c.Progress())
}

// P1 and P2 and P3 under random operation sequences.
func TestRandomWalkProperties(t *testing.T) {
	flaky := true
	s, err := NewSchema("walk", nil,
		Phase{ID: "p0", Skippable: true, Steps: []Step{{ID: "a"}, {ID: "b", Valid: func(document.Document) bool { return flaky }}}},
		Phase{ID: "p1", Steps: []Step{{ID: "c"}}},
		Phase{ID: "p2", Skippable: true, Steps: []Step{{ID: "d"}, {ID: "e"}, {ID: "f"}}},
		Phase{ID: "p3", Steps: []Step{{ID: "g"}, {ID: "h", Valid: func(document.Document) bool { return !flaky }}}},
	)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 50; run++ {
		c := newController(t, s, document.New(nil))
		for i := 0; i < 40 && !c.IsComplete(); i++ {
			flaky = rng.Intn(2) == 0
			before := c.CompletedPhaseIDs()
			pos := c.Position()

			switch rng.Intn(4) {
			case 0:
				step, _ := c.Current()
				wasValid := step.IsValid(c.Document())
				err := c.Advance()
				// P3: advance moves iff the occupied step was valid.
				assert.Equal(t, wasValid, err == nil)
				assert.Equal(t, wasValid, c.Position() != pos)
			case 1:
				require.NoError(t, c.Retreat())
			case 2:
				if c.CanSkip() {
					require.NoError(t, c.SkipPhase())
				} else {
					assert.True(t, errors.Is(c.SkipPhase(), ErrPhaseNotSkippable))
				}
			case 3:
				target := At(rng.Intn(s.PhaseCount()), 0)
				require.NoError(t, c.JumpTo(target))
			}

			// P1: completed set never shrinks.
			after := c.CompletedPhaseIDs()
			for _, id := range before {
				assert.Contains(t, after, id)
			}

			// P2: position always resolves or is terminal.
			p := c.Position()
			assert.True(t, p.Complete || s.Contains(p), "position %s out of range", p)
		}
	}
}
