package workflow

// StepState annotates a step in the sub-step breadcrumb.
type StepState string

const (
	StepDone     StepState = "done"
	StepCurrent  StepState = "current"
	StepUpcoming StepState = "upcoming"
)

// StepView is one entry of the sub-step breadcrumb.
type StepView struct {
	ID    string    `json:"id" yaml:"id"`
	Label string    `json:"label" yaml:"label"`
	State StepState `json:"state" yaml:"state"`
}

// Summary is a renderable progress summary.
type Summary struct {
	// Percent is completed phases over total phases, in [0, 1].
	Percent float64 `json:"percent" yaml:"percent"`

	// PhaseName is the name of the current phase, empty once complete.
	PhaseName string `json:"phase_name,omitempty" yaml:"phase_name,omitempty"`

	// Breadcrumb lists phase names from the first phase to the current one.
	// Once complete it lists every phase.
	Breadcrumb []string `json:"breadcrumb" yaml:"breadcrumb"`

	// SubSteps annotates the steps of the current phase. Nil once complete.
	SubSteps []StepView `json:"sub_steps,omitempty" yaml:"sub_steps,omitempty"`

	Complete bool `json:"complete" yaml:"complete"`
}

// PercentInt returns Percent as a whole percentage, rounded down.
func (s Summary) PercentInt() int {
	return int(s.Percent * 100)
}

// Project computes the progress summary for pos. It is pure and idempotent
// so it can run on every render.
//
// Ids in completed that are not phases of schema are ignored.
func Project(schema *Schema, pos Position, completed []string) Summary {
	total := schema.PhaseCount()

	done := 0
	seen := make(map[string]bool, len(completed))
	for _, id := range completed {
		if seen[id] {
			continue
		}
		seen[id] = true
		for _, p := range schema.phases {
			if p.ID == id {
				done++
				break
			}
		}
	}

	summary := Summary{Complete: pos.Complete}
	if total > 0 {
		summary.Percent = float64(done) / float64(total)
	}

	last := pos.Phase
	if pos.Complete {
		last = total - 1
	}
	if last >= total {
		last = total - 1
	}
	for i := 0; i <= last; i++ {
		summary.Breadcrumb = append(summary.Breadcrumb, schema.phases[i].Name)
	}

	if pos.Complete || !schema.Contains(pos) {
		return summary
	}

	phase := schema.phases[pos.Phase]
	summary.PhaseName = phase.Name
	summary.SubSteps = make([]StepView, len(phase.Steps))
	for i, step := range phase.Steps {
		state := StepUpcoming
		switch {
		case i < pos.Step:
			state = StepDone
		case i == pos.Step:
			state = StepCurrent
		}
		summary.SubSteps[i] = StepView{ID: step.ID, Label: step.Label, State: state}
	}
	return summary
}
