package workflow

import (
	"fmt"
	"strconv"
	"strings"
)

// Position is a cursor into a [Schema].
//
// The zero value is the initial position (0, 0). Positions are comparable with
// == and ordered with [Position.Compare]. They serialize as "<phase>.<step>",
// or "complete" for [CompletePosition].
type Position struct {
	Phase    int
	Step     int
	Complete bool
}

// CompletePosition is the terminal marker reached by moving past the last
// step of the last phase.
var CompletePosition = Position{Complete: true}

// At returns the position of step within phase.
func At(phase, step int) Position {
	return Position{Phase: phase, Step: step}
}

// String returns "(phase,step)" or "COMPLETE".
func (p Position) String() string {
	if p.Complete {
		return "COMPLETE"
	}
	return fmt.Sprintf("(%d,%d)", p.Phase, p.Step)
}

// Compare orders positions in schema order; [CompletePosition] sorts last.
// It returns -1, 0 or +1.
func (p Position) Compare(other Position) int {
	switch {
	case p.Complete && other.Complete:
		return 0
	case p.Complete:
		return 1
	case other.Complete:
		return -1
	}

	switch {
	case p.Phase < other.Phase:
		return -1
	case p.Phase > other.Phase:
		return 1
	case p.Step < other.Step:
		return -1
	case p.Step > other.Step:
		return 1
	}
	return 0
}

// MarshalText implements encoding.TextMarshaler.
func (p Position) MarshalText() ([]byte, error) {
	if p.Complete {
		return []byte("complete"), nil
	}
	return []byte(strconv.Itoa(p.Phase) + "." + strconv.Itoa(p.Step)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Position) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if strings.EqualFold(s, "complete") {
		*p = CompletePosition
		return nil
	}

	phaseStr, stepStr, ok := strings.Cut(s, ".")
	if !ok {
		return fmt.Errorf("invalid position %q: want <phase>.<step> or complete", s)
	}
	phase, err := strconv.Atoi(phaseStr)
	if err != nil || phase < 0 {
		return fmt.Errorf("invalid position %q: bad phase index", s)
	}
	step, err := strconv.Atoi(stepStr)
	if err != nil || step < 0 {
		return fmt.Errorf("invalid position %q: bad step index", s)
	}

	*p = Position{Phase: phase, Step: step}
	return nil
}
