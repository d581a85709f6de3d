// Package output renders workflow state for the terminal using lipgloss.
//
// All rendering goes through [Printer], which writes to an [io.Writer] so
// tests can capture it. Colors can be turned off with [Printer.SetColor];
// layout is the same either way.
package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"recruitflow/internal/candidates"
	"recruitflow/internal/catalog"
	"recruitflow/internal/lifecycle"
	"recruitflow/internal/workflow"
)

// DefaultBarWidth is the progress bar width in cells.
const DefaultBarWidth = 30

// Printer writes styled output.
type Printer struct {
	out      io.Writer
	color    bool
	barWidth int
}

// NewPrinter creates a Printer writing to stdout.
func NewPrinter() *Printer {
	return NewPrinterWithWriter(os.Stdout)
}

// NewPrinterWithWriter creates a Printer writing to w.
func NewPrinterWithWriter(w io.Writer) *Printer {
	return &Printer{out: w, color: true, barWidth: DefaultBarWidth}
}

// SetColor turns styling on or off.
func (p *Printer) SetColor(on bool) {
	p.color = on
}

// SetBarWidth sets the progress bar width. Values below 1 reset it to
// [DefaultBarWidth].
func (p *Printer) SetBarWidth(width int) {
	if width < 1 {
		width = DefaultBarWidth
	}
	p.barWidth = width
}

func (p *Printer) render(style lipgloss.Style, s string) string {
	if !p.color {
		return s
	}
	return style.Render(s)
}

func (p *Printer) printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

// Success prints a success line.
func (p *Printer) Success(format string, a ...any) {
	p.printf("%s %s\n", p.render(successStyle, symbolSuccess), fmt.Sprintf(format, a...))
}

// Error prints an error line.
func (p *Printer) Error(format string, a ...any) {
	p.printf("%s %s\n", p.render(errorStyle, symbolError), fmt.Sprintf(format, a...))
}

// Info prints an informational line.
func (p *Printer) Info(format string, a ...any) {
	p.printf("%s %s\n", p.render(accentStyle, symbolInfo), fmt.Sprintf(format, a...))
}

// Warn prints a warning line.
func (p *Printer) Warn(format string, a ...any) {
	p.printf("%s %s\n", p.render(warnStyle, symbolWarn), fmt.Sprintf(format, a...))
}

// Bar renders a progress bar for percent in [0, 1].
func (p *Printer) Bar(percent float64) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 1 {
		percent = 1
	}
	filled := int(percent * float64(p.barWidth))
	bar := p.render(accentStyle, strings.Repeat(barFilled, filled)) +
		p.render(faintStyle, strings.Repeat(barEmpty, p.barWidth-filled))
	return fmt.Sprintf("%s %3d%%", bar, int(percent*100))
}

// Progress prints the bar, the phase breadcrumb and the current phase's
// sub-steps.
func (p *Printer) Progress(s workflow.Summary) {
	p.printf("%s\n", p.Bar(s.Percent))

	if len(s.Breadcrumb) > 0 {
		crumbs := make([]string, len(s.Breadcrumb))
		for i, name := range s.Breadcrumb {
			if i == len(s.Breadcrumb)-1 && !s.Complete {
				crumbs[i] = p.render(titleStyle, name)
				continue
			}
			crumbs[i] = p.render(mutedStyle, name)
		}
		p.printf("%s\n", strings.Join(crumbs, p.render(faintStyle, crumbSeparator)))
	}

	if s.Complete {
		p.Success("Complete")
		return
	}

	for _, step := range s.SubSteps {
		switch step.State {
		case workflow.StepDone:
			p.printf("  %s %s\n", p.render(successStyle, symbolSuccess), p.render(mutedStyle, step.Label))
		case workflow.StepCurrent:
			p.printf("  %s %s\n", p.render(accentStyle, symbolInfo), p.render(boldStyle, step.Label))
		default:
			p.printf("  %s %s\n", p.render(faintStyle, symbolUpcoming), p.render(mutedStyle, step.Label))
		}
	}
}

// ActionHeader prints the boxed header shown before a scripted action runs.
func (p *Printer) ActionHeader(index, total int, action lifecycle.Action) {
	title := fmt.Sprintf("[%d/%d] %s", index, total, action.Op)
	if detail := describeAction(action); detail != "" {
		title += " " + detail
	}
	if !p.color {
		p.printf("── %s\n", title)
		return
	}
	p.printf("%s\n", boxStyle.Render(title))
}

func describeAction(a lifecycle.Action) string {
	switch a.Op {
	case lifecycle.OpUpdate, lifecycle.OpImport:
		return a.Section
	case lifecycle.OpJump:
		return a.Phase + "/" + a.Step
	case lifecycle.OpBranch:
		return a.Event
	case lifecycle.OpAdvance:
		if a.ExpectReject {
			return "(expect reject)"
		}
	}
	return ""
}

// Table renders a table with rounded borders and a bold header row.
func (p *Printer) Table(headers []string, rows [][]string) string {
	headerStyle := lipgloss.NewStyle().Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	oddStyle := cellStyle
	borderStyle := lipgloss.NewStyle()
	if p.color {
		headerStyle = headerStyle.Foreground(purple).Bold(true)
		oddStyle = cellStyle.Foreground(dim)
		borderStyle = borderStyle.Foreground(faint)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row%2 == 0:
				return cellStyle
			default:
				return oddStyle
			}
		}).
		Headers(headers...).
		Rows(rows...)

	return t.String()
}

// Workflows prints a table of registered workflows.
func (p *Printer) Workflows(defs []catalog.Definition) {
	rows := make([][]string, 0, len(defs))
	for _, def := range defs {
		var events []string
		for _, e := range def.BranchEvents() {
			events = append(events, string(e))
		}
		rows = append(rows, []string{
			def.Name,
			def.Title,
			strconv.Itoa(def.Schema.PhaseCount()),
			strconv.Itoa(def.Schema.TotalSteps()),
			strings.Join(events, ", "),
			def.Source,
		})
	}
	p.printf("%s\n", p.Table([]string{"Name", "Title", "Phases", "Steps", "Branches", "Source"}, rows))
}

// Describe prints a workflow's phases and steps as a tree.
func (p *Printer) Describe(def catalog.Definition) {
	p.printf("%s %s\n", p.render(titleStyle, def.Name), p.render(mutedStyle, def.Title))
	if def.Description != "" {
		p.printf("%s\n", def.Description)
	}

	phases := def.Schema.Phases()
	for i, phase := range phases {
		branch, indent := "├─", "│  "
		if i == len(phases)-1 {
			branch, indent = "└─", "   "
		}
		name := phase.Name
		if phase.Skippable {
			name += " " + p.render(warnStyle, "(skippable)")
		}
		p.printf("%s %s %s\n", p.render(faintStyle, branch), p.render(boldStyle, phase.ID), name)
		for j, step := range phase.Steps {
			leaf := "├─"
			if j == len(phase.Steps)-1 {
				leaf = "└─"
			}
			p.printf("%s%s %s %s\n", p.render(faintStyle, indent), p.render(faintStyle, leaf), step.ID, p.render(mutedStyle, step.Label))
		}
	}

	if events := def.BranchEvents(); len(events) > 0 {
		names := make([]string, len(events))
		for i, e := range events {
			names[i] = string(e)
		}
		p.printf("%s %s\n", p.render(mutedStyle, "branches:"), strings.Join(names, ", "))
	}
}

// Candidates prints an imported candidate list and its validity counts.
func (p *Printer) Candidates(list candidates.List) {
	rows := make([][]string, 0, len(list))
	for _, c := range list {
		valid := p.render(successStyle, symbolSuccess)
		if !c.IsValid {
			valid = p.render(errorStyle, symbolError)
		}
		rows = append(rows, []string{c.Email, c.Name, c.Phone, c.JobTitle, valid})
	}
	p.printf("%s\n", p.Table([]string{"Email", "Name", "Phone", "Job", "Valid"}, rows))

	s := candidates.Summarize(list)
	p.Info("%d candidates: %d valid, %d invalid", s.Total, s.Valid, s.Invalid)
}

// Transcript prints the outcome of a scripted run.
func (p *Printer) Transcript(t *lifecycle.Transcript) {
	rows := make([][]string, 0, len(t.Entries))
	for _, e := range t.Entries {
		note := ""
		if e.Rejected {
			note = "rejected"
		}
		rows = append(rows, []string{
			strconv.Itoa(e.Index),
			string(e.Op),
			e.Position.String(),
			strings.Join(e.Completed, ", "),
			note,
		})
	}
	p.printf("%s\n", p.Table([]string{"#", "Action", "Position", "Completed", "Note"}, rows))

	if t.Progress.Complete {
		p.Success("%s complete (%d/%d phases)", t.Workflow, len(t.Progress.CompletedPhaseIDs), t.Progress.TotalPhases)
		return
	}
	p.Warn("%s stopped at phase %d step %d (%d/%d phases)", t.Workflow,
		t.Progress.CurrentPhaseIndex, t.Progress.CurrentSubStepIndex,
		len(t.Progress.CompletedPhaseIDs), t.Progress.TotalPhases)
}

// Document prints the top-level sections of a document snapshot as
// aligned key/value lines.
func (p *Printer) Document(snapshot map[string]any) {
	keys := make([]string, 0, len(snapshot))
	width := 0
	for k := range snapshot {
		keys = append(keys, k)
		if len(k) > width {
			width = len(k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		label := fmt.Sprintf("%-*s", width+1, k+":")
		p.printf("  %s %v\n", p.render(mutedStyle, label), snapshot[k])
	}
}
