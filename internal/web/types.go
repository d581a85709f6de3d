// Package web provides the HTTP API for running recruiting workflows.
package web

import (
	"recruitflow/internal/catalog"
	"recruitflow/internal/workflow"
)

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	Workflow string `json:"workflow" validate:"required"`
}

// UpdateSectionRequest is the body of PATCH /sessions/:id/sections/:section.
// Fields are shallow-merged into the section.
type UpdateSectionRequest struct {
	Fields map[string]any `json:"fields" validate:"required"`
}

// ImportCandidatesRequest is the body of POST /sessions/:id/candidates.
type ImportCandidatesRequest struct {
	Format   string `json:"format"   validate:"required,oneof=csv text jsonl ats"`
	Data     string `json:"data"     validate:"required_unless=Format ats"`
	Provider string `json:"provider" validate:"required_if=Format ats"`
}

// BranchRequest is the optional body of POST /sessions/:id/branch/:event.
type BranchRequest struct {
	Confirmed bool `json:"confirmed"`
}

// WorkflowResponse describes a registered workflow.
type WorkflowResponse struct {
	Name        string          `json:"name"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Source      string          `json:"source"`
	Branches    []string        `json:"branches"`
	Phases      []PhaseResponse `json:"phases"`
}

// PhaseResponse describes one phase of a workflow.
type PhaseResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Skippable bool           `json:"skippable"`
	Steps     []StepResponse `json:"steps"`
}

// StepResponse describes one step of a phase.
type StepResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func newWorkflowResponse(def catalog.Definition) WorkflowResponse {
	resp := WorkflowResponse{
		Name:        def.Name,
		Title:       def.Title,
		Description: def.Description,
		Source:      def.Source,
		Branches:    []string{},
	}
	for _, e := range def.BranchEvents() {
		resp.Branches = append(resp.Branches, string(e))
	}
	for _, phase := range def.Schema.Phases() {
		resp.Phases = append(resp.Phases, newPhaseResponse(phase))
	}
	return resp
}

func newPhaseResponse(phase workflow.Phase) PhaseResponse {
	resp := PhaseResponse{
		ID:        phase.ID,
		Name:      phase.Name,
		Skippable: phase.Skippable,
		Steps:     make([]StepResponse, len(phase.Steps)),
	}
	for i, step := range phase.Steps {
		resp.Steps[i] = StepResponse{ID: step.ID, Label: step.Label}
	}
	return resp
}
