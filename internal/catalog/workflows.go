package catalog

import (
	"fmt"
	"strings"

	"recruitflow/internal/candidates"
	"recruitflow/internal/document"
	"recruitflow/internal/workflow"
)

// Built-in workflow names.
const (
	OnboardingName         = "onboarding"
	InterviewSetupName     = "interview-setup"
	CandidateInterviewName = "candidate-interview"
)

// MinInterviewQuestions is the number of non-blank questions a job needs
// before an interview can be set up.
const MinInterviewQuestions = 3

// EndEarlyPrompt is the question asked before a candidate ends an interview
// early.
const EndEarlyPrompt = "End the interview early? Unanswered questions will be skipped."

// Onboarding is the first-run setup wizard for a new recruiting organization.
func Onboarding() Definition {
	schema := mustSchema(workflow.NewSchema(OnboardingName,
		[]string{"organization", "brand", "team", "integrations", "interview_defaults", "notifications"},
		workflow.Phase{ID: "organization", Name: "Organization", Steps: []workflow.Step{
			{ID: "details", Label: "Company details", Valid: workflow.Required("organization", "name", "industry")},
			{ID: "size", Label: "Company size", Valid: workflow.Required("organization", "size")},
		}},
		workflow.Phase{ID: "brand", Name: "Brand", Skippable: true, Steps: []workflow.Step{
			{ID: "logo", Label: "Logo", Valid: workflow.Required("brand", "logo_url")},
			{ID: "colors", Label: "Colors", Valid: workflow.Required("brand", "primary_color")},
		}},
		workflow.Phase{ID: "team", Name: "Team", Skippable: true, Steps: []workflow.Step{
			{ID: "invite", Label: "Invite teammates", Valid: teamInvitesValid},
		}},
		workflow.Phase{ID: "integrations", Name: "Integrations", Skippable: true, Steps: []workflow.Step{
			{ID: "ats-select", Label: "Choose your ATS", Valid: workflow.Required("integrations", "ats_provider")},
			{ID: "ats-connect", Label: "Connect", Valid: workflow.IsTrue("integrations", "connected")},
		}},
		workflow.Phase{ID: "interview-defaults", Name: "Interview defaults", Steps: []workflow.Step{
			{ID: "format", Label: "Interview format", Valid: workflow.Required("interview_defaults", "format")},
			{ID: "questions", Label: "Default questions", Valid: workflow.MinItems("interview_defaults", "questions", 1)},
		}},
		workflow.Phase{ID: "notifications", Name: "Notifications", Skippable: true, Steps: []workflow.Step{
			{ID: "templates", Label: "Email templates", Valid: workflow.Required("notifications", "invite_template")},
		}},
		workflow.Phase{ID: "review", Name: "Review", Steps: []workflow.Step{
			{ID: "summary", Label: "Summary"},
		}},
	))

	return Definition{
		Name:        OnboardingName,
		Title:       "Organization onboarding",
		Description: "Set up a new recruiting organization.",
		Schema:      schema,
		Defaults: func() map[string]any {
			return map[string]any{
				"organization":       map[string]any{"name": "", "industry": "", "size": ""},
				"brand":              map[string]any{"logo_url": "", "primary_color": "#4F46E5"},
				"team":               map[string]any{"invites": []any{}},
				"integrations":       map[string]any{"ats_provider": "", "connected": false},
				"interview_defaults": map[string]any{"format": "video", "questions": []any{}},
				"notifications":      map[string]any{"invite_template": "", "reminder_hours": 24},
			}
		},
	}
}

// teamInvitesValid requires at least one invite and every invite to be a
// valid email address.
func teamInvitesValid(doc document.Document) bool {
	invites := doc.Strings("team", "invites")
	if len(invites) == 0 {
		return false
	}
	for _, email := range invites {
		if !candidates.ValidEmail(strings.TrimSpace(email)) {
			return false
		}
	}
	return true
}

// InterviewSetup is the flat wizard a recruiter uses to create an interview:
// import candidates, describe the job, review.
func InterviewSetup() Definition {
	schema := mustSchema(workflow.NewFlatSchema(InterviewSetupName,
		[]string{"candidates", "job"},
		workflow.Step{ID: "candidates", Label: "Import candidates", Valid: workflow.AnyValid("candidates")},
		workflow.Step{ID: "job", Label: "Job context", Valid: workflow.All(
			workflow.Required("job", "title", "interview_type"),
			workflow.MinItems("job", "questions", MinInterviewQuestions),
		)},
		workflow.Step{ID: "review", Label: "Review & send"},
	))

	return Definition{
		Name:        InterviewSetupName,
		Title:       "Create interview",
		Description: "Import candidates, describe the job and send invitations.",
		Schema:      schema,
		Defaults: func() map[string]any {
			return map[string]any{
				"candidates": candidates.List{},
				"job":        map[string]any{"title": "", "interview_type": "", "questions": []any{}},
			}
		},
	}
}

// CandidateInterview is the interview a candidate takes. Candidates may
// decline at any point, which redirects them away, or end early, which jumps
// to the thank-you page after confirmation.
func CandidateInterview() Definition {
	schema := mustSchema(workflow.NewSchema(CandidateInterviewName,
		[]string{"candidate", "consent", "device", "answers"},
		workflow.Phase{ID: "intro", Name: "Introduction", Steps: []workflow.Step{
			{ID: "welcome", Label: "Welcome"},
			{ID: "consent", Label: "Consent", Valid: workflow.IsTrue("consent", "accepted")},
		}},
		workflow.Phase{ID: "setup", Name: "Setup", Steps: []workflow.Step{
			{ID: "device-check", Label: "Camera & microphone", Valid: workflow.All(
				workflow.IsTrue("device", "camera_ok"),
				workflow.IsTrue("device", "microphone_ok"),
			)},
		}},
		workflow.Phase{ID: "interview", Name: "Interview", Steps: []workflow.Step{
			{ID: "answers", Label: "Questions", Valid: workflow.MinItems("answers", "items", 1)},
		}},
		workflow.Phase{ID: "wrap-up", Name: "Wrap-up", Steps: []workflow.Step{
			{ID: "thank-you", Label: "Thank you"},
		}},
	))

	return Definition{
		Name:        CandidateInterviewName,
		Title:       "Candidate interview",
		Description: "The interview flow a candidate goes through.",
		Schema:      schema,
		Defaults: func() map[string]any {
			return map[string]any{
				"candidate": map[string]any{"name": "", "email": ""},
				"consent":   map[string]any{"accepted": false},
				"device":    map[string]any{"camera_ok": false, "microphone_ok": false},
				"answers":   map[string]any{"items": []any{}},
			}
		},
		Branches: func(h Hooks) map[workflow.BranchEvent]workflow.BranchHandler {
			return map[workflow.BranchEvent]workflow.BranchHandler{
				workflow.BranchDecline:  declineHandler(h),
				workflow.BranchEndEarly: endEarlyHandler(h),
			}
		},
	}
}

func declineHandler(h Hooks) workflow.BranchHandler {
	return func(_ *workflow.Controller, _ workflow.BranchEvent) error {
		if h.Redirect == nil {
			return ErrNoRedirect
		}
		return h.Redirect(h.DeclineURL)
	}
}

// endEarlyHandler jumps to the wrap-up step once the candidate confirms. An
// unconfirmed request leaves the interview where it is.
func endEarlyHandler(h Hooks) workflow.BranchHandler {
	return func(c *workflow.Controller, _ workflow.BranchEvent) error {
		if !h.confirm(EndEarlyPrompt) {
			return nil
		}
		pos, ok := c.Schema().Locate("wrap-up", "thank-you")
		if !ok {
			return fmt.Errorf("%w: wrap-up/thank-you", workflow.ErrPositionOutOfRange)
		}
		return c.JumpTo(pos)
	}
}
