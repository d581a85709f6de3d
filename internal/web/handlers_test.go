package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruitflow/internal/candidates"
	"recruitflow/internal/catalog"
	"recruitflow/internal/document"
	"recruitflow/internal/session"
	"recruitflow/internal/web"
	"recruitflow/internal/workflow"
)

type submissions struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (s *submissions) Submit(_ context.Context, workflowName string, _ document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, workflowName)
	return s.err
}

func (s *submissions) failWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *submissions) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names)
}

func setupTestApp(t *testing.T) (*fiber.App, *submissions) {
	t.Helper()

	registry := catalog.Default()
	sub := &submissions{}
	store := session.NewStore(registry,
		session.WithSubmitter(sub),
		session.WithDeclineURL("https://jobs.example.com/declined"))
	importer := candidates.NewImporter(candidates.NewMockATS(0))
	handlers := web.NewAPIHandlers(store, registry, importer,
		validator.New(validator.WithRequiredStructEnabled()), nil)

	app := fiber.New()
	web.Routes(app, handlers)

	return app, sub
}

func send(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decodeView(t *testing.T, body []byte) session.View {
	t.Helper()

	var view session.View
	require.NoError(t, json.Unmarshal(body, &view), string(body))
	return view
}

func problemType(t *testing.T, body []byte) string {
	t.Helper()

	var problem map[string]any
	require.NoError(t, json.Unmarshal(body, &problem), string(body))
	typ, _ := problem["type"].(string)
	return typ
}

func createSession(t *testing.T, app *fiber.App, name string) session.View {
	t.Helper()

	status, body := send(t, app, http.MethodPost, "/sessions", web.CreateSessionRequest{Workflow: name})
	require.Equal(t, http.StatusCreated, status, string(body))
	return decodeView(t, body)
}

func TestAPIHandlers_GetWorkflows(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := send(t, app, http.MethodGet, "/workflows", nil)
	require.Equal(t, http.StatusOK, status)

	var resp struct {
		Workflows  []web.WorkflowResponse `json:"workflows"`
		TotalCount int                    `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, 3, resp.TotalCount)
	assert.Equal(t, catalog.CandidateInterviewName, resp.Workflows[0].Name)
	assert.Equal(t, []string{"decline", "endEarly"}, resp.Workflows[0].Branches)
}

func TestAPIHandlers_GetWorkflow(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := send(t, app, http.MethodGet, "/workflows/onboarding", nil)
	require.Equal(t, http.StatusOK, status)

	var resp web.WorkflowResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Len(t, resp.Phases, 7)
	assert.True(t, resp.Phases[1].Skippable)

	status, body = send(t, app, http.MethodGet, "/workflows/payroll", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "workflow_not_found", problemType(t, body))
}

func TestAPIHandlers_CreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
		expectedType   string
	}{
		{
			name:           "successful creation",
			requestBody:    web.CreateSessionRequest{Workflow: catalog.OnboardingName},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "validation error - missing workflow",
			requestBody:    web.CreateSessionRequest{},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid-json",
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "unknown workflow",
			requestBody:    web.CreateSessionRequest{Workflow: "payroll"},
			expectedStatus: http.StatusNotFound,
			expectedType:   "workflow_not_found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := setupTestApp(t)

			status, body := send(t, app, http.MethodPost, "/sessions", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, status, string(body))
			if tt.expectedType != "" {
				assert.Equal(t, tt.expectedType, problemType(t, body))
				return
			}
			view := decodeView(t, body)
			assert.NotEmpty(t, view.ID)
			assert.Equal(t, workflow.At(0, 0), view.Position)
			assert.Contains(t, view.Document, "organization")
		})
	}
}

func TestAPIHandlers_SessionNotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	requests := []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/sessions/missing", nil},
		{http.MethodDelete, "/sessions/missing", nil},
		{http.MethodPost, "/sessions/missing/reset", nil},
		{http.MethodPost, "/sessions/missing/advance", nil},
		{http.MethodPost, "/sessions/missing/retreat", nil},
		{http.MethodPost, "/sessions/missing/skip", nil},
		{http.MethodPost, "/sessions/missing/branch/decline", nil},
		{http.MethodPost, "/sessions/missing/submit", nil},
		{http.MethodPatch, "/sessions/missing/sections/job", web.UpdateSectionRequest{Fields: map[string]any{"title": "x"}}},
		{http.MethodPost, "/sessions/missing/candidates", web.ImportCandidatesRequest{Format: "text", Data: "a@b.co"}},
	}

	for _, r := range requests {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			status, body := send(t, app, r.method, r.path, r.body)
			assert.Equal(t, http.StatusNotFound, status)
			assert.Equal(t, "session_not_found", problemType(t, body))
		})
	}
}

func TestAPIHandlers_InterviewSetupFlow(t *testing.T) {
	app, sub := setupTestApp(t)
	view := createSession(t, app, catalog.InterviewSetupName)
	base := "/sessions/" + view.ID

	status, body := send(t, app, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "step_invalid", problemType(t, body))

	status, body = send(t, app, http.MethodPost, base+"/candidates", web.ImportCandidatesRequest{
		Format: "text",
		Data:   "Ada Lovelace ada@example.com\nnot-an-email\n",
	})
	require.Equal(t, http.StatusOK, status, string(body))
	var imported struct {
		Session session.View       `json:"session"`
		Import  candidates.Summary `json:"import"`
	}
	require.NoError(t, json.Unmarshal(body, &imported))
	assert.Equal(t, candidates.Summary{Total: 2, Valid: 1, Invalid: 1}, imported.Import)

	status, body = send(t, app, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, workflow.At(0, 1), decodeView(t, body).Position)

	status, body = send(t, app, http.MethodPatch, base+"/sections/job", web.UpdateSectionRequest{Fields: map[string]any{
		"title":          "Backend Engineer",
		"interview_type": "async-video",
		"questions":      []string{"Why us?", "Hardest bug?", "Questions for us?"},
	}})
	require.Equal(t, http.StatusOK, status, string(body))

	status, _ = send(t, app, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, status)

	status, body = send(t, app, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	final := decodeView(t, body)
	assert.True(t, final.Position.Complete)
	assert.True(t, final.Submitted)
	assert.Nil(t, final.Step)
	assert.Equal(t, []string{catalog.InterviewSetupName}, sub.names)

	status, body = send(t, app, http.MethodPost, base+"/retreat", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "contract_violation", problemType(t, body))
}

func TestAPIHandlers_UpdateSection(t *testing.T) {
	tests := []struct {
		name           string
		section        string
		requestBody    any
		expectedStatus int
		expectedType   string
	}{
		{"object section", "job", web.UpdateSectionRequest{Fields: map[string]any{"title": "SRE"}}, http.StatusOK, ""},
		{"list section", "candidates", web.UpdateSectionRequest{Fields: map[string]any{"email": "x"}}, http.StatusConflict, "contract_violation"},
		{"unknown section", "payroll", web.UpdateSectionRequest{Fields: map[string]any{"x": 1}}, http.StatusConflict, "contract_violation"},
		{"missing fields", "job", map[string]any{}, http.StatusBadRequest, "validation_error"},
		{"invalid JSON", "job", "{", http.StatusBadRequest, "validation_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := setupTestApp(t)
			view := createSession(t, app, catalog.InterviewSetupName)

			status, body := send(t, app, http.MethodPatch, "/sessions/"+view.ID+"/sections/"+tt.section, tt.requestBody)

			assert.Equal(t, tt.expectedStatus, status, string(body))
			if tt.expectedType != "" {
				assert.Equal(t, tt.expectedType, problemType(t, body))
				return
			}
			job, ok := decodeView(t, body).Document["job"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "SRE", job["title"])
			assert.Contains(t, job, "interview_type", "merge keeps other fields")
		})
	}
}

func TestAPIHandlers_ImportCandidates_Errors(t *testing.T) {
	tests := []struct {
		name string
		body web.ImportCandidatesRequest
	}{
		{"unknown format", web.ImportCandidatesRequest{Format: "xml", Data: "x"}},
		{"text without data", web.ImportCandidatesRequest{Format: "text"}},
		{"ats without provider", web.ImportCandidatesRequest{Format: "ats"}},
		{"unknown provider", web.ImportCandidatesRequest{Format: "ats", Provider: "taleo"}},
		{"csv without email column", web.ImportCandidatesRequest{Format: "csv", Data: "name\nAda\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := setupTestApp(t)
			view := createSession(t, app, catalog.InterviewSetupName)

			status, body := send(t, app, http.MethodPost, "/sessions/"+view.ID+"/candidates", tt.body)

			assert.Equal(t, http.StatusBadRequest, status, string(body))
			assert.Equal(t, "validation_error", problemType(t, body))
		})
	}
}

func TestAPIHandlers_ImportCandidates_ATS(t *testing.T) {
	app, _ := setupTestApp(t)
	view := createSession(t, app, catalog.InterviewSetupName)

	status, body := send(t, app, http.MethodPost, "/sessions/"+view.ID+"/candidates",
		web.ImportCandidatesRequest{Format: "ats", Provider: "greenhouse"})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = send(t, app, http.MethodPost, "/sessions/"+view.ID+"/advance", nil)
	require.Equal(t, http.StatusOK, status, string(body))
}

func TestAPIHandlers_Skip(t *testing.T) {
	app, _ := setupTestApp(t)
	view := createSession(t, app, catalog.OnboardingName)
	base := "/sessions/" + view.ID

	status, body := send(t, app, http.MethodPost, base+"/skip", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "contract_violation", problemType(t, body))

	status, _ = send(t, app, http.MethodPatch, base+"/sections/organization", web.UpdateSectionRequest{
		Fields: map[string]any{"name": "Acme", "industry": "Retail", "size": "11-50"},
	})
	require.Equal(t, http.StatusOK, status)
	for i := 0; i < 2; i++ {
		status, body = send(t, app, http.MethodPost, base+"/advance", nil)
		require.Equal(t, http.StatusOK, status, string(body))
	}

	status, body = send(t, app, http.MethodPost, base+"/skip", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	after := decodeView(t, body)
	assert.Equal(t, workflow.At(2, 0), after.Position)
	assert.Equal(t, []string{"organization", "brand"}, after.Progress.CompletedPhaseIDs)
}

func TestAPIHandlers_RaiseBranch(t *testing.T) {
	tests := []struct {
		name           string
		event          string
		requestBody    any
		expectedStatus int
		check          func(t *testing.T, view session.View)
	}{
		{
			name:           "end early confirmed",
			event:          "endEarly",
			requestBody:    web.BranchRequest{Confirmed: true},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, view session.View) {
				assert.Equal(t, workflow.At(3, 0), view.Position)
			},
		},
		{
			name:           "end early without body",
			event:          "endEarly",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, view session.View) {
				assert.Equal(t, workflow.At(0, 0), view.Position)
			},
		},
		{
			name:           "decline redirects",
			event:          "decline",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, view session.View) {
				assert.Equal(t, "https://jobs.example.com/declined", view.Redirect)
				assert.Equal(t, workflow.At(0, 0), view.Position)
			},
		},
		{
			name:           "unknown event",
			event:          "teleport",
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "invalid JSON",
			event:          "endEarly",
			requestBody:    "{",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := setupTestApp(t)
			view := createSession(t, app, catalog.CandidateInterviewName)

			status, body := send(t, app, http.MethodPost, "/sessions/"+view.ID+"/branch/"+tt.event, tt.requestBody)

			require.Equal(t, tt.expectedStatus, status, string(body))
			if tt.check != nil {
				tt.check(t, decodeView(t, body))
			}
		})
	}
}

func TestAPIHandlers_ResetAndDelete(t *testing.T) {
	app, _ := setupTestApp(t)
	view := createSession(t, app, catalog.CandidateInterviewName)
	base := "/sessions/" + view.ID

	status, _ := send(t, app, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, status)

	status, body := send(t, app, http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, workflow.At(0, 0), decodeView(t, body).Position)

	status, body = send(t, app, http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), view.ID)

	status, _ = send(t, app, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = send(t, app, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_App_HealthEndpoints(t *testing.T) {
	registry := catalog.Default()
	api := web.NewAPI(nil, session.NewStore(registry), registry, candidates.NewImporter(candidates.NewMockATS(0)))
	app := api.App()

	for _, path := range []string{"/livez", "/readyz"} {
		status, _ := send(t, app, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, status, path)
	}

	status, _ := send(t, app, http.MethodGet, "/workflows", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAPIHandlers_SubmitRetry(t *testing.T) {
	app, sub := setupTestApp(t)
	sub.failWith(errors.New("ats unavailable"))
	view := createSession(t, app, catalog.InterviewSetupName)
	base := "/sessions/" + view.ID

	status, body := send(t, app, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusConflict, status, "not complete yet")
	assert.Equal(t, "contract_violation", problemType(t, body))

	status, _ = send(t, app, http.MethodPost, base+"/candidates", web.ImportCandidatesRequest{Format: "text", Data: "ada@example.com"})
	require.Equal(t, http.StatusOK, status)
	status, _ = send(t, app, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = send(t, app, http.MethodPatch, base+"/sections/job", web.UpdateSectionRequest{Fields: map[string]any{
		"title":          "Backend Engineer",
		"interview_type": "live",
		"questions":      []string{"One?", "Two?", "Three?"},
	}})
	require.Equal(t, http.StatusOK, status)
	status, _ = send(t, app, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, status)

	status, body = send(t, app, http.MethodPost, base+"/advance", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", problemType(t, body))

	status, body = send(t, app, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, status)
	stalled := decodeView(t, body)
	assert.True(t, stalled.Position.Complete)
	assert.False(t, stalled.Submitted)

	sub.failWith(nil)
	status, body = send(t, app, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.True(t, decodeView(t, body).Submitted)
	assert.Equal(t, 2, sub.count())

	status, body = send(t, app, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.True(t, decodeView(t, body).Submitted)
	assert.Equal(t, 2, sub.count(), "already submitted")
}
