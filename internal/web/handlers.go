package web

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"recruitflow/internal/candidates"
	"recruitflow/internal/catalog"
	"recruitflow/internal/session"
	"recruitflow/internal/workflow"
)

// errNotObjectSection is returned when PATCH targets a section that does not
// hold an object.
var errNotObjectSection = errors.New("section is not an object")

// candidatesSection is the document section imports are written to.
const candidatesSection = "candidates"

type APIHandlers struct {
	store     *session.Store
	registry  *catalog.Registry
	importer  *candidates.Importer
	validator *validator.Validate
	logger    *slog.Logger
}

func NewAPIHandlers(
	store *session.Store,
	registry *catalog.Registry,
	importer *candidates.Importer,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &APIHandlers{
		store:     store,
		registry:  registry,
		importer:  importer,
		validator: validator,
		logger:    logger,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	defs := h.registry.Definitions()
	workflows := make([]WorkflowResponse, 0, len(defs))
	for _, def := range defs {
		workflows = append(workflows, newWorkflowResponse(def))
	}

	return c.JSON(fiber.Map{
		"workflows":   workflows,
		"total_count": len(workflows),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	def, err := h.registry.Get(c.Params("name"))
	if err != nil {
		return handleSessionError(c, err)
	}

	return c.JSON(newWorkflowResponse(def))
}

func (h *APIHandlers) CreateSession(c fiber.Ctx) error {
	var req CreateSessionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	view, err := h.store.Create(req.Workflow)
	if err != nil {
		return handleSessionError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(view)
}

func (h *APIHandlers) ListSessions(c fiber.Ctx) error {
	views := h.store.List()

	return c.JSON(fiber.Map{
		"sessions":    views,
		"total_count": len(views),
	})
}

func (h *APIHandlers) GetSession(c fiber.Ctx) error {
	view, err := h.store.Get(c.Params("id"))
	if err != nil {
		return handleSessionError(c, err)
	}

	return c.JSON(view)
}

func (h *APIHandlers) DeleteSession(c fiber.Ctx) error {
	if err := h.store.Delete(c.Params("id")); err != nil {
		return handleSessionError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ResetSession(c fiber.Ctx) error {
	view, err := h.store.Reset(c.Params("id"))
	if err != nil {
		return handleSessionError(c, err)
	}

	return c.JSON(view)
}

func (h *APIHandlers) UpdateSection(c fiber.Ctx) error {
	var req UpdateSectionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	section := c.Params("section")
	view, err := h.store.Do(c.Context(), c.Params("id"), func(ctrl *workflow.Controller) error {
		doc := ctrl.Document()
		if doc.Has(section) && doc.Object(section) == nil {
			return fmt.Errorf("%w: %s", errNotObjectSection, section)
		}
		return ctrl.UpdateSection(section, req.Fields)
	})
	if err != nil {
		return handleSessionError(c, err)
	}

	return c.JSON(view)
}

func (h *APIHandlers) ImportCandidates(c fiber.Ctx) error {
	var req ImportCandidatesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	// Fail fast on an unknown session before touching the ATS.
	if _, err := h.store.Get(c.Params("id")); err != nil {
		return handleSessionError(c, err)
	}

	list, err := h.importer.Import(c.Context(), candidates.Format(req.Format), req.Data, req.Provider)
	if err != nil {
		h.logger.Warn("candidate import failed", "format", req.Format, "provider", req.Provider, "error", err)
		return badRequest(c, err.Error())
	}

	view, err := h.store.Do(c.Context(), c.Params("id"), func(ctrl *workflow.Controller) error {
		return ctrl.UpdateSection(candidatesSection, list)
	})
	if err != nil {
		return handleSessionError(c, err)
	}

	return c.JSON(fiber.Map{
		"session": view,
		"import":  candidates.Summarize(list),
	})
}

func (h *APIHandlers) Advance(c fiber.Ctx) error {
	return h.do(c, (*workflow.Controller).Advance)
}

func (h *APIHandlers) Retreat(c fiber.Ctx) error {
	return h.do(c, (*workflow.Controller).Retreat)
}

func (h *APIHandlers) Skip(c fiber.Ctx) error {
	return h.do(c, (*workflow.Controller).SkipPhase)
}

func (h *APIHandlers) RaiseBranch(c fiber.Ctx) error {
	var req BranchRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	event := workflow.BranchEvent(c.Params("event"))
	return h.do(c, func(ctrl *workflow.Controller) error {
		return ctrl.RaiseBranch(event)
	}, session.Confirmed(req.Confirmed))
}

// Submit retries handing a completed session's document to the submitter.
func (h *APIHandlers) Submit(c fiber.Ctx) error {
	view, err := h.store.Submit(c.Context(), c.Params("id"))
	if err != nil {
		return handleSessionError(c, err)
	}

	return c.JSON(view)
}

func (h *APIHandlers) do(c fiber.Ctx, fn func(*workflow.Controller) error, opts ...session.DoOption) error {
	view, err := h.store.Do(c.Context(), c.Params("id"), fn, opts...)
	if err != nil {
		return handleSessionError(c, err)
	}

	return c.JSON(view)
}
