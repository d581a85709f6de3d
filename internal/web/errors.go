package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"recruitflow/internal/catalog"
	"recruitflow/internal/session"
	"recruitflow/internal/workflow"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, typ, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(typ).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleSessionError maps store and controller errors to problem responses.
func handleSessionError(c fiber.Ctx, err error) error {
	var rejected *workflow.RejectedError

	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return notFound(c, "session_not_found", "session not found")

	case errors.Is(err, catalog.ErrUnknownWorkflow):
		return notFound(c, "workflow_not_found", err.Error())

	case errors.As(err, &rejected):
		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("step_invalid").
			WithDetail(rejected.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	case workflow.IsContractViolation(err), errors.Is(err, errNotObjectSection),
		errors.Is(err, session.ErrNotComplete):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("contract_violation").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	default:
		return internalError(c, err)
	}
}
