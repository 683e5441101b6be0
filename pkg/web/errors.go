package web

import (
	"errors"

	"github.com/dukex/leadflow/pkg/engine"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, problemType, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

// handleServiceError maps service and store errors to problem responses.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidRequest), errors.Is(err, engine.ErrInvalidEnrollment):
		return badRequest(c, err.Error())

	case persistence.IsFlowNotFound(err):
		return notFound(c, "flow_not_found", "flow not found")

	case persistence.IsLeadNotFound(err):
		return notFound(c, "lead_not_found", "lead not found")

	case persistence.IsJobNotFound(err):
		return notFound(c, "job_not_found", "job not found")

	case engine.IsNodeNotFound(err):
		return notFound(c, "node_not_found", "node not found")

	case errors.Is(err, engine.ErrNoEntryNode):
		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("invalid_flow").
			WithDetail(err.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	case persistence.IsStoreUnavailable(err):
		problem := problems.NewStatusProblem(503).
			WithInstance(c.Path()).
			WithType("store_unavailable").
			WithDetail("store unavailable")

		return c.Status(fiber.StatusServiceUnavailable).JSON(problem)

	default:
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("internal_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}
}
