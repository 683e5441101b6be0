// Package web provides the HTTP handlers of the leadflow API.
package web

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/dukex/leadflow/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	queueService *services.Queue
	flowService  *services.Flow
	validator    *validator.Validate
	logger       *slog.Logger
}

func NewAPIHandlers(
	logger *slog.Logger,
	queueService *services.Queue,
	flowService *services.Flow,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		queueService: queueService,
		flowService:  flowService,
		validator:    validator,
		logger:       logger.With("module", "web"),
	}
}

// Process runs one batch of due jobs. It answers GET and POST so that any
// scheduler able to hit a URL can drive it. An invalid limit falls back to
// the default batch size.
func (h *APIHandlers) Process(c fiber.Ctx) error {
	limit, _ := strconv.Atoi(strings.TrimSpace(c.Query("limit")))

	result, err := h.queueService.Process(c.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(c.Context(), "Batch processing failed", "error", err)

		return c.Status(fiber.StatusInternalServerError).JSON(ProcessErrorResponse{
			OK:    false,
			Error: err.Error(),
		})
	}

	return c.JSON(ProcessResponse{
		OK:        true,
		Now:       result.Now,
		Found:     result.Found,
		Processed: result.Processed,
		Failed:    result.Failed,
		Skipped:   result.Skipped,
	})
}

func (h *APIHandlers) Enroll(c fiber.Ctx) error {
	var req EnrollRequest

	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	job, created, err := h.queueService.Enroll(c.Context(), services.EnrollRequest{
		FlowID:  req.FlowID,
		LeadID:  req.LeadID,
		OwnerID: req.OwnerID,
		ListID:  req.ListID,
		NodeID:  req.NodeID,
		RunAt:   req.RunAt,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}

	return c.Status(status).JSON(EnrollResponse{Job: job, Created: created})
}

func (h *APIHandlers) GetJob(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "job ID is required")
	}

	job, err := h.queueService.Job(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(job)
}

func (h *APIHandlers) GetLeadJobs(c fiber.Ctx) error {
	leadID := c.Params("id")
	if leadID == "" {
		return badRequest(c, "lead ID is required")
	}

	jobs, err := h.queueService.LeadJobs(c.Context(), leadID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(JobsResponse{LeadID: leadID, Jobs: jobs})
}

func (h *APIHandlers) ValidateFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "flow ID is required")
	}

	report, err := h.flowService.Validate(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	status := fiber.StatusOK
	if !report.Valid {
		status = fiber.StatusUnprocessableEntity
	}

	return c.Status(status).JSON(report)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	message, ok := h.queueService.HealthCheck(c.Context())

	status := fiber.StatusOK
	if !ok {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":  map[bool]string{true: "healthy", false: "unhealthy"}[ok],
		"message": message,
	})
}
