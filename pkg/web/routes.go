package web

import "github.com/gofiber/fiber/v3"

// RegisterRoutes mounts the API on router.
func RegisterRoutes(router fiber.Router, h *APIHandlers) {
	router.Get("/health", h.HealthCheck)

	router.Get("/process", h.Process)
	router.Post("/process", h.Process)

	router.Post("/enrollments", h.Enroll)
	router.Get("/jobs/:id", h.GetJob)
	router.Get("/leads/:id/jobs", h.GetLeadJobs)

	router.Post("/flows/:id/validate", h.ValidateFlow)
}
