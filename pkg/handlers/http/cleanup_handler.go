package http

import (
	"github.com/NeuralTrust/AltGuard/pkg/engine"
	"github.com/NeuralTrust/AltGuard/pkg/handlers/http/request"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type cleanupHandler struct {
	logger      *logrus.Logger
	service     engine.Service
	defaultDays int
}

// NewCleanupHandler uses defaultDays when the request omits older_than_days.
func NewCleanupHandler(logger *logrus.Logger, service engine.Service, defaultDays int) Handler {
	return &cleanupHandler{
		logger:      logger,
		service:     service,
		defaultDays: defaultDays,
	}
}

// Handle @Summary Delete old activity and expired cooldowns
// @Tags System
// @Param Authorization header string true "Authorization token"
// @Param request body request.CleanupRequest false "Retention"
// @Produce json
// @Success 200 {object} engine.CleanupResult "Deleted rows"
// @Router /api/v1/cleanup [post]
func (h *cleanupHandler) Handle(c *fiber.Ctx) error {
	var req request.CleanupRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}
	days, err := req.Days(h.defaultDays)
	if err != nil {
		return badRequest(c, err)
	}

	res, err := h.service.Cleanup(c.Context(), days)
	if err != nil {
		return handleEngineError(c, h.logger, "cleanup", err)
	}
	h.logger.WithFields(logrus.Fields{
		"older_than_days":    days,
		"activities_deleted": res.ActivitiesDeleted,
		"cooldowns_deleted":  res.CooldownsDeleted,
		"by":                 adminSubject(c),
	}).Info("cleanup completed")
	return c.Status(fiber.StatusOK).JSON(res)
}
