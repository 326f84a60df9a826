package http

import (
	"github.com/NeuralTrust/AltGuard/pkg/engine"
	"github.com/NeuralTrust/AltGuard/pkg/handlers/http/request"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type recordFailureHandler struct {
	logger  *logrus.Logger
	service engine.Service
}

func NewRecordFailureHandler(logger *logrus.Logger, service engine.Service) Handler {
	return &recordFailureHandler{
		logger:  logger,
		service: service,
	}
}

// Handle @Summary Record a failed action attempt
// @Tags Actions
// @Param Authorization header string true "Authorization token"
// @Param actor_id path int true "Actor ID"
// @Param request body request.RecordFailureRequest true "Failure"
// @Success 204
// @Router /api/v1/actors/{actor_id}/failures [post]
func (h *recordFailureHandler) Handle(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return badRequest(c, err)
	}
	var req request.RecordFailureRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err)
	}
	if err := h.service.RecordFailure(c.Context(), actorID, req.Reason); err != nil {
		return handleEngineError(c, h.logger, "record_failure", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
