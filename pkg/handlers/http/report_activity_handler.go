package http

import (
	"github.com/NeuralTrust/AltGuard/pkg/engine"
	"github.com/NeuralTrust/AltGuard/pkg/handlers/http/request"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type reportActivityHandler struct {
	logger  *logrus.Logger
	service engine.Service
}

func NewReportActivityHandler(logger *logrus.Logger, service engine.Service) Handler {
	return &reportActivityHandler{
		logger:  logger,
		service: service,
	}
}

// Handle @Summary Report suspicious activity for an actor
// @Tags Actors
// @Param Authorization header string true "Authorization token"
// @Param actor_id path int true "Actor ID"
// @Param request body request.ReportActivityRequest true "Activity"
// @Success 201 {object} activity.SuspiciousActivity "Recorded activity"
// @Router /api/v1/actors/{actor_id}/activities [post]
func (h *reportActivityHandler) Handle(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return badRequest(c, err)
	}
	var req request.ReportActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	activityType, err := req.Validate()
	if err != nil {
		return badRequest(c, err)
	}

	recorded, err := h.service.ReportActivity(c.Context(), actorID, activityType, req.Details)
	if err != nil {
		return handleEngineError(c, h.logger, "report_activity", err)
	}
	h.logger.WithFields(logrus.Fields{
		"actor_id": actorID,
		"type":     activityType,
		"by":       adminSubject(c),
	}).Info("suspicious activity reported")
	return c.Status(fiber.StatusCreated).JSON(recorded)
}
