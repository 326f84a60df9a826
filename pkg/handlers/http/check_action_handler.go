package http

import (
	"github.com/NeuralTrust/AltGuard/pkg/engine"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type checkActionHandler struct {
	logger  *logrus.Logger
	service engine.Service
}

func NewCheckActionHandler(logger *logrus.Logger, service engine.Service) Handler {
	return &checkActionHandler{
		logger:  logger,
		service: service,
	}
}

// Handle @Summary Check whether an actor may perform an action
// @Tags Actions
// @Param Authorization header string true "Authorization token"
// @Param actor_id path int true "Actor ID"
// @Param action path string true "Action"
// @Produce json
// @Success 200 {object} engine.Decision "Decision"
// @Failure 400 {object} map[string]interface{} "Invalid input"
// @Router /api/v1/actors/{actor_id}/actions/{action}/check [post]
func (h *checkActionHandler) Handle(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return badRequest(c, err)
	}
	action := c.Params("action")

	decision, err := h.service.CanPerform(c.Context(), actorID, action)
	if err != nil {
		return handleEngineError(c, h.logger, "can_perform", err)
	}
	if !decision.Allowed {
		h.logger.WithFields(logrus.Fields{
			"actor_id": actorID,
			"action":   action,
			"reason":   decision.Reason,
		}).Debug("action denied")
	}
	return c.Status(fiber.StatusOK).JSON(decision)
}
