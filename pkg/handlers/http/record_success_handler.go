package http

import (
	"github.com/NeuralTrust/AltGuard/pkg/engine"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type recordSuccessHandler struct {
	logger  *logrus.Logger
	service engine.Service
}

func NewRecordSuccessHandler(logger *logrus.Logger, service engine.Service) Handler {
	return &recordSuccessHandler{
		logger:  logger,
		service: service,
	}
}

// Handle @Summary Record a completed action and start its cooldown
// @Tags Actions
// @Param Authorization header string true "Authorization token"
// @Param actor_id path int true "Actor ID"
// @Param action path string true "Action"
// @Produce json
// @Success 200 {object} cooldown.Cooldown "Cooldown"
// @Router /api/v1/actors/{actor_id}/actions/{action}/success [post]
func (h *recordSuccessHandler) Handle(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return badRequest(c, err)
	}
	cd, err := h.service.RecordSuccess(c.Context(), actorID, c.Params("action"))
	if err != nil {
		return handleEngineError(c, h.logger, "record_success", err)
	}
	return c.Status(fiber.StatusOK).JSON(cd)
}
