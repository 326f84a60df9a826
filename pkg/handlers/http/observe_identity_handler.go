package http

import (
	"github.com/NeuralTrust/AltGuard/pkg/engine"
	"github.com/NeuralTrust/AltGuard/pkg/handlers/http/request"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type observeIdentityHandler struct {
	logger  *logrus.Logger
	service engine.Service
}

func NewObserveIdentityHandler(logger *logrus.Logger, service engine.Service) Handler {
	return &observeIdentityHandler{
		logger:  logger,
		service: service,
	}
}

// Handle @Summary Attach host-observed identity facts to an actor
// @Tags Actors
// @Param Authorization header string true "Authorization token"
// @Param actor_id path int true "Actor ID"
// @Param request body request.ObserveIdentityRequest true "Identity facts"
// @Produce json
// @Success 200 {object} fingerprint.Fingerprint "Fingerprint"
// @Router /api/v1/actors/{actor_id}/identity [put]
func (h *observeIdentityHandler) Handle(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return badRequest(c, err)
	}
	var req request.ObserveIdentityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	facts, err := req.Facts()
	if err != nil {
		return badRequest(c, err)
	}

	f, err := h.service.Observe(c.Context(), actorID, facts)
	if err != nil {
		return handleEngineError(c, h.logger, "observe", err)
	}
	return c.Status(fiber.StatusOK).JSON(f)
}
