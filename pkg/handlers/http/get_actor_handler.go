package http

import (
	"github.com/NeuralTrust/AltGuard/pkg/engine"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type getActorHandler struct {
	logger  *logrus.Logger
	service engine.Service
}

func NewGetActorHandler(logger *logrus.Logger, service engine.Service) Handler {
	return &getActorHandler{
		logger:  logger,
		service: service,
	}
}

// Handle @Summary Retrieve an actor snapshot
// @Tags Actors
// @Param Authorization header string true "Authorization token"
// @Param actor_id path int true "Actor ID"
// @Produce json
// @Success 200 {object} engine.Snapshot "Snapshot"
// @Failure 404 {object} map[string]interface{} "Actor not found"
// @Router /api/v1/actors/{actor_id} [get]
func (h *getActorHandler) Handle(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return badRequest(c, err)
	}
	snap, found, err := h.service.Stats(c.Context(), actorID)
	if err != nil {
		return handleEngineError(c, h.logger, "stats", err)
	}
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "actor not found"})
	}
	return c.Status(fiber.StatusOK).JSON(snap)
}
