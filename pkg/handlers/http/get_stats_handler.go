package http

import (
	"github.com/NeuralTrust/AltGuard/pkg/engine"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type getStatsHandler struct {
	logger  *logrus.Logger
	service engine.Service
}

func NewGetStatsHandler(logger *logrus.Logger, service engine.Service) Handler {
	return &getStatsHandler{
		logger:  logger,
		service: service,
	}
}

// Handle @Summary System-wide risk statistics
// @Tags System
// @Param Authorization header string true "Authorization token"
// @Produce json
// @Success 200 {object} engine.SystemStats "Stats"
// @Router /api/v1/stats [get]
func (h *getStatsHandler) Handle(c *fiber.Ctx) error {
	stats, err := h.service.SystemStats(c.Context())
	if err != nil {
		return handleEngineError(c, h.logger, "system_stats", err)
	}
	return c.Status(fiber.StatusOK).JSON(stats)
}
