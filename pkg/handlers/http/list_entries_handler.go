package http

import (
	"context"
	"fmt"

	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
	"github.com/NeuralTrust/AltGuard/pkg/engine"
	"github.com/NeuralTrust/AltGuard/pkg/handlers/http/response"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type listEntriesHandler struct {
	logger  *logrus.Logger
	service engine.Service
	kind    list.Kind
}

func NewListEntriesHandler(logger *logrus.Logger, service engine.Service, kind list.Kind) Handler {
	return &listEntriesHandler{
		logger:  logger,
		service: service,
		kind:    kind,
	}
}

// Handle @Summary List blacklist or whitelist entries
// @Tags Lists
// @Param Authorization header string true "Authorization token"
// @Produce json
// @Success 200 {object} response.ListEntriesOutput "Entries"
// @Router /api/v1/blacklist [get]
// @Router /api/v1/whitelist [get]
func (h *listEntriesHandler) Handle(c *fiber.Ctx) error {
	entries, err := h.entries(c.Context())
	if err != nil {
		return handleEngineError(c, h.logger, "list_"+string(h.kind), err)
	}
	return c.Status(fiber.StatusOK).JSON(response.NewListEntriesOutput(h.kind, entries))
}

func (h *listEntriesHandler) entries(ctx context.Context) ([]list.Entry, error) {
	switch h.kind {
	case list.Blacklist:
		return h.service.ListBlacklist(ctx)
	case list.Whitelist:
		return h.service.ListWhitelist(ctx)
	default:
		return nil, fmt.Errorf("unsupported list %q", h.kind)
	}
}
