package http

import (
	"context"
	"fmt"

	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
	"github.com/NeuralTrust/AltGuard/pkg/engine"
	"github.com/NeuralTrust/AltGuard/pkg/handlers/http/response"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type removeListEntryHandler struct {
	logger  *logrus.Logger
	service engine.Service
	kind    list.Kind
}

func NewRemoveListEntryHandler(logger *logrus.Logger, service engine.Service, kind list.Kind) Handler {
	return &removeListEntryHandler{
		logger:  logger,
		service: service,
		kind:    kind,
	}
}

// Handle @Summary Remove an actor from the blacklist or whitelist
// @Tags Lists
// @Param Authorization header string true "Authorization token"
// @Param actor_id path int true "Actor ID"
// @Produce json
// @Success 200 {object} response.RemovedOutput "Removal result"
// @Router /api/v1/blacklist/{actor_id} [delete]
// @Router /api/v1/whitelist/{actor_id} [delete]
func (h *removeListEntryHandler) Handle(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return badRequest(c, err)
	}
	removed, err := h.remove(c.Context(), actorID)
	if err != nil {
		return handleEngineError(c, h.logger, "remove_"+string(h.kind), err)
	}
	if removed {
		h.logger.WithFields(logrus.Fields{
			"actor_id": actorID,
			"list":     h.kind,
			"by":       adminSubject(c),
		}).Info("actor removed from list")
	}
	return c.Status(fiber.StatusOK).JSON(response.RemovedOutput{
		List:    h.kind,
		ActorID: actorID,
		Removed: removed,
	})
}

func (h *removeListEntryHandler) remove(ctx context.Context, id actor.ID) (bool, error) {
	switch h.kind {
	case list.Blacklist:
		return h.service.RemoveFromBlacklist(ctx, id)
	case list.Whitelist:
		return h.service.RemoveFromWhitelist(ctx, id)
	default:
		return false, fmt.Errorf("unsupported list %q", h.kind)
	}
}
