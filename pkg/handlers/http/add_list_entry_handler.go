package http

import (
	"context"
	"fmt"
	"strings"

	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
	"github.com/NeuralTrust/AltGuard/pkg/engine"
	"github.com/NeuralTrust/AltGuard/pkg/handlers/http/request"
	"github.com/NeuralTrust/AltGuard/pkg/handlers/http/response"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type addListEntryHandler struct {
	logger  *logrus.Logger
	service engine.Service
	kind    list.Kind
}

func NewAddListEntryHandler(logger *logrus.Logger, service engine.Service, kind list.Kind) Handler {
	return &addListEntryHandler{
		logger:  logger,
		service: service,
		kind:    kind,
	}
}

// Handle @Summary Add an actor to the blacklist or whitelist
// @Description added_by defaults to the subject of the admin token.
// @Tags Lists
// @Param Authorization header string true "Authorization token"
// @Param actor_id path int true "Actor ID"
// @Param request body request.ListEntryRequest true "Entry"
// @Produce json
// @Success 200 {object} response.MembershipOutput "Membership"
// @Router /api/v1/blacklist/{actor_id} [put]
// @Router /api/v1/whitelist/{actor_id} [put]
func (h *addListEntryHandler) Handle(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return badRequest(c, err)
	}
	var req request.ListEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err)
	}
	addedBy := strings.TrimSpace(req.AddedBy)
	if addedBy == "" {
		addedBy = adminSubject(c)
	}

	if err := h.add(c.Context(), actorID, req.Reason, addedBy); err != nil {
		return handleEngineError(c, h.logger, "add_"+string(h.kind), err)
	}
	h.logger.WithFields(logrus.Fields{
		"actor_id": actorID,
		"list":     h.kind,
		"added_by": addedBy,
	}).Info("actor added to list")
	return c.Status(fiber.StatusOK).JSON(response.MembershipOutput{
		List:    h.kind,
		ActorID: actorID,
		Member:  true,
	})
}

func (h *addListEntryHandler) add(ctx context.Context, id actor.ID, reason, addedBy string) error {
	switch h.kind {
	case list.Blacklist:
		return h.service.Blacklist(ctx, id, reason, addedBy)
	case list.Whitelist:
		return h.service.Whitelist(ctx, id, reason, addedBy)
	default:
		return fmt.Errorf("unsupported list %q", h.kind)
	}
}
