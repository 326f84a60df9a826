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

type getListMembershipHandler struct {
	logger  *logrus.Logger
	service engine.Service
	kind    list.Kind
}

func NewGetListMembershipHandler(logger *logrus.Logger, service engine.Service, kind list.Kind) Handler {
	return &getListMembershipHandler{
		logger:  logger,
		service: service,
		kind:    kind,
	}
}

// Handle @Summary Check list membership of an actor
// @Tags Lists
// @Param Authorization header string true "Authorization token"
// @Param actor_id path int true "Actor ID"
// @Produce json
// @Success 200 {object} response.MembershipOutput "Membership"
// @Router /api/v1/blacklist/{actor_id} [get]
// @Router /api/v1/whitelist/{actor_id} [get]
func (h *getListMembershipHandler) Handle(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return badRequest(c, err)
	}
	member, err := h.isMember(c.Context(), actorID)
	if err != nil {
		return handleEngineError(c, h.logger, "is_"+string(h.kind)+"ed", err)
	}
	return c.Status(fiber.StatusOK).JSON(response.MembershipOutput{
		List:    h.kind,
		ActorID: actorID,
		Member:  member,
	})
}

func (h *getListMembershipHandler) isMember(ctx context.Context, id actor.ID) (bool, error) {
	switch h.kind {
	case list.Blacklist:
		return h.service.IsBlacklisted(ctx, id)
	case list.Whitelist:
		return h.service.IsWhitelisted(ctx, id)
	default:
		return false, fmt.Errorf("unsupported list %q", h.kind)
	}
}
