package http

import (
	"errors"

	"github.com/NeuralTrust/AltGuard/pkg/common"
	"github.com/NeuralTrust/AltGuard/pkg/domain/activity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	"github.com/NeuralTrust/AltGuard/pkg/domain/identity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
	"github.com/NeuralTrust/AltGuard/pkg/engine"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// inputErrors are engine errors caused by the caller rather than the store.
var inputErrors = []error{
	actor.ErrInvalidActorID,
	actor.ErrInvalidAction,
	list.ErrInvalidReason,
	identity.ErrInvalidFacts,
	activity.ErrUnknownActivityType,
	engine.ErrInvalidRetention,
}

func isInputError(err error) bool {
	for _, target := range inputErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func handleEngineError(c *fiber.Ctx, logger *logrus.Logger, op string, err error) error {
	if isInputError(err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	logger.WithFields(logrus.Fields{
		"op":       op,
		"path":     c.Path(),
		"trace_id": c.Locals(common.TraceIdKey),
	}).WithError(err).Error("engine operation failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

func parseActorID(c *fiber.Ctx) (actor.ID, error) {
	return actor.ParseID(c.Params("actor_id"))
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}

// adminSubject is the token subject set by the auth middleware, or the
// system identity when the route is mounted without auth.
func adminSubject(c *fiber.Ctx) string {
	if subject, ok := c.Locals(common.AdminSubject).(string); ok && subject != "" {
		return subject
	}
	return common.SystemAddedBy
}
