package middleware

import (
	"github.com/NeuralTrust/AltGuard/pkg/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type traceMiddleware struct{}

// NewTraceMiddleware propagates the caller's X-Trace-Id or assigns a new one.
func NewTraceMiddleware() Middleware {
	return &traceMiddleware{}
}

func (m *traceMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := c.Get(common.TraceIDHeader)
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.NewString()
		}
		c.Locals(common.TraceIdKey, traceID)
		c.Set(common.TraceIDHeader, traceID)
		return c.Next()
	}
}
