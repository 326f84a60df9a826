package middleware

import "github.com/gofiber/fiber/v2"

type Middleware interface {
	Middleware() fiber.Handler
}

// Transport groups the middlewares mounted by the admin server, in order.
type Transport struct {
	TraceMiddleware   Middleware
	RecoverMiddleware Middleware
	AuthMiddleware    Middleware
}
