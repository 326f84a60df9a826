package router

import (
	"errors"

	handlers "github.com/NeuralTrust/AltGuard/pkg/handlers/http"
	"github.com/NeuralTrust/AltGuard/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

var (
	ErrInvalidHandlerTransport = errors.New("invalid handler transport")
)

type adminRouter struct {
	middlewareTransport *middleware.Transport
	handlerTransport    *handlers.HandlerTransport
}

func NewAdminRouter(
	middlewareTransport *middleware.Transport,
	handlerTransport *handlers.HandlerTransport,
) ServerRouter {
	return &adminRouter{
		middlewareTransport: middlewareTransport,
		handlerTransport:    handlerTransport,
	}
}

func (r *adminRouter) BuildRoutes(router *fiber.App) error {
	h := r.handlerTransport
	if h == nil || r.middlewareTransport == nil {
		return ErrInvalidHandlerTransport
	}
	mw := r.middlewareTransport

	router.Use(mw.TraceMiddleware.Middleware(), mw.RecoverMiddleware.Middleware())

	router.Get("/version", h.GetVersionHandler.Handle)

	v1 := router.Group("/api/v1", mw.AuthMiddleware.Middleware())
	{
		actors := v1.Group("/actors/:actor_id")
		{
			actors.Get("", h.GetActorHandler.Handle)
			actors.Put("/identity", h.ObserveIdentityHandler.Handle)
			actors.Post("/failures", h.RecordFailureHandler.Handle)
			actors.Post("/activities", h.ReportActivityHandler.Handle)

			actions := actors.Group("/actions/:action")
			{
				actions.Post("/check", h.CheckActionHandler.Handle)
				actions.Post("/success", h.RecordSuccessHandler.Handle)
			}
		}

		blacklist := v1.Group("/blacklist")
		{
			blacklist.Get("", h.ListBlacklistHandler.Handle)
			blacklist.Get("/:actor_id", h.GetBlacklistHandler.Handle)
			blacklist.Put("/:actor_id", h.AddBlacklistHandler.Handle)
			blacklist.Delete("/:actor_id", h.RemoveBlacklistHandler.Handle)
		}

		whitelist := v1.Group("/whitelist")
		{
			whitelist.Get("", h.ListWhitelistHandler.Handle)
			whitelist.Get("/:actor_id", h.GetWhitelistHandler.Handle)
			whitelist.Put("/:actor_id", h.AddWhitelistHandler.Handle)
			whitelist.Delete("/:actor_id", h.RemoveWhitelistHandler.Handle)
		}

		v1.Get("/stats", h.GetStatsHandler.Handle)
		v1.Post("/cleanup", h.CleanupHandler.Handle)
	}
	return nil
}
