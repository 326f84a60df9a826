package http

import "github.com/gofiber/fiber/v2"

type Handler interface {
	Handle(ctx *fiber.Ctx) error
}

type HandlerTransport struct {
	// Actions
	CheckActionHandler   Handler
	RecordSuccessHandler Handler
	RecordFailureHandler Handler

	// Actors
	ReportActivityHandler  Handler
	GetActorHandler        Handler
	ObserveIdentityHandler Handler

	// Blacklist
	ListBlacklistHandler   Handler
	GetBlacklistHandler    Handler
	AddBlacklistHandler    Handler
	RemoveBlacklistHandler Handler

	// Whitelist
	ListWhitelistHandler   Handler
	GetWhitelistHandler    Handler
	AddWhitelistHandler    Handler
	RemoveWhitelistHandler Handler

	// System
	GetStatsHandler   Handler
	CleanupHandler    Handler
	GetVersionHandler Handler
}
