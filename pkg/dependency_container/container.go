package dependency_container

import (
	"errors"
	"fmt"

	"github.com/NeuralTrust/AltGuard/pkg/app/retention"
	"github.com/NeuralTrust/AltGuard/pkg/common"
	"github.com/NeuralTrust/AltGuard/pkg/config"
	"github.com/NeuralTrust/AltGuard/pkg/domain/event"
	domainIdentity "github.com/NeuralTrust/AltGuard/pkg/domain/identity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
	"github.com/NeuralTrust/AltGuard/pkg/domain/store"
	"github.com/NeuralTrust/AltGuard/pkg/engine"
	handlers "github.com/NeuralTrust/AltGuard/pkg/handlers/http"
	"github.com/NeuralTrust/AltGuard/pkg/infra/auth/jwt"
	"github.com/NeuralTrust/AltGuard/pkg/infra/cache"
	"github.com/NeuralTrust/AltGuard/pkg/infra/database"
	"github.com/NeuralTrust/AltGuard/pkg/infra/events"
	"github.com/NeuralTrust/AltGuard/pkg/infra/httpx"
	"github.com/NeuralTrust/AltGuard/pkg/infra/identity"
	"github.com/NeuralTrust/AltGuard/pkg/infra/repository"
	"github.com/NeuralTrust/AltGuard/pkg/middleware"
	"github.com/sirupsen/logrus"
)

var ErrDatabaseRequired = errors.New("store.driver=postgres requires a database connection")

type Container struct {
	Cache               cache.Client
	Store               store.Store
	Engine              *engine.Engine
	Publisher           *events.AsyncPublisher
	Listener            *events.Listener
	RetentionScheduler  *retention.Scheduler
	JWTManager          jwt.Manager
	HandlerTransport    *handlers.HandlerTransport
	MiddlewareTransport *middleware.Transport

	kafka *events.KafkaExporter
}

type ContainerDI struct {
	Cfg    *config.Config
	Logger *logrus.Logger
	// DB is only used when store.driver is postgres.
	DB *database.DB
}

func NewContainer(di ContainerDI) (*Container, error) {
	c := &Container{}

	if di.Cfg.NeedsRedis() {
		cacheInstance, err := cache.NewClient(di.Cfg.Redis, di.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cache: %v", err)
		}
		c.Cache = cacheInstance
	}

	st, err := newStore(di, c.Cache)
	if err != nil {
		return nil, err
	}
	c.Store = st

	lookup, err := c.newIdentityLookup(di)
	if err != nil {
		return nil, err
	}

	publisher, err := c.newPublisher(di)
	if err != nil {
		return nil, err
	}
	c.Publisher = events.NewAsyncPublisher(di.Logger, publisher, di.Cfg.Events.QueueSize)
	c.Publisher.StartWorkers(di.Cfg.Events.Workers)

	opts := []engine.Option{
		engine.WithLogger(di.Logger),
		engine.WithPublisher(c.Publisher),
	}
	if lookup != nil {
		opts = append(opts, engine.WithIdentityLookup(lookup))
	}
	c.Engine, err = engine.New(di.Cfg.Engine, st, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	// other instances publish list changes on the same channel
	if di.Cfg.Events.Redis.Enabled {
		c.Listener = events.NewListener(di.Logger, c.Cache, di.Cfg.Server.InstanceID)
		c.Listener.Register(events.NewListSyncSubscriber(c.Engine))
	}

	if di.Cfg.Retention.Enabled {
		c.RetentionScheduler, err = retention.NewScheduler(c.Engine, di.Cfg.Retention, di.Logger)
		if err != nil {
			return nil, err
		}
	}

	c.JWTManager = jwt.NewJwtManager(&di.Cfg.Server)

	c.MiddlewareTransport = &middleware.Transport{
		TraceMiddleware:   middleware.NewTraceMiddleware(),
		RecoverMiddleware: middleware.NewPanicRecoverMiddleware(di.Logger),
		AuthMiddleware:    middleware.NewAdminAuthMiddleware(di.Logger, c.JWTManager),
	}

	c.HandlerTransport = newHandlerTransport(di.Logger, c.Engine, di.Cfg.Retention.OlderThanDays)

	return c, nil
}

func newStore(di ContainerDI, cacheInstance cache.Client) (store.Store, error) {
	switch di.Cfg.Store.Driver {
	case config.StorePostgres:
		if di.DB == nil {
			return nil, ErrDatabaseRequired
		}
		return repository.NewPostgresStore(di.DB.DB), nil
	case config.StoreRedis:
		return repository.NewRedisStore(cacheInstance.RedisClient(), di.Cfg.Store.KeyPrefix), nil
	default:
		return repository.NewMemoryStore(), nil
	}
}

// newIdentityLookup returns nil when identity.mode is none.
func (c *Container) newIdentityLookup(di ContainerDI) (domainIdentity.Lookup, error) {
	switch di.Cfg.Identity.Mode {
	case config.IdentityStatic:
		return identity.NewStaticLookup(nil), nil
	case config.IdentityHTTP:
		httpLookup, err := identity.NewHTTPLookup(
			di.Cfg.Identity.HTTP,
			httpx.NewFastHTTPClient(
				httpx.WithTimeout(di.Cfg.Identity.HTTP.Timeout),
				httpx.WithUserAgent("altguard"),
			),
			di.Logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize identity lookup: %w", err)
		}
		ttl := di.Cfg.Identity.CacheTTL
		if ttl <= 0 {
			ttl = common.IdentityCacheTTL
		}
		var ttlMap *cache.TTLMap
		if c.Cache != nil {
			ttlMap = c.Cache.CreateTTLMap(common.IdentityCacheName, ttl)
		} else {
			ttlMap = cache.NewTTLMap(ttl)
		}
		return identity.NewCachedLookup(httpLookup, ttlMap), nil
	default:
		return nil, nil
	}
}

func (c *Container) newPublisher(di ContainerDI) (event.Publisher, error) {
	var publishers []event.Publisher
	if di.Cfg.Events.Redis.Enabled {
		publishers = append(publishers, events.NewRedisPublisher(
			c.Cache,
			di.Cfg.Events.Redis.Channel,
			di.Cfg.Server.InstanceID,
		))
	}
	if di.Cfg.Events.Kafka.Enabled {
		exporter, err := events.NewKafkaExporter().WithSettings(di.Cfg.Events.Kafka.Settings)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize kafka exporter: %w", err)
		}
		c.kafka = exporter
		publishers = append(publishers, exporter)
	}
	return events.NewMultiPublisher(publishers...), nil
}

func newHandlerTransport(logger *logrus.Logger, service engine.Service, retentionDays int) *handlers.HandlerTransport {
	return &handlers.HandlerTransport{
		// Actions
		CheckActionHandler:   handlers.NewCheckActionHandler(logger, service),
		RecordSuccessHandler: handlers.NewRecordSuccessHandler(logger, service),
		RecordFailureHandler: handlers.NewRecordFailureHandler(logger, service),
		// Actors
		ReportActivityHandler:  handlers.NewReportActivityHandler(logger, service),
		GetActorHandler:        handlers.NewGetActorHandler(logger, service),
		ObserveIdentityHandler: handlers.NewObserveIdentityHandler(logger, service),
		// Blacklist
		ListBlacklistHandler:   handlers.NewListEntriesHandler(logger, service, list.Blacklist),
		GetBlacklistHandler:    handlers.NewGetListMembershipHandler(logger, service, list.Blacklist),
		AddBlacklistHandler:    handlers.NewAddListEntryHandler(logger, service, list.Blacklist),
		RemoveBlacklistHandler: handlers.NewRemoveListEntryHandler(logger, service, list.Blacklist),
		// Whitelist
		ListWhitelistHandler:   handlers.NewListEntriesHandler(logger, service, list.Whitelist),
		GetWhitelistHandler:    handlers.NewGetListMembershipHandler(logger, service, list.Whitelist),
		AddWhitelistHandler:    handlers.NewAddListEntryHandler(logger, service, list.Whitelist),
		RemoveWhitelistHandler: handlers.NewRemoveListEntryHandler(logger, service, list.Whitelist),
		// System
		GetStatsHandler:   handlers.NewGetStatsHandler(logger, service),
		CleanupHandler:    handlers.NewCleanupHandler(logger, service, retentionDays),
		GetVersionHandler: handlers.NewGetVersionHandler(logger),
	}
}

// Close drains queued events and releases the store and cache connections.
func (c *Container) Close() error {
	if c.Publisher != nil {
		c.Publisher.Shutdown()
	}
	if c.kafka != nil {
		c.kafka.Close()
	}
	var errs []error
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	return errors.Join(errs...)
}
