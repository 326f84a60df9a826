package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	appcooldown "github.com/NeuralTrust/AltGuard/pkg/app/cooldown"
	"github.com/NeuralTrust/AltGuard/pkg/app/similarity"
	"github.com/NeuralTrust/AltGuard/pkg/common"
	"github.com/NeuralTrust/AltGuard/pkg/domain/activity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	"github.com/NeuralTrust/AltGuard/pkg/domain/cooldown"
	domain "github.com/NeuralTrust/AltGuard/pkg/domain/errors"
	"github.com/NeuralTrust/AltGuard/pkg/domain/event"
	"github.com/NeuralTrust/AltGuard/pkg/domain/fingerprint"
	"github.com/NeuralTrust/AltGuard/pkg/domain/identity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
	"github.com/NeuralTrust/AltGuard/pkg/domain/store"
	"github.com/sirupsen/logrus"
)

var (
	ErrNilStore         = errors.New("engine requires a store")
	ErrInvalidRetention = errors.New("retention must be at least one day")
)

//go:generate mockery --name=Service --dir=. --output=./mocks --filename=service_mock.go --case=underscore --with-expecter
type Service interface {
	CanPerform(ctx context.Context, id actor.ID, action string) (Decision, error)
	RecordSuccess(ctx context.Context, id actor.ID, action string) (cooldown.Cooldown, error)
	RecordFailure(ctx context.Context, id actor.ID, reason string) error
	Perform(ctx context.Context, id actor.ID, action string, fn func(ctx context.Context) error) (Decision, error)
	Observe(ctx context.Context, id actor.ID, facts identity.Facts) (*fingerprint.Fingerprint, error)
	ReportActivity(ctx context.Context, id actor.ID, t activity.Type, details string) (activity.SuspiciousActivity, error)

	Blacklist(ctx context.Context, id actor.ID, reason, addedBy string) error
	Whitelist(ctx context.Context, id actor.ID, reason, addedBy string) error
	RemoveFromBlacklist(ctx context.Context, id actor.ID) (bool, error)
	RemoveFromWhitelist(ctx context.Context, id actor.ID) (bool, error)
	IsBlacklisted(ctx context.Context, id actor.ID) (bool, error)
	IsWhitelisted(ctx context.Context, id actor.ID) (bool, error)
	ListBlacklist(ctx context.Context) ([]list.Entry, error)
	ListWhitelist(ctx context.Context) ([]list.Entry, error)
	ReloadLists(ctx context.Context) error

	Stats(ctx context.Context, id actor.ID) (Snapshot, bool, error)
	SystemStats(ctx context.Context) (SystemStats, error)
	Cleanup(ctx context.Context, olderThanDays int) (CleanupResult, error)
}

var _ Service = (*Engine)(nil)

type Option func(*Engine)

func WithClock(clock common.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

func WithIdentityLookup(lookup identity.Lookup) Option {
	return func(e *Engine) {
		e.lookup = lookup
	}
}

func WithPublisher(publisher event.Publisher) Option {
	return func(e *Engine) {
		e.publisher = publisher
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine scores actors and decides whether they may perform actions. All
// mutations of one actor are serialized; a whole operation is committed to
// the store in a single atomic write.
type Engine struct {
	cfg        Config
	store      store.Store
	lookup     identity.Lookup
	publisher  event.Publisher
	clock      common.Clock
	logger     *logrus.Logger
	matcher    similarity.Matcher
	calculator appcooldown.Calculator

	locks *actorLocks
	lists *listCache
	// held shared by actor operations and exclusively by Cleanup
	cleanupMu sync.RWMutex
}

func New(cfg Config, st store.Store, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrNilStore
	}
	e := &Engine{
		cfg:        cfg,
		store:      st,
		publisher:  noopPublisher{},
		clock:      common.SystemClock{},
		logger:     logrus.StandardLogger(),
		matcher:    similarity.NewMatcher(cfg.UsernameSimilarityThreshold),
		calculator: appcooldown.NewCalculator(cfg.CooldownBaseMinutes, cfg.MaxCooldownHours),
		locks:      newActorLocks(),
		lists:      newListCache(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

// withActor runs fn in a fresh unit of work while holding the actor lock and
// commits it when fn succeeds.
func (e *Engine) withActor(ctx context.Context, id actor.ID, fn func(s *session) error) error {
	if err := id.Validate(); err != nil {
		return err
	}
	e.cleanupMu.RLock()
	defer e.cleanupMu.RUnlock()
	unlock := e.locks.Lock(id)
	defer unlock()
	return e.run(ctx, nil, fn)
}

// withResolvedActor is withActor for operations that may need identity
// facts. The lookup runs before any engine lock is taken, so a slow
// identity provider never stalls Cleanup or other actors.
func (e *Engine) withResolvedActor(ctx context.Context, id actor.ID, fn func(s *session) error) error {
	if err := id.Validate(); err != nil {
		return err
	}
	facts, err := e.prefetchIdentity(ctx, id)
	if err != nil {
		return err
	}
	e.cleanupMu.RLock()
	defer e.cleanupMu.RUnlock()
	unlock := e.locks.Lock(id)
	defer unlock()
	return e.run(ctx, facts, fn)
}

// prefetchIdentity resolves the facts of id when its fingerprint is missing
// or has never been resolved. It returns nil when no lookup is needed.
func (e *Engine) prefetchIdentity(ctx context.Context, id actor.ID) (*identity.Facts, error) {
	if e.lookup == nil {
		return nil, nil
	}
	f, err := e.store.LoadFingerprint(ctx, id)
	switch {
	case err == nil && f.IdentityResolved:
		return nil, nil
	case err != nil && !domain.IsNotFound(err):
		storeFailed("load_fingerprint")
		return nil, fmt.Errorf("load fingerprint %s: %w", id, err)
	}
	facts, err := e.lookup.Resolve(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve identity of %s: %w", id, err)
	}
	return &facts, nil
}

// run expects the caller to hold the actor lock. prefetched carries facts
// resolved before the lock was taken, or nil.
func (e *Engine) run(ctx context.Context, prefetched *identity.Facts, fn func(s *session) error) error {
	if err := e.lists.ensure(ctx, e.store); err != nil {
		return fmt.Errorf("load lists: %w", err)
	}
	s := e.newSession(ctx)
	s.prefetched = prefetched
	if err := fn(s); err != nil {
		return err
	}
	return s.commit()
}

func (e *Engine) publish(ctx context.Context, events []event.Event) {
	if len(events) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, evt := range events {
		if err := e.publisher.Publish(ctx, evt); err != nil {
			eventPublishFailed()
			e.logger.WithFields(logrus.Fields{
				"actor_id": evt.ActorID,
				"event":    evt.Type,
			}).WithError(err).Warn("failed to publish event")
		}
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, event.Event) error {
	return nil
}
