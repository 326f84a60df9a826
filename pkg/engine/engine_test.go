package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/common"
	"github.com/NeuralTrust/AltGuard/pkg/domain/activity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	domain "github.com/NeuralTrust/AltGuard/pkg/domain/errors"
	"github.com/NeuralTrust/AltGuard/pkg/domain/event"
	"github.com/NeuralTrust/AltGuard/pkg/domain/fingerprint"
	"github.com/NeuralTrust/AltGuard/pkg/domain/identity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
	"github.com/NeuralTrust/AltGuard/pkg/domain/store"
	"github.com/NeuralTrust/AltGuard/pkg/infra/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

type lookupStub struct {
	mu    sync.Mutex
	facts map[actor.ID]identity.Facts
	err   error
	calls int
}

func (l *lookupStub) Resolve(_ context.Context, id actor.ID) (identity.Facts, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return identity.Facts{}, l.err
	}
	return l.facts[id], nil
}

func (l *lookupStub) set(id actor.ID, facts identity.Facts) {
	l.mu.Lock()
	l.facts[id] = facts
	l.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt event.Event) error {
	p.mu.Lock()
	p.events = append(p.events, evt)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) types() []event.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type failingStore struct {
	*repository.MemoryStore
	failCommit atomic.Bool
}

func (s *failingStore) Atomically(ctx context.Context, fn func(w store.Writer) error) error {
	if s.failCommit.Load() {
		return errors.New("connection reset")
	}
	return s.MemoryStore.Atomically(ctx, fn)
}

type fixture struct {
	engine    *Engine
	store     *failingStore
	clock     *common.FakeClock
	lookup    *lookupStub
	publisher *recordingPublisher
}

func newFixture(t *testing.T, mutate ...func(*Config)) *fixture {
	t.Helper()
	cfg := DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		store:     &failingStore{MemoryStore: repository.NewMemoryStore()},
		clock:     common.NewFakeClock(t0),
		lookup:    &lookupStub{facts: map[actor.ID]identity.Facts{}},
		publisher: &recordingPublisher{},
	}
	eng, err := New(cfg, f.store,
		WithClock(f.clock),
		WithIdentityLookup(f.lookup),
		WithPublisher(f.publisher),
		WithLogger(logger),
	)
	require.NoError(t, err)
	f.engine = eng
	return f
}

func hoursAgo(h float64) *time.Time {
	ts := t0.Add(-time.Duration(h * float64(time.Hour)))
	return &ts
}

func (f *fixture) fingerprint(t *testing.T, id actor.ID) *fingerprint.Fingerprint {
	t.Helper()
	fp, err := f.store.LoadFingerprint(context.Background(), id)
	require.NoError(t, err)
	return fp
}

func TestNew_Validation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UsernameSimilarityThreshold = 1.5
	_, err := New(cfg, repository.NewMemoryStore())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrNilStore)
}

func TestCanPerform_InvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.CanPerform(ctx, 0, "post")
	assert.ErrorIs(t, err, actor.ErrInvalidActorID)

	_, err = f.engine.CanPerform(ctx, 1, "")
	assert.ErrorIs(t, err, actor.ErrInvalidAction)

	_, err = f.store.LoadFingerprint(ctx, 1)
	assert.True(t, domain.IsNotFound(err))
}

func TestScenarioA_AccountTooNew(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.lookup.set(1, identity.Facts{DisplayName: "freshman", AccountCreatedAt: hoursAgo(1)})

	d, err := f.engine.CanPerform(ctx, 1, "post")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonAccountTooNew, d.Reason)
	assert.Equal(t, int64(0), d.RetryAfterSeconds)

	fp := f.fingerprint(t, 1)
	assert.Equal(t, 80, fp.TrustScore)
	assert.True(t, fp.Flags.Has(fingerprint.FlagNewAccount))
	require.NotNil(t, fp.AccountAgeHours)
	assert.InDelta(t, 1.0, *fp.AccountAgeHours, 1e-9)

	acts, err := f.store.ListActivities(ctx, 1)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, activity.TypeNewAccount, acts[0].Type)
	assert.Equal(t, 3, acts[0].Severity)

	// the age is not recomputed on later reads
	f.clock.Advance(24 * time.Hour)
	d, err = f.engine.CanPerform(ctx, 1, "post")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonAccountTooNew, d.Reason)
	assert.InDelta(t, 1.0, *f.fingerprint(t, 1).AccountAgeHours, 1e-9)
}

func TestScenarioB_SimilarUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Observe(ctx, 1, identity.Facts{DisplayName: "player124", AccountCreatedAt: hoursAgo(500)})
	require.NoError(t, err)
	f.lookup.set(2, identity.Facts{DisplayName: "player123", AccountCreatedAt: hoursAgo(500)})
	f.lookup.set(3, identity.Facts{DisplayName: "Player_125", AccountCreatedAt: hoursAgo(1)})

	_, err = f.engine.CanPerform(ctx, 2, "post")
	require.NoError(t, err)
	fp := f.fingerprint(t, 2)
	assert.Equal(t, 70, fp.TrustScore)
	assert.True(t, fp.Flags.Has(fingerprint.FlagSimilarUsername))
	assert.Equal(t, fingerprint.RiskMedium, fp.RiskLevel)

	acts, err := f.store.ListActivities(ctx, 2)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, activity.TypeSimilarUsername, acts[0].Type)
	assert.Contains(t, acts[0].Details, "player124")

	_, err = f.engine.CanPerform(ctx, 3, "post")
	require.NoError(t, err)
	fp = f.fingerprint(t, 3)
	assert.Equal(t, 50, fp.TrustScore)
	assert.True(t, fp.Flags.Has(fingerprint.FlagNewAccount))
	assert.True(t, fp.Flags.Has(fingerprint.FlagSimilarUsername))
}

func TestSimilarityRunsOnlyOnFirstAttachment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Observe(ctx, 1, identity.Facts{DisplayName: "ghost"})
	require.NoError(t, err)
	_, err = f.engine.Observe(ctx, 2, identity.Facts{DisplayName: "ghost2"})
	require.NoError(t, err)
	fp, err := f.engine.Observe(ctx, 2, identity.Facts{DisplayName: "ghost_99"})
	require.NoError(t, err)

	assert.Equal(t, 70, fp.TrustScore)
	assert.Equal(t, "ghost_99", fp.DisplayName)
	acts, err := f.store.ListActivities(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, acts, 1)
}

func TestIdentityLookupCalledOncePerActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.lookup.set(1, identity.Facts{DisplayName: "loner"})

	for i := 0; i < 3; i++ {
		_, err := f.engine.CanPerform(ctx, 1, "post")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, f.lookup.calls)
}

func TestDuplicateExternalIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Observe(ctx, 1, identity.Facts{ExternalIdentity: "steam:abc"})
	require.NoError(t, err)
	fp, err := f.engine.Observe(ctx, 2, identity.Facts{ExternalIdentity: "STEAM:ABC"})
	require.NoError(t, err)

	assert.True(t, fp.Flags.Has(fingerprint.FlagDuplicateFingerprint))
	assert.True(t, fp.Flags.Has(fingerprint.FlagSimilarUsername))
	assert.Equal(t, 70, fp.TrustScore)

	acts, err := f.store.ListActivities(ctx, 2)
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, activity.TypeDuplicateFingerprint, acts[1].Type)
	assert.Equal(t, 7, acts[1].Severity)
}

func TestScenarioC_AutoBanFromFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Observe(ctx, 1, identity.Facts{DisplayName: "player124"})
	require.NoError(t, err)
	f.lookup.set(5, identity.Facts{DisplayName: "player123"})
	_, err = f.engine.CanPerform(ctx, 5, "post")
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		require.NoError(t, f.engine.RecordFailure(ctx, 5, "wrong answer"))
	}
	banned, err := f.engine.IsBlacklisted(ctx, 5)
	require.NoError(t, err)
	assert.False(t, banned)
	assert.Equal(t, 40, f.fingerprint(t, 5).TrustScore)
	assert.Equal(t, fingerprint.RiskHigh, f.fingerprint(t, 5).RiskLevel)

	require.NoError(t, f.engine.RecordFailure(ctx, 5, "wrong answer"))
	banned, err = f.engine.IsBlacklisted(ctx, 5)
	require.NoError(t, err)
	assert.True(t, banned)

	fp := f.fingerprint(t, 5)
	assert.Equal(t, 0, fp.TrustScore)
	assert.Equal(t, fingerprint.RiskBanned, fp.RiskLevel)
	assert.True(t, fp.Flags.Has(fingerprint.FlagAutoBanned))

	entries, err := f.engine.ListBlacklist(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "automatic: 25 severity points in 24h", entries[0].Reason)
	assert.Equal(t, common.SystemAddedBy, entries[0].AddedBy)

	d, err := f.engine.CanPerform(ctx, 5, "post")
	require.NoError(t, err)
	assert.Equal(t, deny(ReasonBlacklisted, 0), d)
	assert.Contains(t, f.publisher.types(), event.ActorAutoBanned)
}

func TestScenarioC_AutoBanFromReportedActivities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.engine.ReportActivity(ctx, 6, activity.TypeMultipleAttempts, "burst")
		require.NoError(t, err)
	}
	banned, _ := f.engine.IsBlacklisted(ctx, 6)
	require.False(t, banned)
	assert.Equal(t, 60, f.fingerprint(t, 6).TrustScore)

	_, err := f.engine.ReportActivity(ctx, 6, activity.TypeSimilarUsername, "manual review")
	require.NoError(t, err)
	banned, _ = f.engine.IsBlacklisted(ctx, 6)
	assert.True(t, banned)
}

func TestAutoBanWindowIgnoresOldActivities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.engine.ReportActivity(ctx, 7, activity.TypeVerifiedAlt, "")
		require.NoError(t, err)
	}
	f.clock.Advance(25 * time.Hour)
	_, err := f.engine.ReportActivity(ctx, 7, activity.TypeVerifiedAlt, "")
	require.NoError(t, err)

	banned, _ := f.engine.IsBlacklisted(ctx, 7)
	assert.False(t, banned)
	assert.Equal(t, 60, f.fingerprint(t, 7).TrustScore)
}

func TestReportActivity_UnknownType(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.ReportActivity(context.Background(), 1, activity.Type("nope"), "")
	assert.ErrorIs(t, err, activity.ErrUnknownActivityType)
}

func TestAutoBanIsMonotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.engine.ReportActivity(ctx, 9, activity.TypeVerifiedAlt, "")
		require.NoError(t, err)
	}
	require.True(t, f.blacklisted(t, 9))

	_, err := f.engine.RecordSuccess(ctx, 9, "post")
	require.NoError(t, err)
	require.NoError(t, f.engine.RecordFailure(ctx, 9, ""))
	f.clock.Advance(48 * time.Hour)
	_, err = f.engine.CanPerform(ctx, 9, "post")
	require.NoError(t, err)

	assert.True(t, f.blacklisted(t, 9))
	assert.Equal(t, fingerprint.RiskBanned, f.fingerprint(t, 9).RiskLevel)

	removed, err := f.engine.RemoveFromBlacklist(ctx, 9)
	require.NoError(t, err)
	assert.True(t, removed)
	fp := f.fingerprint(t, 9)
	assert.Equal(t, 50, fp.TrustScore)
	assert.Equal(t, fingerprint.RiskMedium, fp.RiskLevel)
	assert.False(t, fp.Flags.Has(fingerprint.FlagBlacklisted))
	assert.True(t, fp.Flags.Has(fingerprint.FlagAutoBanned))

	removed, err = f.engine.RemoveFromBlacklist(ctx, 9)
	require.NoError(t, err)
	assert.False(t, removed)
}

func (f *fixture) blacklisted(t *testing.T, id actor.ID) bool {
	t.Helper()
	listed, err := f.engine.IsBlacklisted(context.Background(), id)
	require.NoError(t, err)
	return listed
}

func (f *fixture) whitelisted(t *testing.T, id actor.ID) bool {
	t.Helper()
	listed, err := f.engine.IsWhitelisted(context.Background(), id)
	require.NoError(t, err)
	return listed
}

func TestReloadListsPicksUpExternalChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.False(t, f.blacklisted(t, 12))

	// another instance writes straight to the shared store
	require.NoError(t, f.store.AddToList(ctx, list.Entry{
		Kind: list.Blacklist, ActorID: 12, Reason: "spam", AddedBy: "mod", AddedAt: t0,
	}))
	assert.False(t, f.blacklisted(t, 12))

	require.NoError(t, f.engine.ReloadLists(ctx))
	assert.True(t, f.blacklisted(t, 12))

	d, err := f.engine.CanPerform(ctx, 12, "post")
	require.NoError(t, err)
	assert.Equal(t, ReasonBlacklisted, d.Reason)
}

func TestScenarioD_WhitelistedCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.engine.Whitelist(ctx, 8, "partner account", "ops"))
	c, err := f.engine.RecordSuccess(ctx, 8, "post")
	require.NoError(t, err)
	assert.Equal(t, 7, c.Minutes)
	assert.Equal(t, t0.Add(7*time.Minute), c.ExpiresAt)
	assert.Equal(t, t0, c.SetAt)

	stored, err := f.store.LoadCooldown(ctx, 8, "post")
	require.NoError(t, err)
	assert.Equal(t, t0, stored.SetAt)

	d, err := f.engine.CanPerform(ctx, 8, "post")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestScenarioE_DailyLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.lookup.set(7, identity.Facts{DisplayName: "erin", AccountCreatedAt: hoursAgo(720)})

	for i := 0; i < 3; i++ {
		d, err := f.engine.CanPerform(ctx, 7, "claim")
		require.NoError(t, err)
		require.True(t, d.Allowed, "attempt %d: %s", i+1, d.Reason)
		c, err := f.engine.RecordSuccess(ctx, 7, "claim")
		require.NoError(t, err)
		require.Equal(t, 12, c.Minutes)
		f.clock.Advance(13 * time.Minute)
	}

	d, err := f.engine.CanPerform(ctx, 7, "claim")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonDailyLimit, d.Reason)
	assert.Equal(t, int64((14*60+21)*60), d.RetryAfterSeconds)

	d, err = f.engine.CanPerform(ctx, 7, "vote")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonDailyLimit, d.Reason)

	f.clock.Set(time.Date(2024, 6, 4, 0, 0, 1, 0, time.UTC))
	d, err = f.engine.CanPerform(ctx, 7, "claim")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestDailyLimitCountsEveryAction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.lookup.set(9, identity.Facts{DisplayName: "multi", AccountCreatedAt: hoursAgo(720)})

	for _, action := range []string{"a", "b", "c"} {
		_, err := f.engine.RecordSuccess(ctx, 9, action)
		require.NoError(t, err)
	}

	d, err := f.engine.CanPerform(ctx, 9, "d")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonDailyLimit, d.Reason)

	require.NoError(t, f.engine.Whitelist(ctx, 9, "trusted", "ops"))
	d, err = f.engine.CanPerform(ctx, 9, "d")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestCooldownDenialAndLazyExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.RecordSuccess(ctx, 10, "post")
	require.NoError(t, err)

	d, err := f.engine.CanPerform(ctx, 10, "post")
	require.NoError(t, err)
	assert.Equal(t, deny(ReasonCooldown, 720), d)

	f.clock.Advance(12 * time.Minute)
	d, err = f.engine.CanPerform(ctx, 10, "post")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	_, err = f.store.LoadCooldown(ctx, 10, "post")
	assert.True(t, domain.IsNotFound(err))
}

func TestLowTrustDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fp := fingerprint.New(11, t0)
	fp.TrustScore = 25
	fp.IdentityResolved = true
	require.NoError(t, f.store.SaveFingerprint(ctx, fp))

	d, err := f.engine.CanPerform(ctx, 11, "post")
	require.NoError(t, err)
	assert.Equal(t, deny(ReasonLowTrust, 0), d)
}

func TestWhitelistRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := f.engine.ReportActivity(ctx, 12, activity.TypeVerifiedAlt, "")
		require.NoError(t, err)
	}
	require.True(t, f.blacklisted(t, 12))

	require.NoError(t, f.engine.Whitelist(ctx, 12, "appeal accepted", "support"))
	d, err := f.engine.CanPerform(ctx, 12, "post")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	assert.False(t, f.blacklisted(t, 12))
	fp := f.fingerprint(t, 12)
	assert.Equal(t, 100, fp.TrustScore)
	assert.Equal(t, fingerprint.RiskLow, fp.RiskLevel)
	assert.False(t, fp.Flags.Has(fingerprint.FlagBlacklisted))

	_, err = f.engine.ReportActivity(ctx, 12, activity.TypeVerifiedAlt, "")
	require.NoError(t, err)
	assert.False(t, f.blacklisted(t, 12))

	removed, err := f.engine.RemoveFromWhitelist(ctx, 12)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = f.engine.RemoveFromWhitelist(ctx, 12)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestWhitelistedSkipsCooldownAndQuotaButNotBlacklist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.engine.Whitelist(ctx, 13, "vip", ""))
	for i := 0; i < 5; i++ {
		d, err := f.engine.CanPerform(ctx, 13, "claim")
		require.NoError(t, err)
		require.True(t, d.Allowed)
		_, err = f.engine.RecordSuccess(ctx, 13, "claim")
		require.NoError(t, err)
	}

	require.NoError(t, f.engine.Blacklist(ctx, 13, "compromised", "ops"))
	d, err := f.engine.CanPerform(ctx, 13, "claim")
	require.NoError(t, err)
	assert.Equal(t, ReasonBlacklisted, d.Reason)
	assert.True(t, f.whitelisted(t, 13))
}

func TestRemoveFromListsOnUnknownActorIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	removed, err := f.engine.RemoveFromBlacklist(ctx, 99)
	require.NoError(t, err)
	assert.False(t, removed)
	removed, err = f.engine.RemoveFromWhitelist(ctx, 99)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = f.store.LoadFingerprint(ctx, 99)
	assert.True(t, domain.IsNotFound(err))
}

func TestBlacklist_Validation(t *testing.T) {
	f := newFixture(t)
	err := f.engine.Blacklist(context.Background(), 1, "   ", "ops")
	assert.Error(t, err)
	assert.False(t, f.blacklisted(t, 1))
}

func TestBlacklist_EventsAndActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.engine.Blacklist(ctx, 14, "fraud ring", "ops"))
	assert.Equal(t, []event.Type{event.ActorBlacklisted, event.RiskLevelChanged}, f.publisher.types())

	acts, err := f.store.ListActivities(ctx, 14)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, activity.TypeBlacklisted, acts[0].Type)
	assert.Equal(t, "fraud ring", acts[0].Details)

	fp := f.fingerprint(t, 14)
	assert.Equal(t, 0, fp.TrustScore)
	assert.Equal(t, fingerprint.RiskBanned, fp.RiskLevel)
	assert.False(t, fp.IdentityResolved)
}

func TestFailedCommitLeavesNoState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.failCommit.Store(true)

	err := f.engine.Blacklist(ctx, 15, "spam", "ops")
	require.Error(t, err)
	assert.False(t, f.blacklisted(t, 15))

	_, err = f.engine.RecordSuccess(ctx, 15, "post")
	require.Error(t, err)
	_, err = f.store.LoadCooldown(ctx, 15, "post")
	assert.True(t, domain.IsNotFound(err))
	_, err = f.store.LoadFingerprint(ctx, 15)
	assert.True(t, domain.IsNotFound(err))
	assert.Empty(t, f.publisher.types())

	f.store.failCommit.Store(false)
	require.NoError(t, f.engine.Blacklist(ctx, 15, "spam", "ops"))
	assert.True(t, f.blacklisted(t, 15))
}

type gatedLookup struct {
	gated   actor.ID
	entered chan struct{}
	release chan struct{}
}

func (l *gatedLookup) Resolve(ctx context.Context, id actor.ID) (identity.Facts, error) {
	if id == l.gated {
		close(l.entered)
		select {
		case <-l.release:
		case <-ctx.Done():
			return identity.Facts{}, ctx.Err()
		}
	}
	return identity.Facts{DisplayName: fmt.Sprintf("user%d", id)}, nil
}

func TestSlowIdentityLookupDoesNotBlockOtherOperations(t *testing.T) {
	ctx := context.Background()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	lookup := &gatedLookup{gated: 1, entered: make(chan struct{}), release: make(chan struct{})}
	eng, err := New(DefaultConfig(), repository.NewMemoryStore(),
		WithClock(common.NewFakeClock(t0)),
		WithIdentityLookup(lookup),
		WithLogger(logger),
	)
	require.NoError(t, err)

	slow := make(chan error, 1)
	go func() {
		_, err := eng.CanPerform(ctx, 1, "post")
		slow <- err
	}()
	<-lookup.entered

	done := make(chan error, 2)
	go func() {
		_, err := eng.Cleanup(ctx, 7)
		done <- err
	}()
	go func() {
		_, err := eng.CanPerform(ctx, 2, "post")
		done <- err
	}()
	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("operation blocked behind an identity lookup")
		}
	}

	close(lookup.release)
	require.NoError(t, <-slow)
	snap, ok, err := eng.Stats(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "user1", snap.Fingerprint.DisplayName)
}

func TestIdentityLookupFailure(t *testing.T) {
	f := newFixture(t)
	f.lookup.err = errors.New("identity service down")

	_, err := f.engine.CanPerform(context.Background(), 16, "post")
	require.Error(t, err)
	_, err = f.store.LoadFingerprint(context.Background(), 16)
	assert.True(t, domain.IsNotFound(err))
}

func TestPerform_SerializesConcurrentAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ran atomic.Int32
	var wg sync.WaitGroup
	reasons := make(chan Reason, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := f.engine.Perform(ctx, 17, "claim", func(context.Context) error {
				ran.Add(1)
				return nil
			})
			assert.NoError(t, err)
			reasons <- d.Reason
		}()
	}
	wg.Wait()
	close(reasons)

	assert.Equal(t, int32(1), ran.Load())
	counts := map[Reason]int{}
	for r := range reasons {
		counts[r]++
	}
	assert.Equal(t, map[Reason]int{ReasonAllowed: 1, ReasonCooldown: 19}, counts)
	assert.Equal(t, 0, f.engine.locks.size())
}

func TestPerform_RecordsFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boom := errors.New("payment declined")

	d, err := f.engine.Perform(ctx, 18, "purchase", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.True(t, d.Allowed)

	fp := f.fingerprint(t, 18)
	assert.Equal(t, 1, fp.FailedAttempts)
	assert.Equal(t, 95, fp.TrustScore)
	_, err = f.store.LoadCooldown(ctx, 18, "purchase")
	assert.True(t, domain.IsNotFound(err))
}

func TestTrustScoreStaysInBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	types := []activity.Type{
		activity.TypeRapidRequests, activity.TypeVerifiedAlt, activity.TypeMultipleAttempts, activity.TypeBlacklistedPattern,
	}

	for i := 0; i < 400; i++ {
		id := actor.ID(rng.Intn(4) + 1)
		var err error
		switch rng.Intn(8) {
		case 0:
			_, err = f.engine.CanPerform(ctx, id, "post")
		case 1:
			_, err = f.engine.RecordSuccess(ctx, id, "post")
		case 2:
			err = f.engine.RecordFailure(ctx, id, "bad")
		case 3:
			_, err = f.engine.ReportActivity(ctx, id, types[rng.Intn(len(types))], "")
		case 4:
			err = f.engine.Blacklist(ctx, id, "manual", "ops")
		case 5:
			err = f.engine.Whitelist(ctx, id, "manual", "ops")
		case 6:
			_, err = f.engine.RemoveFromBlacklist(ctx, id)
		case 7:
			_, err = f.engine.RemoveFromWhitelist(ctx, id)
		}
		require.NoError(t, err)
		f.clock.Advance(time.Duration(rng.Intn(90)) * time.Minute)

		snap, ok, err := f.engine.Stats(ctx, id)
		require.NoError(t, err)
		if ok {
			assert.GreaterOrEqual(t, snap.Fingerprint.TrustScore, 0)
			assert.LessOrEqual(t, snap.Fingerprint.TrustScore, 100)
		}
	}
}
