package mocks

import (
	"context"

	"github.com/NeuralTrust/AltGuard/pkg/domain/activity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	"github.com/NeuralTrust/AltGuard/pkg/domain/cooldown"
	"github.com/NeuralTrust/AltGuard/pkg/domain/fingerprint"
	"github.com/NeuralTrust/AltGuard/pkg/domain/identity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
	"github.com/NeuralTrust/AltGuard/pkg/engine"
	"github.com/stretchr/testify/mock"
)

type MockService struct {
	mock.Mock
}

var _ engine.Service = (*MockService)(nil)

func (m *MockService) CanPerform(ctx context.Context, id actor.ID, action string) (engine.Decision, error) {
	args := m.Called(ctx, id, action)
	return args.Get(0).(engine.Decision), args.Error(1)
}

func (m *MockService) RecordSuccess(ctx context.Context, id actor.ID, action string) (cooldown.Cooldown, error) {
	args := m.Called(ctx, id, action)
	return args.Get(0).(cooldown.Cooldown), args.Error(1)
}

func (m *MockService) RecordFailure(ctx context.Context, id actor.ID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *MockService) Perform(
	ctx context.Context,
	id actor.ID,
	action string,
	fn func(ctx context.Context) error,
) (engine.Decision, error) {
	args := m.Called(ctx, id, action, fn)
	return args.Get(0).(engine.Decision), args.Error(1)
}

func (m *MockService) Observe(ctx context.Context, id actor.ID, facts identity.Facts) (*fingerprint.Fingerprint, error) {
	args := m.Called(ctx, id, facts)
	f, _ := args.Get(0).(*fingerprint.Fingerprint)
	return f, args.Error(1)
}

func (m *MockService) ReportActivity(
	ctx context.Context,
	id actor.ID,
	t activity.Type,
	details string,
) (activity.SuspiciousActivity, error) {
	args := m.Called(ctx, id, t, details)
	return args.Get(0).(activity.SuspiciousActivity), args.Error(1)
}

func (m *MockService) Blacklist(ctx context.Context, id actor.ID, reason, addedBy string) error {
	args := m.Called(ctx, id, reason, addedBy)
	return args.Error(0)
}

func (m *MockService) Whitelist(ctx context.Context, id actor.ID, reason, addedBy string) error {
	args := m.Called(ctx, id, reason, addedBy)
	return args.Error(0)
}

func (m *MockService) RemoveFromBlacklist(ctx context.Context, id actor.ID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockService) RemoveFromWhitelist(ctx context.Context, id actor.ID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockService) IsBlacklisted(ctx context.Context, id actor.ID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockService) IsWhitelisted(ctx context.Context, id actor.ID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockService) ListBlacklist(ctx context.Context) ([]list.Entry, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]list.Entry)
	return entries, args.Error(1)
}

func (m *MockService) ListWhitelist(ctx context.Context) ([]list.Entry, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]list.Entry)
	return entries, args.Error(1)
}

func (m *MockService) ReloadLists(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockService) Stats(ctx context.Context, id actor.ID) (engine.Snapshot, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(engine.Snapshot), args.Bool(1), args.Error(2)
}

func (m *MockService) SystemStats(ctx context.Context) (engine.SystemStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(engine.SystemStats), args.Error(1)
}

func (m *MockService) Cleanup(ctx context.Context, olderThanDays int) (engine.CleanupResult, error) {
	args := m.Called(ctx, olderThanDays)
	return args.Get(0).(engine.CleanupResult), args.Error(1)
}
