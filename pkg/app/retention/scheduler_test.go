package retention

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/engine"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCleaner struct {
	mock.Mock
}

func (m *mockCleaner) Cleanup(ctx context.Context, olderThanDays int) (engine.CleanupResult, error) {
	args := m.Called(ctx, olderThanDays)
	return args.Get(0).(engine.CleanupResult), args.Error(1)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestNewScheduler_Validation(t *testing.T) {
	_, err := NewScheduler(&mockCleaner{}, Config{Interval: 0, OlderThanDays: 30}, quietLogger())
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = NewScheduler(&mockCleaner{}, Config{Interval: time.Hour}, quietLogger())
	assert.ErrorIs(t, err, engine.ErrInvalidRetention)
}

func TestScheduler_RunOnce(t *testing.T) {
	cleaner := &mockCleaner{}
	cleaner.On("Cleanup", mock.Anything, 30).Return(engine.CleanupResult{ActivitiesDeleted: 4}, nil).Once()
	cleaner.On("Cleanup", mock.Anything, 30).Return(engine.CleanupResult{}, errors.New("db down")).Once()

	s, err := NewScheduler(cleaner, Config{Interval: time.Hour, OlderThanDays: 30}, quietLogger())
	require.NoError(t, err)
	s.RunOnce(context.Background())
	s.RunOnce(context.Background())
	cleaner.AssertNumberOfCalls(t, "Cleanup", 2)
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	cleaner := &mockCleaner{}
	called := make(chan struct{}, 10)
	cleaner.On("Cleanup", mock.Anything, 7).
		Run(func(mock.Arguments) { called <- struct{}{} }).
		Return(engine.CleanupResult{}, nil)

	s, err := NewScheduler(cleaner, Config{Interval: 5 * time.Millisecond, OlderThanDays: 7}, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup never ran")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
