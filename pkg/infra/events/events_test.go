package events

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/domain/event"
	"github.com/NeuralTrust/AltGuard/pkg/infra/cache"
	"github.com/go-redis/redismock/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var occurredAt = time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func sampleEvent(t event.Type) event.Event {
	return event.Event{
		Type:       t,
		ActorID:    77,
		Reason:     "spam",
		TrustScore: 0,
		RiskLevel:  "banned",
		OccurredAt: occurredAt,
	}
}

type reloaderMock struct {
	mock.Mock
}

func (m *reloaderMock) ReloadLists(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type recorder struct {
	mu     sync.Mutex
	events []event.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, evt event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestRedisPublisher_Publish(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	pub := NewRedisPublisher(cache.NewClientFromRedis(client), "", "node-a")

	evt := sampleEvent(event.ActorBlacklisted)
	payload, err := encodeMessage("node-a", evt)
	require.NoError(t, err)
	redisMock.ExpectPublish(DefaultChannel, payload).SetVal(1)

	require.NoError(t, pub.Publish(context.Background(), evt))
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestListener_SkipsOwnEventsAndDispatchesOthers(t *testing.T) {
	client, _ := redismock.NewClientMock()
	l := NewListener(quietLogger(), cache.NewClientFromRedis(client), "node-a")

	var got []event.Event
	l.Register(SubscriberFunc(func(_ context.Context, evt event.Event) error {
		got = append(got, evt)
		return nil
	}))

	own, err := encodeMessage("node-a", sampleEvent(event.ActorWhitelisted))
	require.NoError(t, err)
	other, err := encodeMessage("node-b", sampleEvent(event.ActorBlacklisted))
	require.NoError(t, err)

	l.handleMessage(context.Background(), string(own))
	l.handleMessage(context.Background(), string(other))
	l.handleMessage(context.Background(), "not json")

	require.Len(t, got, 1)
	assert.Equal(t, event.ActorBlacklisted, got[0].Type)
	assert.EqualValues(t, 77, got[0].ActorID)
	assert.True(t, occurredAt.Equal(got[0].OccurredAt))
}

func TestListSyncSubscriber(t *testing.T) {
	ctx := context.Background()
	reloader := new(reloaderMock)
	reloader.On("ReloadLists", ctx).Return(nil).Twice()
	sub := NewListSyncSubscriber(reloader)

	require.NoError(t, sub.OnEvent(ctx, sampleEvent(event.ActorAutoBanned)))
	require.NoError(t, sub.OnEvent(ctx, sampleEvent(event.ActorUnwhitelisted)))
	require.NoError(t, sub.OnEvent(ctx, sampleEvent(event.RiskLevelChanged)))

	reloader.AssertExpectations(t)
}

func TestMultiPublisher_JoinsErrors(t *testing.T) {
	boom := errors.New("sink down")
	ok := &recorder{}
	failing := &recorder{err: boom}

	pub := NewMultiPublisher(failing, ok)
	err := pub.Publish(context.Background(), sampleEvent(event.ActorBlacklisted))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, ok.count())

	assert.IsType(t, NoopPublisher{}, NewMultiPublisher())
	assert.Same(t, ok, NewMultiPublisher(ok))
}

func TestAsyncPublisher_DrainsOnShutdown(t *testing.T) {
	sink := &recorder{}
	pub := NewAsyncPublisher(quietLogger(), sink, 10)
	pub.StartWorkers(2)

	for i := 0; i < 5; i++ {
		require.NoError(t, pub.Publish(context.Background(), sampleEvent(event.RiskLevelChanged)))
	}
	pub.Shutdown()
	assert.Equal(t, 5, sink.count())

	require.NoError(t, pub.Publish(context.Background(), sampleEvent(event.RiskLevelChanged)))
	assert.Equal(t, 5, sink.count())
	pub.Shutdown()
}

func TestAsyncPublisher_DropsWhenFull(t *testing.T) {
	sink := &recorder{}
	pub := NewAsyncPublisher(quietLogger(), sink, 1)

	require.NoError(t, pub.Publish(context.Background(), sampleEvent(event.ActorBlacklisted)))
	require.NoError(t, pub.Publish(context.Background(), sampleEvent(event.ActorWhitelisted)))

	pub.StartWorkers(1)
	pub.Shutdown()
	require.Equal(t, 1, sink.count())
	assert.Equal(t, event.ActorBlacklisted, sink.events[0].Type)
}

func TestKafkaExporter_ValidateConfig(t *testing.T) {
	exp := NewKafkaExporter()
	assert.Equal(t, KafkaExporterName, exp.Name())

	assert.NoError(t, exp.ValidateConfig(map[string]interface{}{
		"host": "localhost", "port": 9092, "topic": "altguard-events",
	}))
	assert.EqualError(t, exp.ValidateConfig(map[string]interface{}{"port": "9092", "topic": "t"}), "kafka host is required")
	assert.EqualError(t, exp.ValidateConfig(map[string]interface{}{"host": "h", "topic": "t"}), "kafka port is required")
	assert.EqualError(t, exp.ValidateConfig(map[string]interface{}{"host": "h", "port": "1"}), "kafka topic is required")

	err := exp.Publish(context.Background(), sampleEvent(event.ActorBlacklisted))
	assert.EqualError(t, err, "kafka producer is not initialized")
}
