package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/domain/event"
	"github.com/NeuralTrust/AltGuard/pkg/infra/cache"
	"github.com/sirupsen/logrus"
)

type Subscriber interface {
	OnEvent(ctx context.Context, evt event.Event) error
}

type SubscriberFunc func(ctx context.Context, evt event.Event) error

func (f SubscriberFunc) OnEvent(ctx context.Context, evt event.Event) error {
	return f(ctx, evt)
}

// Listener consumes the event channel and hands every event published by
// another instance to the registered subscribers.
type Listener struct {
	logger      *logrus.Logger
	cache       cache.Client
	source      string
	subscribers []Subscriber
	retryDelay  time.Duration
}

func NewListener(logger *logrus.Logger, cache cache.Client, source string) *Listener {
	return &Listener{
		logger:     logger,
		cache:      cache,
		source:     source,
		retryDelay: time.Second,
	}
}

// Register must be called before Listen.
func (l *Listener) Register(subscriber Subscriber) {
	l.subscribers = append(l.subscribers, subscriber)
}

// Listen blocks until ctx is cancelled, reconnecting when the subscription
// drops.
func (l *Listener) Listen(ctx context.Context, channels ...string) {
	if len(channels) == 0 {
		channels = []string{DefaultChannel}
	}
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("redis pubsub listener shutting down")
			return
		default:
		}

		l.listenOnce(ctx, channels)

		if ctx.Err() != nil {
			return
		}

		l.logger.WithField("retry_in", l.retryDelay.String()).Warn("redis pubsub disconnected, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(l.retryDelay):
		}
	}
}

func (l *Listener) listenOnce(ctx context.Context, channels []string) {
	pubSub := l.cache.RedisClient().Subscribe(ctx, channels...)
	defer func() { _ = pubSub.Close() }()

	l.logger.WithField("channels", channels).Debug("redis pubsub connected")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = pubSub.Close()
		case <-done:
		}
	}()

	for msg := range pubSub.Channel() {
		if ctx.Err() != nil {
			return
		}
		l.handleMessage(ctx, msg.Payload)
	}
}

func (l *Listener) handleMessage(ctx context.Context, payload string) {
	var envelope RedisMessage
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		l.logger.WithError(err).Error("error decoding redis message")
		return
	}
	if envelope.Source != "" && envelope.Source == l.source {
		return
	}

	var evt event.Event
	if err := json.Unmarshal(envelope.Event, &evt); err != nil {
		l.logger.WithError(err).WithField("type", envelope.Type).Error("error decoding event payload")
		return
	}

	for _, sub := range l.subscribers {
		if err := sub.OnEvent(ctx, evt); err != nil {
			l.logger.WithFields(logrus.Fields{
				"event":    evt.Type,
				"actor_id": evt.ActorID,
				"source":   envelope.Source,
			}).WithError(err).Error("error executing event subscriber")
		}
	}
}
