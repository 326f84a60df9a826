package events

import (
	"context"
	"encoding/json"

	"github.com/NeuralTrust/AltGuard/pkg/domain/event"
	"github.com/NeuralTrust/AltGuard/pkg/infra/cache"
)

const DefaultChannel = "altguard:events"

type RedisPublisher struct {
	cache   cache.Client
	channel string
	source  string
}

var _ event.Publisher = (*RedisPublisher)(nil)

func NewRedisPublisher(cache cache.Client, channel, source string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{
		cache:   cache,
		channel: channel,
		source:  source,
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt event.Event) error {
	data, err := encodeMessage(p.source, evt)
	if err != nil {
		return err
	}
	return p.cache.RedisClient().Publish(ctx, p.channel, data).Err()
}

func encodeMessage(source string, evt event.Event) ([]byte, error) {
	b, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}
	return json.Marshal(RedisMessage{
		Type:   string(evt.Type),
		Source: source,
		Event:  b,
	})
}
