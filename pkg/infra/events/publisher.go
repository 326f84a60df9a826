package events

import (
	"context"
	"errors"

	"github.com/NeuralTrust/AltGuard/pkg/domain/event"
)

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, event.Event) error {
	return nil
}

// MultiPublisher fans an event out to every publisher and joins their
// errors. One failing sink does not stop the others.
type MultiPublisher []event.Publisher

func NewMultiPublisher(publishers ...event.Publisher) event.Publisher {
	switch len(publishers) {
	case 0:
		return NoopPublisher{}
	case 1:
		return publishers[0]
	}
	return MultiPublisher(publishers)
}

func (m MultiPublisher) Publish(ctx context.Context, evt event.Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
