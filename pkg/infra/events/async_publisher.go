package events

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/NeuralTrust/AltGuard/pkg/domain/event"
	"github.com/NeuralTrust/AltGuard/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

const DefaultQueueSize = 1000

// AsyncPublisher hands events to a pool of workers so slow sinks never hold
// an actor lock. Events are dropped, and counted, when the queue is full.
type AsyncPublisher struct {
	logger *logrus.Logger
	next   event.Publisher
	tasks  chan event.Event
	wg     sync.WaitGroup
	closed atomic.Bool
	mu     sync.RWMutex
}

var _ event.Publisher = (*AsyncPublisher)(nil)

func NewAsyncPublisher(logger *logrus.Logger, next event.Publisher, queueSize int) *AsyncPublisher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &AsyncPublisher{
		logger: logger,
		next:   next,
		tasks:  make(chan event.Event, queueSize),
	}
}

func (p *AsyncPublisher) StartWorkers(n int) {
	if n <= 0 {
		n = 1
	}
	p.logger.WithField("workers", n).Info("starting event workers")
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for evt := range p.tasks {
				p.dispatch(evt)
			}
		}()
	}
}

func (p *AsyncPublisher) dispatch(evt event.Event) {
	if err := p.next.Publish(context.Background(), evt); err != nil {
		prometheus.EventPublishErrorsTotal.Inc()
		p.logger.WithFields(logrus.Fields{
			"event":    evt.Type,
			"actor_id": evt.ActorID,
		}).WithError(err).Error("event sink failed")
	}
}

// Publish never blocks.
func (p *AsyncPublisher) Publish(_ context.Context, evt event.Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return nil
	}
	select {
	case p.tasks <- evt:
	default:
		prometheus.EventsDroppedTotal.Inc()
		p.logger.WithFields(logrus.Fields{
			"event":    evt.Type,
			"actor_id": evt.ActorID,
		}).Warn("event queue is full, dropping event")
	}
	return nil
}

// Shutdown stops accepting events and waits for queued ones to drain.
func (p *AsyncPublisher) Shutdown() {
	p.mu.Lock()
	if p.closed.Swap(true) {
		p.mu.Unlock()
		return
	}
	close(p.tasks)
	p.mu.Unlock()
	p.logger.Info("shutting down event workers")
	p.wg.Wait()
	p.logger.Info("event workers stopped")
}
