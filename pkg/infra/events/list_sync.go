package events

import (
	"context"

	"github.com/NeuralTrust/AltGuard/pkg/domain/event"
)

type ListReloader interface {
	ReloadLists(ctx context.Context) error
}

// ListSyncSubscriber refreshes the local list cache when another instance
// changed a blacklist or whitelist.
type ListSyncSubscriber struct {
	reloader ListReloader
}

func NewListSyncSubscriber(reloader ListReloader) *ListSyncSubscriber {
	return &ListSyncSubscriber{reloader: reloader}
}

func (s *ListSyncSubscriber) OnEvent(ctx context.Context, evt event.Event) error {
	switch evt.Type {
	case event.ActorBlacklisted,
		event.ActorAutoBanned,
		event.ActorWhitelisted,
		event.ActorUnblacklisted,
		event.ActorUnwhitelisted:
		return s.reloader.ReloadLists(ctx)
	default:
		return nil
	}
}
