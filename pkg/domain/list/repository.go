package list

import (
	"context"

	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
)

type Reader interface {
	ListEntries(ctx context.Context, kind Kind) ([]Entry, error)
}

type Writer interface {
	// AddToList replaces any existing entry for the same actor and kind.
	AddToList(ctx context.Context, e Entry) error
	RemoveFromList(ctx context.Context, kind Kind, id actor.ID) error
}
