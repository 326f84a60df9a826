package cooldown

import (
	"context"

	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
)

type Reader interface {
	LoadCooldown(ctx context.Context, id actor.ID, action string) (*Cooldown, error)
	ListCooldowns(ctx context.Context) ([]Cooldown, error)
}

type Writer interface {
	SaveCooldown(ctx context.Context, c Cooldown) error
	DeleteCooldown(ctx context.Context, id actor.ID, action string) error
}
