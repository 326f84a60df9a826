package activity

import (
	"context"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
)

type Reader interface {
	ListActivities(ctx context.Context, id actor.ID) ([]SuspiciousActivity, error)
	CountActivitiesSince(ctx context.Context, since time.Time) (int64, error)
}

type Writer interface {
	AppendActivity(ctx context.Context, a SuspiciousActivity) error
}
