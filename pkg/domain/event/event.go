package event

import (
	"context"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
)

type Type string

const (
	ActorBlacklisted   Type = "actor_blacklisted"
	ActorAutoBanned    Type = "actor_auto_banned"
	ActorWhitelisted   Type = "actor_whitelisted"
	ActorUnblacklisted Type = "actor_unblacklisted"
	ActorUnwhitelisted Type = "actor_unwhitelisted"
	RiskLevelChanged   Type = "risk_level_changed"
)

type Event struct {
	Type       Type      `json:"type"`
	ActorID    actor.ID  `json:"actor_id"`
	Reason     string    `json:"reason,omitempty"`
	TrustScore int       `json:"trust_score"`
	RiskLevel  string    `json:"risk_level"`
	OccurredAt time.Time `json:"occurred_at"`
}

//go:generate mockery --name=Publisher --dir=. --output=./mocks --filename=publisher_mock.go --case=underscore --with-expecter

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}
