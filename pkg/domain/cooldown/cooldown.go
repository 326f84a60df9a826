package cooldown

import (
	"fmt"
	"math"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
)

// Cooldown denies an action for an actor until ExpiresAt.
type Cooldown struct {
	ActorID   actor.ID  `json:"actor_id"`
	Action    string    `json:"action_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Minutes   int       `json:"minutes"`
	SetAt     time.Time `json:"set_at"`
}

// Key identifies a cooldown in stores and logs.
func Key(id actor.ID, action string) string {
	return fmt.Sprintf("%d:%s", id, action)
}

func (c Cooldown) String() string {
	return Key(c.ActorID, c.Action)
}

func (c Cooldown) Active(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}

func (c Cooldown) Remaining(now time.Time) time.Duration {
	if !c.Active(now) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

// RetryAfterSeconds rounds the remaining time up to whole seconds.
func (c Cooldown) RetryAfterSeconds(now time.Time) int64 {
	return int64(math.Ceil(c.Remaining(now).Seconds()))
}
