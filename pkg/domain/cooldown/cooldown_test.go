package cooldown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldown_Remaining(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	c := Cooldown{ActorID: 1, Action: "post", ExpiresAt: now.Add(90*time.Second + 200*time.Millisecond)}

	assert.True(t, c.Active(now))
	assert.Equal(t, int64(91), c.RetryAfterSeconds(now))

	later := now.Add(2 * time.Minute)
	assert.False(t, c.Active(later))
	assert.Equal(t, time.Duration(0), c.Remaining(later))
	assert.Equal(t, int64(0), c.RetryAfterSeconds(later))
}

func TestCooldown_ExpiresExactlyAtBoundary(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	c := Cooldown{ExpiresAt: now}
	assert.False(t, c.Active(now))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "42:claim", Key(42, "claim"))
	assert.Equal(t, "42:claim", Cooldown{ActorID: 42, Action: "claim"}.String())
}
