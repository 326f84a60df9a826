package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, engine.DefaultConfig(), cfg.Engine)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, IdentityNone, cfg.Identity.Mode)
	assert.Equal(t, 10*time.Minute, cfg.Identity.CacheTTL)
	assert.Equal(t, time.Hour, cfg.Server.TokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.Retention.Interval)
	assert.True(t, cfg.Metrics.EnableDecisions)
	assert.False(t, cfg.NeedsRedis())
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  admin_port: 7000
engine:
  max_actions_per_day: 10
  username_similarity_threshold: 0.9
store:
  driver: redis
identity:
  mode: http
  cache_ttl: 30s
  http:
    base_url: http://users.internal
events:
  kafka:
    enabled: true
    settings:
      host: kafka
      port: "9092"
      topic: altguard
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0600))
	t.Setenv("ENGINE_COOLDOWN_BASE_MINUTES", "30")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.AdminPort)
	assert.Equal(t, 10, cfg.Engine.MaxActionsPerDay)
	assert.Equal(t, 0.9, cfg.Engine.UsernameSimilarityThreshold)
	assert.Equal(t, 30, cfg.Engine.CooldownBaseMinutes)
	assert.Equal(t, 24, cfg.Engine.MaxCooldownHours)
	assert.Equal(t, 30*time.Second, cfg.Identity.CacheTTL)
	assert.Equal(t, "http://users.internal", cfg.Identity.HTTP.BaseURL)
	assert.Equal(t, "kafka", cfg.Events.Kafka.Settings["host"])
	assert.True(t, cfg.NeedsRedis())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(t.TempDir())
		require.NoError(t, err)
		return cfg
	}

	cfg := valid()
	cfg.Engine.UsernameSimilarityThreshold = 2
	assert.ErrorIs(t, cfg.Validate(), engine.ErrInvalidConfig)

	cfg = valid()
	cfg.Store.Driver = "mongo"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = valid()
	cfg.Identity.Mode = IdentityHTTP
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = valid()
	cfg.Retention.Enabled = true
	cfg.Retention.OlderThanDays = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
