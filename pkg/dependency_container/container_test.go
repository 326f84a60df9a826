package dependency_container

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/app/retention"
	"github.com/NeuralTrust/AltGuard/pkg/config"
	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	"github.com/NeuralTrust/AltGuard/pkg/engine"
	"github.com/NeuralTrust/AltGuard/pkg/infra/identity"
	"github.com/NeuralTrust/AltGuard/pkg/infra/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			AdminPort:   8080,
			MetricsPort: 9090,
			SecretKey:   "container-test-secret",
			TokenTTL:    time.Hour,
			InstanceID:  "test",
		},
		Engine:   engine.DefaultConfig(),
		Store:    config.StoreConfig{Driver: config.StoreMemory},
		Identity: config.IdentityConfig{Mode: config.IdentityNone},
		Events:   config.EventsConfig{Workers: 1, QueueSize: 10},
		Retention: retention.Config{
			Enabled:       true,
			Interval:      time.Hour,
			OlderThanDays: 30,
		},
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNewContainer_MemoryStore(t *testing.T) {
	c, err := NewContainer(ContainerDI{Cfg: testConfig(), Logger: testLogger()})
	require.NoError(t, err)
	defer func() { assert.NoError(t, c.Close()) }()

	assert.Nil(t, c.Cache)
	assert.Nil(t, c.Listener)
	assert.IsType(t, &repository.MemoryStore{}, c.Store)
	require.NotNil(t, c.RetentionScheduler)
	require.NotNil(t, c.HandlerTransport)
	assert.NotNil(t, c.HandlerTransport.CheckActionHandler)
	assert.NotNil(t, c.MiddlewareTransport.AuthMiddleware)

	decision, err := c.Engine.CanPerform(context.Background(), actor.ID(1), "trade")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestNewContainer_PostgresRequiresDatabase(t *testing.T) {
	cfg := testConfig()
	cfg.Store.Driver = config.StorePostgres

	_, err := NewContainer(ContainerDI{Cfg: cfg, Logger: testLogger()})
	assert.ErrorIs(t, err, ErrDatabaseRequired)
}

func TestNewContainer_IdentityModes(t *testing.T) {
	cfg := testConfig()
	cfg.Identity.Mode = config.IdentityHTTP
	cfg.Identity.HTTP.BaseURL = "http://identity.internal"

	c := &Container{}
	lookup, err := c.newIdentityLookup(ContainerDI{Cfg: cfg, Logger: testLogger()})
	require.NoError(t, err)
	assert.IsType(t, &identity.CachedLookup{}, lookup)

	cfg.Identity.Mode = config.IdentityStatic
	lookup, err = c.newIdentityLookup(ContainerDI{Cfg: cfg, Logger: testLogger()})
	require.NoError(t, err)
	assert.IsType(t, &identity.StaticLookup{}, lookup)

	cfg.Identity.Mode = config.IdentityNone
	lookup, err = c.newIdentityLookup(ContainerDI{Cfg: cfg, Logger: testLogger()})
	require.NoError(t, err)
	assert.Nil(t, lookup)
}
