package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/app/retention"
	"github.com/NeuralTrust/AltGuard/pkg/engine"
	"github.com/NeuralTrust/AltGuard/pkg/infra/cache"
	"github.com/NeuralTrust/AltGuard/pkg/infra/database"
	"github.com/NeuralTrust/AltGuard/pkg/infra/identity"
	"github.com/NeuralTrust/AltGuard/pkg/infra/prometheus"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"

	IdentityNone   = "none"
	IdentityStatic = "static"
	IdentityHTTP   = "http"
)

type Config struct {
	Server    ServerConfig             `mapstructure:"server"`
	Engine    engine.Config            `mapstructure:"engine"`
	Store     StoreConfig              `mapstructure:"store"`
	Database  database.Config          `mapstructure:"database"`
	Redis     cache.Config             `mapstructure:"redis"`
	Identity  IdentityConfig           `mapstructure:"identity"`
	Events    EventsConfig             `mapstructure:"events"`
	Metrics   prometheus.MetricsConfig `mapstructure:"metrics"`
	Retention retention.Config         `mapstructure:"retention"`
}

type ServerConfig struct {
	AdminPort   int           `mapstructure:"admin_port"`
	MetricsPort int           `mapstructure:"metrics_port"`
	Host        string        `mapstructure:"host"`
	SecretKey   string        `mapstructure:"secret_key"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	InstanceID  string        `mapstructure:"instance_id"`
}

type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type IdentityConfig struct {
	Mode     string              `mapstructure:"mode"`
	CacheTTL time.Duration       `mapstructure:"cache_ttl"`
	HTTP     identity.HTTPConfig `mapstructure:"http"`
}

type EventsConfig struct {
	Workers   int               `mapstructure:"workers"`
	QueueSize int               `mapstructure:"queue_size"`
	Redis     RedisEventsConfig `mapstructure:"redis"`
	Kafka     KafkaEventsConfig `mapstructure:"kafka"`
}

type RedisEventsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Channel string `mapstructure:"channel"`
}

type KafkaEventsConfig struct {
	Enabled  bool                   `mapstructure:"enabled"`
	Settings map[string]interface{} `mapstructure:"settings"`
}

// Load reads config.yaml from configPath, ./config or the working directory
// and overlays environment variables (server.admin_port -> SERVER_ADMIN_PORT).
// A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := engine.DefaultConfig()
	v.SetDefault("engine.min_account_age_hours", defaults.MinAccountAgeHours)
	v.SetDefault("engine.username_similarity_threshold", defaults.UsernameSimilarityThreshold)
	v.SetDefault("engine.max_actions_per_day", defaults.MaxActionsPerDay)
	v.SetDefault("engine.cooldown_base_minutes", defaults.CooldownBaseMinutes)
	v.SetDefault("engine.max_cooldown_hours", defaults.MaxCooldownHours)
	v.SetDefault("engine.auto_ban_severity_threshold", defaults.AutoBanSeverityThreshold)
	v.SetDefault("engine.action_history_days", defaults.ActionHistoryDays)

	v.SetDefault("server.admin_port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.token_ttl", "1h")
	v.SetDefault("server.instance_id", "altguard")

	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("store.key_prefix", "altguard")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("identity.mode", IdentityNone)
	v.SetDefault("identity.cache_ttl", "10m")
	v.SetDefault("identity.http.timeout", "2s")

	v.SetDefault("events.workers", 2)
	v.SetDefault("events.queue_size", 1000)
	v.SetDefault("events.redis.channel", "altguard:events")

	v.SetDefault("metrics.enable_decisions", true)
	v.SetDefault("metrics.enable_cooldowns", true)

	v.SetDefault("retention.enabled", false)
	v.SetDefault("retention.interval", "24h")
	v.SetDefault("retention.older_than_days", 30)
}

func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	switch c.Store.Driver {
	case StoreMemory, StorePostgres, StoreRedis:
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.Store.Driver)
	}
	switch c.Identity.Mode {
	case IdentityNone, IdentityStatic:
	case IdentityHTTP:
		if c.Identity.HTTP.BaseURL == "" {
			return fmt.Errorf("%w: identity.http.base_url is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown identity mode %q", ErrInvalidConfig, c.Identity.Mode)
	}
	if c.Server.AdminPort <= 0 || c.Server.MetricsPort <= 0 {
		return fmt.Errorf("%w: server ports must be positive", ErrInvalidConfig)
	}
	if c.Retention.Enabled {
		if c.Retention.Interval <= 0 {
			return fmt.Errorf("%w: retention.interval must be positive", ErrInvalidConfig)
		}
		if c.Retention.OlderThanDays < 1 {
			return fmt.Errorf("%w: retention.older_than_days must be at least 1", ErrInvalidConfig)
		}
	}
	return nil
}

// NeedsRedis reports whether any configured component talks to redis.
func (c *Config) NeedsRedis() bool {
	return c.Store.Driver == StoreRedis || c.Events.Redis.Enabled
}
