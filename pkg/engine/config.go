package engine

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidConfig = errors.New("invalid engine configuration")

// Config holds the scoring knobs. It is copied into the engine at
// construction and never changes afterwards.
type Config struct {
	MinAccountAgeHours          float64 `mapstructure:"min_account_age_hours"`
	UsernameSimilarityThreshold float64 `mapstructure:"username_similarity_threshold"`
	MaxActionsPerDay            int     `mapstructure:"max_actions_per_day"`
	CooldownBaseMinutes         int     `mapstructure:"cooldown_base_minutes"`
	MaxCooldownHours            int     `mapstructure:"max_cooldown_hours"`
	AutoBanSeverityThreshold    int     `mapstructure:"auto_ban_severity_threshold"`
	ActionHistoryDays           int     `mapstructure:"action_history_days"`
}

func DefaultConfig() Config {
	return Config{
		MinAccountAgeHours:          24,
		UsernameSimilarityThreshold: 0.8,
		MaxActionsPerDay:            3,
		CooldownBaseMinutes:         15,
		MaxCooldownHours:            24,
		AutoBanSeverityThreshold:    5,
		ActionHistoryDays:           7,
	}
}

func (c Config) Validate() error {
	switch {
	case c.MinAccountAgeHours < 0:
		return fmt.Errorf("%w: min_account_age_hours must not be negative", ErrInvalidConfig)
	case c.UsernameSimilarityThreshold < 0 || c.UsernameSimilarityThreshold > 1:
		return fmt.Errorf("%w: username_similarity_threshold must be within [0,1]", ErrInvalidConfig)
	case c.MaxActionsPerDay <= 0:
		return fmt.Errorf("%w: max_actions_per_day must be positive", ErrInvalidConfig)
	case c.CooldownBaseMinutes <= 0:
		return fmt.Errorf("%w: cooldown_base_minutes must be positive", ErrInvalidConfig)
	case c.MaxCooldownHours <= 0:
		return fmt.Errorf("%w: max_cooldown_hours must be positive", ErrInvalidConfig)
	case c.AutoBanSeverityThreshold <= 0:
		return fmt.Errorf("%w: auto_ban_severity_threshold must be positive", ErrInvalidConfig)
	case c.ActionHistoryDays <= 0:
		return fmt.Errorf("%w: action_history_days must be positive", ErrInvalidConfig)
	}
	return nil
}

// AutoBanPoints is the 24h severity total that triggers an automatic ban.
func (c Config) AutoBanPoints() int {
	return c.AutoBanSeverityThreshold * 5
}

func (c Config) historyRetention() time.Duration {
	return time.Duration(c.ActionHistoryDays) * 24 * time.Hour
}
