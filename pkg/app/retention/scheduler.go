package retention

import (
	"context"
	"errors"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/engine"
	"github.com/sirupsen/logrus"
)

var ErrInvalidInterval = errors.New("retention interval must be positive")

//go:generate mockery --name=Cleaner --dir=. --output=./mocks --filename=cleaner_mock.go --case=underscore --with-expecter
type Cleaner interface {
	Cleanup(ctx context.Context, olderThanDays int) (engine.CleanupResult, error)
}

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	Interval      time.Duration `mapstructure:"interval"`
	OlderThanDays int           `mapstructure:"older_than_days"`
}

// Scheduler periodically prunes old activity through a Cleaner. It runs in
// the host process; the engine itself never starts goroutines.
type Scheduler struct {
	cleaner Cleaner
	cfg     Config
	logger  *logrus.Logger
}

func NewScheduler(cleaner Cleaner, cfg Config, logger *logrus.Logger) (*Scheduler, error) {
	if cfg.Interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if cfg.OlderThanDays < 1 {
		return nil, engine.ErrInvalidRetention
	}
	return &Scheduler{cleaner: cleaner, cfg: cfg, logger: logger}, nil
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	s.logger.WithFields(logrus.Fields{
		"interval":        s.cfg.Interval.String(),
		"older_than_days": s.cfg.OlderThanDays,
	}).Info("retention scheduler started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("retention scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

func (s *Scheduler) RunOnce(ctx context.Context) {
	res, err := s.cleaner.Cleanup(ctx, s.cfg.OlderThanDays)
	if err != nil {
		s.logger.WithError(err).Error("retention cleanup failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"activities_deleted": res.ActivitiesDeleted,
		"cooldowns_deleted":  res.CooldownsDeleted,
	}).Debug("retention cleanup done")
}
