package engine

import (
	"context"
	"fmt"

	"github.com/NeuralTrust/AltGuard/pkg/domain/store"
	"github.com/sirupsen/logrus"
)

type CleanupResult struct {
	ActivitiesDeleted int64 `json:"activities_deleted"`
	CooldownsDeleted  int   `json:"cooldowns_deleted"`
}

// Cleanup deletes suspicious activities older than olderThanDays and every
// expired cooldown. It waits for in-flight actor operations and blocks new
// ones until it is done.
func (e *Engine) Cleanup(ctx context.Context, olderThanDays int) (CleanupResult, error) {
	if olderThanDays < 1 {
		return CleanupResult{}, ErrInvalidRetention
	}
	e.cleanupMu.Lock()
	defer e.cleanupMu.Unlock()

	now := e.clock.Now()
	cutoff := now.AddDate(0, 0, -olderThanDays)

	deleted, err := e.store.DeleteActivitiesBefore(ctx, cutoff)
	if err != nil {
		storeFailed("delete_activities")
		return CleanupResult{}, fmt.Errorf("delete activities: %w", err)
	}

	cooldowns, err := e.store.ListCooldowns(ctx)
	if err != nil {
		storeFailed("list_cooldowns")
		return CleanupResult{}, fmt.Errorf("list cooldowns: %w", err)
	}
	expired := 0
	err = e.store.Atomically(ctx, func(w store.Writer) error {
		for _, c := range cooldowns {
			if c.Active(now) {
				continue
			}
			if err := w.DeleteCooldown(ctx, c.ActorID, c.Action); err != nil {
				return err
			}
			expired++
		}
		return nil
	})
	if err != nil {
		storeFailed("delete_cooldowns")
		return CleanupResult{ActivitiesDeleted: deleted}, fmt.Errorf("delete cooldowns: %w", err)
	}

	e.logger.WithFields(logrus.Fields{
		"older_than_days":    olderThanDays,
		"activities_deleted": deleted,
		"cooldowns_deleted":  expired,
	}).Info("retention cleanup finished")
	return CleanupResult{ActivitiesDeleted: deleted, CooldownsDeleted: expired}, nil
}
