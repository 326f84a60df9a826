package engine

import (
	"context"
	"fmt"

	"github.com/NeuralTrust/AltGuard/pkg/common"
	"github.com/NeuralTrust/AltGuard/pkg/domain/activity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	"github.com/NeuralTrust/AltGuard/pkg/domain/cooldown"
	domain "github.com/NeuralTrust/AltGuard/pkg/domain/errors"
	"github.com/NeuralTrust/AltGuard/pkg/domain/fingerprint"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
	"golang.org/x/sync/errgroup"
)

// Snapshot is a read-only view of one actor for dashboards.
type Snapshot struct {
	Fingerprint      *fingerprint.Fingerprint      `json:"fingerprint"`
	Blacklisted      bool                          `json:"blacklisted"`
	Whitelisted      bool                          `json:"whitelisted"`
	Severity24h      int                           `json:"severity_24h"`
	RecentActivities []activity.SuspiciousActivity `json:"recent_activities"`
	ActiveCooldowns  []cooldown.Cooldown           `json:"active_cooldowns"`
}

type SystemStats struct {
	TotalActors           int                           `json:"total_actors"`
	RiskDistribution      map[fingerprint.RiskLevel]int `json:"risk_distribution"`
	AverageTrust          float64                       `json:"average_trust"`
	RecentSuspiciousCount int64                         `json:"recent_suspicious_count"`
	ActiveCooldowns       int                           `json:"active_cooldowns"`
	BlacklistSize         int                           `json:"blacklist_size"`
	WhitelistSize         int                           `json:"whitelist_size"`
}

// Stats reports false when the actor has never been observed.
func (e *Engine) Stats(ctx context.Context, id actor.ID) (Snapshot, bool, error) {
	if err := id.Validate(); err != nil {
		return Snapshot{}, false, err
	}
	if err := e.lists.ensure(ctx, e.store); err != nil {
		return Snapshot{}, false, fmt.Errorf("load lists: %w", err)
	}
	f, err := e.store.LoadFingerprint(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return Snapshot{}, false, nil
		}
		storeFailed("load_fingerprint")
		return Snapshot{}, false, err
	}

	now := e.clock.Now()
	var (
		acts      []activity.SuspiciousActivity
		cooldowns []cooldown.Cooldown
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		acts, err = e.store.ListActivities(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		cooldowns, err = e.store.ListCooldowns(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		storeFailed("stats")
		return Snapshot{}, false, err
	}

	since := now.Add(-common.AutoBanWindow)
	snap := Snapshot{
		Fingerprint:      f,
		Blacklisted:      e.lists.has(list.Blacklist, id),
		Whitelisted:      e.lists.has(list.Whitelist, id),
		Severity24h:      activity.SumSeverity(acts, since),
		RecentActivities: []activity.SuspiciousActivity{},
		ActiveCooldowns:  []cooldown.Cooldown{},
	}
	for _, a := range acts {
		if !a.Timestamp.Before(since) {
			snap.RecentActivities = append(snap.RecentActivities, a)
		}
	}
	for _, c := range cooldowns {
		if c.ActorID == id && c.Active(now) {
			snap.ActiveCooldowns = append(snap.ActiveCooldowns, c)
		}
	}
	return snap, true, nil
}

func (e *Engine) SystemStats(ctx context.Context) (SystemStats, error) {
	if err := e.lists.ensure(ctx, e.store); err != nil {
		return SystemStats{}, fmt.Errorf("load lists: %w", err)
	}
	now := e.clock.Now()
	stats := SystemStats{
		RiskDistribution: make(map[fingerprint.RiskLevel]int, len(fingerprint.RiskLevels)),
		BlacklistSize:    e.lists.size(list.Blacklist),
		WhitelistSize:    e.lists.size(list.Whitelist),
	}
	for _, level := range fingerprint.RiskLevels {
		stats.RiskDistribution[level] = 0
	}

	var (
		fps       []*fingerprint.Fingerprint
		cooldowns []cooldown.Cooldown
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fps, err = e.store.ListFingerprints(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.RecentSuspiciousCount, err = e.store.CountActivitiesSince(gctx, now.Add(-common.AutoBanWindow))
		return err
	})
	g.Go(func() error {
		var err error
		cooldowns, err = e.store.ListCooldowns(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		storeFailed("system_stats")
		return SystemStats{}, err
	}

	trustSum := 0
	for _, f := range fps {
		stats.RiskDistribution[f.RiskLevel]++
		trustSum += f.TrustScore
	}
	stats.TotalActors = len(fps)
	if stats.TotalActors > 0 {
		stats.AverageTrust = float64(trustSum) / float64(stats.TotalActors)
	}
	for _, c := range cooldowns {
		if c.Active(now) {
			stats.ActiveCooldowns++
		}
	}
	return stats, nil
}
