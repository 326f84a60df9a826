package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	appcooldown "github.com/NeuralTrust/AltGuard/pkg/app/cooldown"
	"github.com/NeuralTrust/AltGuard/pkg/common"
	"github.com/NeuralTrust/AltGuard/pkg/domain/activity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	"github.com/NeuralTrust/AltGuard/pkg/domain/cooldown"
	domain "github.com/NeuralTrust/AltGuard/pkg/domain/errors"
	"github.com/NeuralTrust/AltGuard/pkg/domain/fingerprint"
	"github.com/NeuralTrust/AltGuard/pkg/domain/identity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
	"github.com/NeuralTrust/AltGuard/pkg/domain/store"
	"github.com/sirupsen/logrus"
)

const maxTextLength = 512

func (e *Engine) CanPerform(ctx context.Context, id actor.ID, action string) (Decision, error) {
	if err := actor.ValidateAction(action); err != nil {
		return Decision{}, err
	}
	var decision Decision
	err := e.withResolvedActor(ctx, id, func(s *session) error {
		var err error
		decision, err = s.canPerform(id, action)
		return err
	})
	if err != nil {
		return Decision{}, err
	}
	return decision, nil
}

func (e *Engine) RecordSuccess(ctx context.Context, id actor.ID, action string) (cooldown.Cooldown, error) {
	if err := actor.ValidateAction(action); err != nil {
		return cooldown.Cooldown{}, err
	}
	var c cooldown.Cooldown
	err := e.withResolvedActor(ctx, id, func(s *session) error {
		var err error
		c, err = s.recordSuccess(id, action)
		return err
	})
	if err != nil {
		return cooldown.Cooldown{}, err
	}
	return c, nil
}

func (e *Engine) RecordFailure(ctx context.Context, id actor.ID, reason string) error {
	reason = cleanText(reason)
	return e.withResolvedActor(ctx, id, func(s *session) error {
		return s.recordFailure(id, reason)
	})
}

// Perform checks the action, runs fn when allowed and records the outcome,
// all under the actor lock so concurrent attempts cannot both pass the
// check. An error from fn is recorded as a failure and returned.
func (e *Engine) Perform(
	ctx context.Context,
	id actor.ID,
	action string,
	fn func(ctx context.Context) error,
) (Decision, error) {
	if err := id.Validate(); err != nil {
		return Decision{}, err
	}
	if err := actor.ValidateAction(action); err != nil {
		return Decision{}, err
	}
	facts, err := e.prefetchIdentity(ctx, id)
	if err != nil {
		return Decision{}, err
	}
	e.cleanupMu.RLock()
	defer e.cleanupMu.RUnlock()
	unlock := e.locks.Lock(id)
	defer unlock()

	var decision Decision
	err = e.run(ctx, facts, func(s *session) error {
		var err error
		decision, err = s.canPerform(id, action)
		return err
	})
	if err != nil || !decision.Allowed {
		return decision, err
	}

	actionErr := fn(ctx)
	err = e.run(ctx, nil, func(s *session) error {
		if actionErr != nil {
			return s.recordFailure(id, cleanText(fmt.Sprintf("%s: %v", action, actionErr)))
		}
		_, err := s.recordSuccess(id, action)
		return err
	})
	if err != nil {
		return decision, err
	}
	return decision, actionErr
}

// Observe creates or refreshes the fingerprint of id with host supplied
// identity facts.
func (e *Engine) Observe(ctx context.Context, id actor.ID, facts identity.Facts) (*fingerprint.Fingerprint, error) {
	var out *fingerprint.Fingerprint
	err := e.withActor(ctx, id, func(s *session) error {
		f, err := s.createOrGet(id, &facts)
		if err != nil {
			return err
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Clone(), nil
}

func (e *Engine) ReportActivity(
	ctx context.Context,
	id actor.ID,
	t activity.Type,
	details string,
) (activity.SuspiciousActivity, error) {
	if !t.Known() {
		return activity.SuspiciousActivity{}, fmt.Errorf("%w: %q", activity.ErrUnknownActivityType, t)
	}
	details = cleanText(details)
	var recorded activity.SuspiciousActivity
	err := e.withResolvedActor(ctx, id, func(s *session) error {
		f, err := s.createOrGet(id, nil)
		if err != nil {
			return err
		}
		recorded, err = s.appendActivity(f, t, details)
		if err != nil {
			return err
		}
		return s.checkAutoBan(f)
	})
	if err != nil {
		return activity.SuspiciousActivity{}, err
	}
	return recorded, nil
}

func (s *session) canPerform(id actor.ID, action string) (Decision, error) {
	f, err := s.createOrGet(id, nil)
	if err != nil {
		return Decision{}, err
	}
	d, err := s.decide(f, action)
	if err != nil {
		return Decision{}, err
	}
	s.afterCommit(func() {
		decisionMade(d.Reason)
	})
	s.e.logger.WithFields(logrus.Fields{
		"actor_id":    id,
		"action":      action,
		"allowed":     d.Allowed,
		"reason":      d.Reason,
		"trust_score": f.TrustScore,
		"risk_level":  f.RiskLevel,
	}).Debug("action checked")
	return d, nil
}

func (s *session) decide(f *fingerprint.Fingerprint, action string) (Decision, error) {
	if s.isListed(list.Blacklist, f.ActorID) {
		return deny(ReasonBlacklisted, 0), nil
	}
	whitelisted := s.isListed(list.Whitelist, f.ActorID)

	if !whitelisted {
		c, err := s.activeCooldown(f, action)
		if err != nil {
			return Decision{}, err
		}
		if c != nil {
			return deny(ReasonCooldown, c.RetryAfterSeconds(s.now)), nil
		}
		if f.ActionsOnDay(s.now) >= s.e.cfg.MaxActionsPerDay {
			return deny(ReasonDailyLimit, secondsUntil(s.now, nextUTCMidnight(s.now))), nil
		}
	}

	// The age is frozen at creation, so this denial has no retry time.
	if f.IsAccountTooNew(s.e.cfg.MinAccountAgeHours) {
		return deny(ReasonAccountTooNew, 0), nil
	}
	if f.TrustScore < LowTrustFloor {
		return deny(ReasonLowTrust, 0), nil
	}
	return allow(), nil
}

// activeCooldown returns nil when no cooldown is running. An expired entry is
// deleted as part of the session.
func (s *session) activeCooldown(f *fingerprint.Fingerprint, action string) (*cooldown.Cooldown, error) {
	c, err := s.e.store.LoadCooldown(s.ctx, f.ActorID, action)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		storeFailed("load_cooldown")
		return nil, fmt.Errorf("load cooldown %s: %w", cooldown.Key(f.ActorID, action), err)
	}
	if !c.Active(s.now) {
		s.stage(func(w store.Writer) error {
			return w.DeleteCooldown(s.ctx, f.ActorID, action)
		})
		return nil, nil
	}
	return c, nil
}

func (s *session) recordSuccess(id actor.ID, action string) (cooldown.Cooldown, error) {
	f, err := s.createOrGet(id, nil)
	if err != nil {
		return cooldown.Cooldown{}, err
	}
	f.TotalSuccessfulActions++
	f.RecordAction(action, s.now, s.e.cfg.historyRetention())
	f.AdjustTrust(+1)
	f.RecalculateRiskLevel()
	s.markDirty(f)

	acts, err := s.activitiesOf(id)
	if err != nil {
		return cooldown.Cooldown{}, err
	}
	minutes := s.e.calculator.Minutes(appcooldown.Input{
		Whitelisted:      s.isListed(list.Whitelist, id),
		Blacklisted:      s.isListed(list.Blacklist, id),
		TrustScore:       f.TrustScore,
		RiskLevel:        f.RiskLevel,
		FailedAttempts:   f.FailedAttempts,
		RecentActivities: activity.CountSince(acts, s.now.Add(-common.RecentActivityWindow)),
	})
	c := cooldown.Cooldown{
		ActorID:   id,
		Action:    action,
		ExpiresAt: s.now.Add(time.Duration(minutes) * time.Minute),
		Minutes:   minutes,
		SetAt:     s.now,
	}
	s.stage(func(w store.Writer) error {
		return w.SaveCooldown(s.ctx, c)
	})
	s.afterCommit(func() {
		cooldownSet(minutes)
	})
	s.e.logger.WithFields(logrus.Fields{
		"actor_id":    id,
		"action":      action,
		"minutes":     minutes,
		"trust_score": f.TrustScore,
	}).Debug("action recorded")
	return c, nil
}

func (s *session) recordFailure(id actor.ID, reason string) error {
	f, err := s.createOrGet(id, nil)
	if err != nil {
		return err
	}
	f.FailedAttempts++
	f.AdjustTrust(-5)
	f.RecalculateRiskLevel()
	s.markDirty(f)
	s.e.logger.WithFields(logrus.Fields{
		"actor_id":        id,
		"reason":          reason,
		"failed_attempts": f.FailedAttempts,
		"trust_score":     f.TrustScore,
	}).Debug("failure recorded")

	if f.FailedAttempts >= 3 {
		details := fmt.Sprintf("%d failed attempts", f.FailedAttempts)
		if reason != "" {
			details += ": " + reason
		}
		return s.recordActivity(f, activity.TypeMultipleAttempts, details)
	}
	return nil
}

// cleanText trims free text and caps it at maxTextLength bytes.
func cleanText(text string) string {
	t := strings.TrimSpace(text)
	if len(t) > maxTextLength {
		t = t[:maxTextLength]
	}
	return strings.ToValidUTF8(t, "")
}

func nextUTCMidnight(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

func secondsUntil(now, then time.Time) int64 {
	if !then.After(now) {
		return 0
	}
	return int64(math.Ceil(then.Sub(now).Seconds()))
}
