package engine

import (
	"fmt"

	"github.com/NeuralTrust/AltGuard/pkg/common"
	"github.com/NeuralTrust/AltGuard/pkg/domain/activity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/event"
	"github.com/NeuralTrust/AltGuard/pkg/domain/fingerprint"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
	"github.com/NeuralTrust/AltGuard/pkg/domain/store"
	"github.com/sirupsen/logrus"
)

// recordActivity appends a suspicious activity for f and runs the auto-ban
// check.
func (s *session) recordActivity(
	f *fingerprint.Fingerprint,
	t activity.Type,
	details string,
) error {
	if _, err := s.appendActivity(f, t, details); err != nil {
		return err
	}
	return s.checkAutoBan(f)
}

func (s *session) appendActivity(
	f *fingerprint.Fingerprint,
	t activity.Type,
	details string,
) (activity.SuspiciousActivity, error) {
	acts, err := s.activitiesOf(f.ActorID)
	if err != nil {
		return activity.SuspiciousActivity{}, err
	}
	a := activity.New(f.ActorID, t, details, s.now)
	s.activities[f.ActorID] = append(acts, a)
	s.stage(func(w store.Writer) error {
		return w.AppendActivity(s.ctx, a)
	})
	s.markDirty(f)
	s.afterCommit(func() {
		activityRecorded(t)
	})
	s.e.logger.WithFields(logrus.Fields{
		"actor_id": f.ActorID,
		"type":     t,
		"severity": a.Severity,
	}).Debug("suspicious activity recorded")
	return a, nil
}

// checkAutoBan blacklists f once its 24h severity reaches the threshold.
// Below the threshold the trust score is capped by the severity total, so a
// re-run over the same log never changes the result.
func (s *session) checkAutoBan(f *fingerprint.Fingerprint) error {
	if s.isListed(list.Whitelist, f.ActorID) || s.isListed(list.Blacklist, f.ActorID) {
		return nil
	}
	acts, err := s.activitiesOf(f.ActorID)
	if err != nil {
		return err
	}
	total := activity.SumSeverity(acts, s.now.Add(-common.AutoBanWindow))
	if total >= s.e.cfg.AutoBanPoints() {
		reason := fmt.Sprintf("automatic: %d severity points in 24h", total)
		s.e.logger.WithFields(logrus.Fields{
			"actor_id": f.ActorID,
			"severity": total,
		}).Warn("actor auto-banned")
		s.afterCommit(autoBanned)
		return s.blacklist(f, reason, common.SystemAddedBy, true)
	}
	f.SetTrust(min(f.TrustScore, max(0, 100-total*2)))
	f.RecalculateRiskLevel()
	s.markDirty(f)
	return nil
}

func (s *session) blacklist(f *fingerprint.Fingerprint, reason, addedBy string, automatic bool) error {
	s.addToList(list.Entry{
		Kind:    list.Blacklist,
		ActorID: f.ActorID,
		Reason:  reason,
		AddedBy: addedBy,
		AddedAt: s.now,
	})
	f.SetTrust(0)
	f.AddFlag(fingerprint.FlagBlacklisted)
	evt := event.ActorBlacklisted
	if automatic {
		f.AddFlag(fingerprint.FlagAutoBanned)
		evt = event.ActorAutoBanned
	}
	f.RecalculateRiskLevel()
	s.markDirty(f)
	s.emit(evt, f, reason)
	s.afterCommit(func() {
		listChanged(list.Blacklist, "add")
	})
	return s.recordActivity(f, activity.TypeBlacklisted, reason)
}

// whitelist also drops any blacklist membership so the restored score is
// not immediately overridden.
func (s *session) whitelist(f *fingerprint.Fingerprint, reason, addedBy string) {
	s.addToList(list.Entry{
		Kind:    list.Whitelist,
		ActorID: f.ActorID,
		Reason:  reason,
		AddedBy: addedBy,
		AddedAt: s.now,
	})
	if s.isListed(list.Blacklist, f.ActorID) {
		s.removeFromList(list.Blacklist, f.ActorID)
		s.afterCommit(func() {
			listChanged(list.Blacklist, "remove")
		})
	}
	f.SetTrust(fingerprint.MaxTrustScore)
	f.RemoveFlag(fingerprint.FlagBlacklisted)
	f.RiskLevel = fingerprint.RiskLow
	s.markDirty(f)
	s.emit(event.ActorWhitelisted, f, reason)
	s.afterCommit(func() {
		listChanged(list.Whitelist, "add")
	})
}
