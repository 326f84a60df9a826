package engine

import (
	"fmt"
	"strings"

	"github.com/NeuralTrust/AltGuard/pkg/app/similarity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/activity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	"github.com/NeuralTrust/AltGuard/pkg/domain/fingerprint"
	"github.com/NeuralTrust/AltGuard/pkg/domain/identity"
	"github.com/sirupsen/logrus"
)

// createOrGet returns the fingerprint of id, creating it on first sight.
// Identity facts are taken from facts when given, then from the facts
// prefetched outside the locks, otherwise resolved through the lookup once
// per actor.
func (s *session) createOrGet(id actor.ID, facts *identity.Facts) (*fingerprint.Fingerprint, error) {
	f, err := s.bare(id)
	if err != nil {
		return nil, err
	}
	if facts == nil && !f.IdentityResolved && s.e.lookup != nil {
		if s.prefetched != nil {
			facts = s.prefetched
		} else {
			resolved, err := s.e.lookup.Resolve(s.ctx, id)
			if err != nil {
				return nil, fmt.Errorf("resolve identity of %s: %w", id, err)
			}
			facts = &resolved
		}
	}
	if facts != nil {
		clean := facts.Trimmed()
		if err := clean.Validate(); err != nil {
			return nil, err
		}
		if err := s.attachIdentity(f, clean); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// bare returns the fingerprint of id without consulting the identity lookup.
func (s *session) bare(id actor.ID) (*fingerprint.Fingerprint, error) {
	f, ok, err := s.fingerprint(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		f = fingerprint.New(id, s.now)
		s.e.logger.WithField("actor_id", id).Debug("fingerprint created")
	}
	f.Touch(s.now)
	s.track(f)
	return f, nil
}

// attachIdentity refreshes the mutable identity facts. The account age, the
// similarity check and the duplicate check each run only once: when the
// creation time, the first name, or a new external identity is attached.
func (s *session) attachIdentity(f *fingerprint.Fingerprint, facts identity.Facts) error {
	hadNames := len(f.Names()) > 0
	newExternal := facts.ExternalIdentity != "" &&
		!strings.EqualFold(facts.ExternalIdentity, f.ExternalIdentity)

	if facts.DisplayName != "" {
		f.DisplayName = facts.DisplayName
	}
	if facts.ExternalIdentity != "" {
		f.ExternalIdentity = facts.ExternalIdentity
	}
	f.IdentityResolved = true

	if facts.AccountCreatedAt != nil && f.FreezeAccountAge(*facts.AccountCreatedAt, s.now) &&
		f.IsAccountTooNew(s.e.cfg.MinAccountAgeHours) {
		f.AddFlag(fingerprint.FlagNewAccount)
		f.AdjustTrust(-20)
		f.RecalculateRiskLevel()
		details := fmt.Sprintf("account age %.1fh below minimum %.1fh", *f.AccountAgeHours, s.e.cfg.MinAccountAgeHours)
		if err := s.recordActivity(f, activity.TypeNewAccount, details); err != nil {
			return err
		}
	}

	if !hadNames && len(f.Names()) > 0 {
		if err := s.checkSimilarity(f); err != nil {
			return err
		}
	}
	if newExternal {
		if err := s.checkDuplicateIdentity(f); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) checkSimilarity(f *fingerprint.Fingerprint) error {
	all, err := s.allFingerprints()
	if err != nil {
		return err
	}
	suspicious, matches := s.e.matcher.FindSimilar(f.ActorID, f.Names(), all)
	if !suspicious {
		return nil
	}
	s.e.logger.WithFields(logrus.Fields{
		"actor_id": f.ActorID,
		"matches":  len(matches),
		"best":     matches[0].Ratio,
	}).Info("similar username detected")

	f.AdjustTrust(-30)
	f.AddFlag(fingerprint.FlagSimilarUsername)
	f.RecalculateRiskLevel()
	return s.recordActivity(f, activity.TypeSimilarUsername, describeMatches(matches))
}

func (s *session) checkDuplicateIdentity(f *fingerprint.Fingerprint) error {
	all, err := s.allFingerprints()
	if err != nil {
		return err
	}
	var owners []string
	for _, other := range all {
		if other.ActorID != f.ActorID && strings.EqualFold(other.ExternalIdentity, f.ExternalIdentity) {
			owners = append(owners, other.ActorID.String())
		}
	}
	if len(owners) == 0 {
		return nil
	}
	f.AddFlag(fingerprint.FlagDuplicateFingerprint)
	details := fmt.Sprintf("external identity %q already linked to %s", f.ExternalIdentity, strings.Join(owners, ","))
	return s.recordActivity(f, activity.TypeDuplicateFingerprint, details)
}

func describeMatches(matches []similarity.Match) string {
	parts := make([]string, 0, len(matches))
	for i, m := range matches {
		if i == 5 {
			parts = append(parts, fmt.Sprintf("+%d more", len(matches)-i))
			break
		}
		parts = append(parts, fmt.Sprintf("%s(%s %.2f)", m.MatchedName, m.ActorID, m.Ratio))
	}
	return "similar to " + strings.Join(parts, ", ")
}
