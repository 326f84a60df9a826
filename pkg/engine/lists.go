package engine

import (
	"context"
	"fmt"

	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	"github.com/NeuralTrust/AltGuard/pkg/domain/event"
	"github.com/NeuralTrust/AltGuard/pkg/domain/fingerprint"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
	"github.com/sirupsen/logrus"
)

func (e *Engine) Blacklist(ctx context.Context, id actor.ID, reason, addedBy string) error {
	reason, err := list.ValidateReason(reason)
	if err != nil {
		return err
	}
	err = e.withActor(ctx, id, func(s *session) error {
		f, err := s.bare(id)
		if err != nil {
			return err
		}
		return s.blacklist(f, reason, cleanText(addedBy), false)
	})
	if err != nil {
		return err
	}
	e.logger.WithFields(logrus.Fields{
		"actor_id": id,
		"reason":   reason,
		"added_by": addedBy,
	}).Info("actor blacklisted")
	return nil
}

func (e *Engine) Whitelist(ctx context.Context, id actor.ID, reason, addedBy string) error {
	reason, err := list.ValidateReason(reason)
	if err != nil {
		return err
	}
	err = e.withActor(ctx, id, func(s *session) error {
		f, err := s.bare(id)
		if err != nil {
			return err
		}
		s.whitelist(f, reason, cleanText(addedBy))
		return nil
	})
	if err != nil {
		return err
	}
	e.logger.WithFields(logrus.Fields{
		"actor_id": id,
		"reason":   reason,
		"added_by": addedBy,
	}).Info("actor whitelisted")
	return nil
}

// RemoveFromBlacklist reports false when the actor was not blacklisted. A
// removed actor restarts at a cautious score instead of full trust.
func (e *Engine) RemoveFromBlacklist(ctx context.Context, id actor.ID) (bool, error) {
	removed := false
	err := e.withActor(ctx, id, func(s *session) error {
		if !s.isListed(list.Blacklist, id) {
			return nil
		}
		s.removeFromList(list.Blacklist, id)
		removed = true

		f, ok, err := s.fingerprint(id)
		if err != nil {
			return err
		}
		if !ok {
			f = fingerprint.New(id, s.now)
		}
		f.SetTrust(50)
		f.RemoveFlag(fingerprint.FlagBlacklisted)
		f.RiskLevel = fingerprint.RiskMedium
		f.Touch(s.now)
		s.track(f)
		s.emit(event.ActorUnblacklisted, f, "")
		s.afterCommit(func() {
			listChanged(list.Blacklist, "remove")
		})
		return nil
	})
	if err != nil {
		return false, err
	}
	if removed {
		e.logger.WithField("actor_id", id).Info("actor removed from blacklist")
	}
	return removed, nil
}

func (e *Engine) RemoveFromWhitelist(ctx context.Context, id actor.ID) (bool, error) {
	removed := false
	err := e.withActor(ctx, id, func(s *session) error {
		if !s.isListed(list.Whitelist, id) {
			return nil
		}
		s.removeFromList(list.Whitelist, id)
		removed = true

		f, ok, err := s.fingerprint(id)
		if err != nil {
			return err
		}
		if ok {
			s.emit(event.ActorUnwhitelisted, f, "")
		}
		s.afterCommit(func() {
			listChanged(list.Whitelist, "remove")
		})
		return nil
	})
	if err != nil {
		return false, err
	}
	if removed {
		e.logger.WithField("actor_id", id).Info("actor removed from whitelist")
	}
	return removed, nil
}

func (e *Engine) IsBlacklisted(ctx context.Context, id actor.ID) (bool, error) {
	return e.isListed(ctx, list.Blacklist, id)
}

func (e *Engine) IsWhitelisted(ctx context.Context, id actor.ID) (bool, error) {
	return e.isListed(ctx, list.Whitelist, id)
}

func (e *Engine) isListed(ctx context.Context, kind list.Kind, id actor.ID) (bool, error) {
	if err := id.Validate(); err != nil {
		return false, err
	}
	if err := e.lists.ensure(ctx, e.store); err != nil {
		return false, fmt.Errorf("load lists: %w", err)
	}
	return e.lists.has(kind, id), nil
}

func (e *Engine) ListBlacklist(ctx context.Context) ([]list.Entry, error) {
	return e.listEntries(ctx, list.Blacklist)
}

func (e *Engine) ListWhitelist(ctx context.Context) ([]list.Entry, error) {
	return e.listEntries(ctx, list.Whitelist)
}

func (e *Engine) listEntries(ctx context.Context, kind list.Kind) ([]list.Entry, error) {
	if err := e.lists.ensure(ctx, e.store); err != nil {
		return nil, fmt.Errorf("load lists: %w", err)
	}
	return e.lists.entries(kind), nil
}

// ReloadLists refreshes the in-memory lists from the store. Hosts call it
// when another instance changed a list. Actor operations are paused while
// the lists are swapped.
func (e *Engine) ReloadLists(ctx context.Context) error {
	e.cleanupMu.Lock()
	defer e.cleanupMu.Unlock()
	if err := e.lists.reload(ctx, e.store); err != nil {
		return fmt.Errorf("reload lists: %w", err)
	}
	e.logger.WithFields(logrus.Fields{
		"blacklist_size": e.lists.size(list.Blacklist),
		"whitelist_size": e.lists.size(list.Whitelist),
	}).Debug("lists reloaded")
	return nil
}
