package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/domain/activity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	domain "github.com/NeuralTrust/AltGuard/pkg/domain/errors"
	"github.com/NeuralTrust/AltGuard/pkg/domain/event"
	"github.com/NeuralTrust/AltGuard/pkg/domain/fingerprint"
	"github.com/NeuralTrust/AltGuard/pkg/domain/identity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
	"github.com/NeuralTrust/AltGuard/pkg/domain/store"
)

// session is the unit of work behind one engine operation. Reads are cached,
// writes are staged, and everything is flushed by commit in one
// store.Atomically call. Nothing outside the session changes before that.
type session struct {
	ctx context.Context
	e   *Engine
	now time.Time

	fingerprints map[actor.ID]*fingerprint.Fingerprint
	initialRisk  map[actor.ID]fingerprint.RiskLevel
	dirty        map[actor.ID]bool
	activities   map[actor.ID][]activity.SuspiciousActivity
	population   []*fingerprint.Fingerprint
	listOverlay  map[list.Kind]map[actor.ID]bool
	prefetched   *identity.Facts

	writes      []func(w store.Writer) error
	listChanges []listChange
	events      []event.Event
	onCommit    []func()
}

func (e *Engine) newSession(ctx context.Context) *session {
	return &session{
		ctx:          ctx,
		e:            e,
		now:          e.clock.Now(),
		fingerprints: make(map[actor.ID]*fingerprint.Fingerprint),
		initialRisk:  make(map[actor.ID]fingerprint.RiskLevel),
		dirty:        make(map[actor.ID]bool),
		activities:   make(map[actor.ID][]activity.SuspiciousActivity),
		listOverlay: map[list.Kind]map[actor.ID]bool{
			list.Blacklist: {},
			list.Whitelist: {},
		},
	}
}

// fingerprint returns the working copy for id, or false if none exists.
func (s *session) fingerprint(id actor.ID) (*fingerprint.Fingerprint, bool, error) {
	if f, ok := s.fingerprints[id]; ok {
		return f, true, nil
	}
	f, err := s.e.store.LoadFingerprint(s.ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, false, nil
		}
		storeFailed("load_fingerprint")
		return nil, false, fmt.Errorf("load fingerprint %s: %w", id, err)
	}
	s.fingerprints[id] = f
	s.initialRisk[id] = f.RiskLevel
	return f, true, nil
}

func (s *session) track(f *fingerprint.Fingerprint) {
	s.fingerprints[f.ActorID] = f
	if _, ok := s.initialRisk[f.ActorID]; !ok {
		s.initialRisk[f.ActorID] = f.RiskLevel
	}
	s.dirty[f.ActorID] = true
}

func (s *session) markDirty(f *fingerprint.Fingerprint) {
	s.dirty[f.ActorID] = true
}

func (s *session) activitiesOf(id actor.ID) ([]activity.SuspiciousActivity, error) {
	if acts, ok := s.activities[id]; ok {
		return acts, nil
	}
	acts, err := s.e.store.ListActivities(s.ctx, id)
	if err != nil {
		storeFailed("list_activities")
		return nil, fmt.Errorf("list activities of %s: %w", id, err)
	}
	s.activities[id] = acts
	return acts, nil
}

// allFingerprints is a read-consistent snapshot of every stored fingerprint,
// taken once per session.
func (s *session) allFingerprints() ([]*fingerprint.Fingerprint, error) {
	if s.population != nil {
		return s.population, nil
	}
	all, err := s.e.store.ListFingerprints(s.ctx)
	if err != nil {
		storeFailed("list_fingerprints")
		return nil, fmt.Errorf("list fingerprints: %w", err)
	}
	if all == nil {
		all = []*fingerprint.Fingerprint{}
	}
	s.population = all
	return all, nil
}

func (s *session) isListed(kind list.Kind, id actor.ID) bool {
	if v, ok := s.listOverlay[kind][id]; ok {
		return v
	}
	return s.e.lists.has(kind, id)
}

func (s *session) addToList(entry list.Entry) {
	s.listOverlay[entry.Kind][entry.ActorID] = true
	s.listChanges = append(s.listChanges, listChange{entry: entry, added: true})
	s.stage(func(w store.Writer) error {
		return w.AddToList(s.ctx, entry)
	})
}

func (s *session) removeFromList(kind list.Kind, id actor.ID) {
	s.listOverlay[kind][id] = false
	s.listChanges = append(s.listChanges, listChange{entry: list.Entry{Kind: kind, ActorID: id}})
	s.stage(func(w store.Writer) error {
		return w.RemoveFromList(s.ctx, kind, id)
	})
}

func (s *session) stage(write func(w store.Writer) error) {
	s.writes = append(s.writes, write)
}

func (s *session) emit(t event.Type, f *fingerprint.Fingerprint, reason string) {
	s.events = append(s.events, event.Event{
		Type:       t,
		ActorID:    f.ActorID,
		Reason:     reason,
		TrustScore: f.TrustScore,
		RiskLevel:  string(f.RiskLevel),
		OccurredAt: s.now,
	})
}

func (s *session) afterCommit(fn func()) {
	s.onCommit = append(s.onCommit, fn)
}

func (s *session) commit() error {
	ids := make([]actor.ID, 0, len(s.dirty))
	for id := range s.dirty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		f := s.fingerprints[id]
		if before := s.initialRisk[id]; before != "" && before != f.RiskLevel {
			s.emit(event.RiskLevelChanged, f, fmt.Sprintf("%s -> %s", before, f.RiskLevel))
		}
	}

	if len(s.writes) > 0 || len(ids) > 0 {
		err := s.e.store.Atomically(s.ctx, func(w store.Writer) error {
			for _, write := range s.writes {
				if err := write(w); err != nil {
					return err
				}
			}
			for _, id := range ids {
				if err := w.SaveFingerprint(s.ctx, s.fingerprints[id]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			storeFailed("commit")
			return fmt.Errorf("commit: %w", err)
		}
	}

	s.e.lists.apply(s.listChanges)
	for _, fn := range s.onCommit {
		fn()
	}
	s.e.publish(s.ctx, s.events)
	return nil
}
