package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/domain/activity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	"github.com/NeuralTrust/AltGuard/pkg/domain/cooldown"
	domain "github.com/NeuralTrust/AltGuard/pkg/domain/errors"
	"github.com/NeuralTrust/AltGuard/pkg/domain/fingerprint"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
	"github.com/NeuralTrust/AltGuard/pkg/domain/store"
)

type memoryData struct {
	fingerprints map[actor.ID]*fingerprint.Fingerprint
	activities   map[actor.ID][]activity.SuspiciousActivity
	cooldowns    map[string]cooldown.Cooldown
	lists        map[list.Kind]map[actor.ID]list.Entry
}

// MemoryStore keeps everything in process. Values are copied on the way in
// and out so callers never share state with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	data memoryData
}

var _ store.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: memoryData{
			fingerprints: make(map[actor.ID]*fingerprint.Fingerprint),
			activities:   make(map[actor.ID][]activity.SuspiciousActivity),
			cooldowns:    make(map[string]cooldown.Cooldown),
			lists: map[list.Kind]map[actor.ID]list.Entry{
				list.Blacklist: {},
				list.Whitelist: {},
			},
		},
	}
}

func (s *MemoryStore) LoadFingerprint(_ context.Context, id actor.ID) (*fingerprint.Fingerprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.data.fingerprints[id]
	if !ok {
		return nil, domain.NewNotFoundError("fingerprint", id)
	}
	return f.Clone(), nil
}

func (s *MemoryStore) ListFingerprints(_ context.Context) ([]*fingerprint.Fingerprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*fingerprint.Fingerprint, 0, len(s.data.fingerprints))
	for _, f := range s.data.fingerprints {
		out = append(out, f.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActorID < out[j].ActorID })
	return out, nil
}

func (s *MemoryStore) ListActivities(_ context.Context, id actor.ID) ([]activity.SuspiciousActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]activity.SuspiciousActivity{}, s.data.activities[id]...), nil
}

func (s *MemoryStore) CountActivitiesSince(_ context.Context, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, acts := range s.data.activities {
		n += int64(activity.CountSince(acts, since))
	}
	return n, nil
}

func (s *MemoryStore) LoadCooldown(_ context.Context, id actor.ID, action string) (*cooldown.Cooldown, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.data.cooldowns[cooldown.Key(id, action)]
	if !ok {
		return nil, domain.NewNotFoundError("cooldown", cooldown.Cooldown{ActorID: id, Action: action})
	}
	return &c, nil
}

func (s *MemoryStore) ListCooldowns(_ context.Context) ([]cooldown.Cooldown, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]cooldown.Cooldown, 0, len(s.data.cooldowns))
	for _, c := range s.data.cooldowns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (s *MemoryStore) ListEntries(_ context.Context, kind list.Kind) ([]list.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]list.Entry, 0, len(s.data.lists[kind]))
	for _, e := range s.data.lists[kind] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActorID < out[j].ActorID })
	return out, nil
}

func (s *MemoryStore) SaveFingerprint(ctx context.Context, f *fingerprint.Fingerprint) error {
	return s.apply(func(d *memoryData) { d.saveFingerprint(f.Clone()) })
}

func (s *MemoryStore) AppendActivity(ctx context.Context, a activity.SuspiciousActivity) error {
	return s.apply(func(d *memoryData) { d.appendActivity(a) })
}

func (s *MemoryStore) SaveCooldown(ctx context.Context, c cooldown.Cooldown) error {
	return s.apply(func(d *memoryData) { d.saveCooldown(c) })
}

func (s *MemoryStore) DeleteCooldown(ctx context.Context, id actor.ID, action string) error {
	return s.apply(func(d *memoryData) { d.deleteCooldown(id, action) })
}

func (s *MemoryStore) AddToList(ctx context.Context, e list.Entry) error {
	return s.apply(func(d *memoryData) { d.addToList(e) })
}

func (s *MemoryStore) RemoveFromList(ctx context.Context, kind list.Kind, id actor.ID) error {
	return s.apply(func(d *memoryData) { d.removeFromList(kind, id) })
}

// Atomically buffers the writes of fn and applies them under one lock only
// if fn succeeds.
func (s *MemoryStore) Atomically(ctx context.Context, fn func(w store.Writer) error) error {
	tx := &memoryTx{}
	if err := fn(tx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range tx.ops {
		op(&s.data)
	}
	return nil
}

func (s *MemoryStore) DeleteActivitiesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, acts := range s.data.activities {
		kept := acts[:0]
		for _, a := range acts {
			if a.Timestamp.Before(cutoff) {
				deleted++
				continue
			}
			kept = append(kept, a)
		}
		if len(kept) == 0 {
			delete(s.data.activities, id)
		} else {
			s.data.activities[id] = kept
		}
	}
	return deleted, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) apply(op func(d *memoryData)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	op(&s.data)
	return nil
}

func (d *memoryData) saveFingerprint(f *fingerprint.Fingerprint) {
	d.fingerprints[f.ActorID] = f
}

func (d *memoryData) appendActivity(a activity.SuspiciousActivity) {
	d.activities[a.ActorID] = append(d.activities[a.ActorID], a)
}

func (d *memoryData) saveCooldown(c cooldown.Cooldown) {
	d.cooldowns[c.String()] = c
}

func (d *memoryData) deleteCooldown(id actor.ID, action string) {
	delete(d.cooldowns, cooldown.Key(id, action))
}

func (d *memoryData) addToList(e list.Entry) {
	d.lists[e.Kind][e.ActorID] = e
}

func (d *memoryData) removeFromList(kind list.Kind, id actor.ID) {
	delete(d.lists[kind], id)
}

type memoryTx struct {
	ops []func(d *memoryData)
}

func (t *memoryTx) SaveFingerprint(_ context.Context, f *fingerprint.Fingerprint) error {
	c := f.Clone()
	t.ops = append(t.ops, func(d *memoryData) { d.saveFingerprint(c) })
	return nil
}

func (t *memoryTx) AppendActivity(_ context.Context, a activity.SuspiciousActivity) error {
	t.ops = append(t.ops, func(d *memoryData) { d.appendActivity(a) })
	return nil
}

func (t *memoryTx) SaveCooldown(_ context.Context, c cooldown.Cooldown) error {
	t.ops = append(t.ops, func(d *memoryData) { d.saveCooldown(c) })
	return nil
}

func (t *memoryTx) DeleteCooldown(_ context.Context, id actor.ID, action string) error {
	t.ops = append(t.ops, func(d *memoryData) { d.deleteCooldown(id, action) })
	return nil
}

func (t *memoryTx) AddToList(_ context.Context, e list.Entry) error {
	t.ops = append(t.ops, func(d *memoryData) { d.addToList(e) })
	return nil
}

func (t *memoryTx) RemoveFromList(_ context.Context, kind list.Kind, id actor.ID) error {
	t.ops = append(t.ops, func(d *memoryData) { d.removeFromList(kind, id) })
	return nil
}
