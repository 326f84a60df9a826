package identity

import (
	"context"
	"sync"

	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	"github.com/NeuralTrust/AltGuard/pkg/domain/identity"
)

// StaticLookup serves facts from memory. Unknown actors resolve to empty
// facts.
type StaticLookup struct {
	mu    sync.RWMutex
	facts map[actor.ID]identity.Facts
}

var _ identity.Lookup = (*StaticLookup)(nil)

func NewStaticLookup(facts map[actor.ID]identity.Facts) *StaticLookup {
	copied := make(map[actor.ID]identity.Facts, len(facts))
	for id, f := range facts {
		copied[id] = f
	}
	return &StaticLookup{facts: copied}
}

func (l *StaticLookup) Set(id actor.ID, facts identity.Facts) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.facts[id] = facts
}

func (l *StaticLookup) Resolve(_ context.Context, id actor.ID) (identity.Facts, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.facts[id], nil
}
