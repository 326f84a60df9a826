package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
)

type listChange struct {
	entry list.Entry
	added bool
}

// listCache keeps both lists in memory for O(1) membership checks. It is
// hydrated from the store on first use and updated only after a commit.
type listCache struct {
	mu     sync.RWMutex
	loaded bool
	sets   map[list.Kind]map[actor.ID]list.Entry
}

func newListCache() *listCache {
	return &listCache{
		sets: map[list.Kind]map[actor.ID]list.Entry{
			list.Blacklist: {},
			list.Whitelist: {},
		},
	}
}

func (c *listCache) ensure(ctx context.Context, r list.Reader) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}
	return c.loadLocked(ctx, r)
}

// reload replaces both sets with the current store contents.
func (c *listCache) reload(ctx context.Context, r list.Reader) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked(ctx, r)
}

func (c *listCache) loadLocked(ctx context.Context, r list.Reader) error {
	sets := make(map[list.Kind]map[actor.ID]list.Entry, 2)
	for _, kind := range []list.Kind{list.Blacklist, list.Whitelist} {
		entries, err := r.ListEntries(ctx, kind)
		if err != nil {
			return err
		}
		set := make(map[actor.ID]list.Entry, len(entries))
		for _, e := range entries {
			set[e.ActorID] = e
		}
		sets[kind] = set
	}
	c.sets = sets
	c.loaded = true
	return nil
}

func (c *listCache) has(kind list.Kind, id actor.ID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.sets[kind][id]
	return ok
}

func (c *listCache) apply(changes []listChange) {
	if len(changes) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range changes {
		if ch.added {
			c.sets[ch.entry.Kind][ch.entry.ActorID] = ch.entry
		} else {
			delete(c.sets[ch.entry.Kind], ch.entry.ActorID)
		}
	}
}

func (c *listCache) size(kind list.Kind) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sets[kind])
}

// entries returns the members of kind, oldest first.
func (c *listCache) entries(kind list.Kind) []list.Entry {
	c.mu.RLock()
	out := make([]list.Entry, 0, len(c.sets[kind]))
	for _, e := range c.sets[kind] {
		out = append(out, e)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].ActorID < out[j].ActorID
		}
		return out[i].AddedAt.Before(out[j].AddedAt)
	})
	return out
}
