package identity

import (
	"context"

	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	"github.com/NeuralTrust/AltGuard/pkg/domain/identity"
	"github.com/NeuralTrust/AltGuard/pkg/infra/cache"
	"golang.org/x/sync/singleflight"
)

// CachedLookup memoizes successful lookups in a TTLMap and collapses
// concurrent lookups of the same actor into one call. Errors are not cached.
type CachedLookup struct {
	next  identity.Lookup
	cache *cache.TTLMap
	group singleflight.Group
}

var _ identity.Lookup = (*CachedLookup)(nil)

func NewCachedLookup(next identity.Lookup, ttlMap *cache.TTLMap) *CachedLookup {
	return &CachedLookup{next: next, cache: ttlMap}
}

func (l *CachedLookup) Resolve(ctx context.Context, id actor.ID) (identity.Facts, error) {
	key := id.String()
	if v, ok := l.cache.Get(key); ok {
		if facts, ok := v.(identity.Facts); ok {
			return facts, nil
		}
	}
	v, err, _ := l.group.Do(key, func() (interface{}, error) {
		facts, err := l.next.Resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		l.cache.Set(key, facts)
		return facts, nil
	})
	if err != nil {
		return identity.Facts{}, err
	}
	return v.(identity.Facts), nil
}
