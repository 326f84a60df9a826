package engine

import (
	"sync"

	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
)

type actorLock struct {
	mu   sync.Mutex
	refs int
}

// actorLocks hands out one mutex per actor id and forgets it once nobody
// holds or waits for it.
type actorLocks struct {
	mu    sync.Mutex
	locks map[actor.ID]*actorLock
}

func newActorLocks() *actorLocks {
	return &actorLocks{locks: make(map[actor.ID]*actorLock)}
}

func (l *actorLocks) Lock(id actor.ID) func() {
	l.mu.Lock()
	al, ok := l.locks[id]
	if !ok {
		al = &actorLock{}
		l.locks[id] = al
	}
	al.refs++
	l.mu.Unlock()

	al.mu.Lock()
	return func() {
		al.mu.Unlock()
		l.mu.Lock()
		al.refs--
		if al.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *actorLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
