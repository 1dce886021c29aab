package sessions

import (
	"sync"

	"github.com/google/uuid"
)

type refLock struct {
	sync.Mutex
	refs int
}

// keyedLocks hands out one mutex per key, dropping it when no holder or
// waiter remains.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*refLock
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[uuid.UUID]*refLock)}
}

func (k *keyedLocks) lock(key uuid.UUID) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
