package services

import "sync"

// keyLock provides mutual exclusion scoped per idempotency key, so that
// concurrent creations under distinct keys do not serialize on a single
// global lock. Entries are reference counted and removed once released.
type keyLock struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[string]*lockEntry)}
}

// Lock blocks until the key's lock is held and returns its release func.
func (kl *keyLock) Lock(key string) func() {
	kl.mu.Lock()
	entry, ok := kl.locks[key]
	if !ok {
		entry = &lockEntry{}
		kl.locks[key] = entry
	}
	entry.refs++
	kl.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		kl.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(kl.locks, key)
		}
		kl.mu.Unlock()
	}
}
