package ledger

import (
	"sort"
	"sync"
)

// keyedMutex hands out one mutex per key. An entry lives only while some
// caller holds or waits for it, so keys that are never seen again do not
// accumulate.
type keyedMutex struct {
	mu    sync.Mutex // protects locks
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int // holders plus waiters, guarded by keyedMutex.mu
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) lock(key string) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
}

func (k *keyedMutex) unlock(key string) {
	k.mu.Lock()
	m := k.locks[key]
	m.refs--
	if m.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	m.Unlock()
}

// lockAll locks every distinct key in ascending order and returns the
// matching unlock. The fixed order keeps opposite transfers from deadlocking.
func (k *keyedMutex) lockAll(keys ...string) func() {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	var held []string
	for i, key := range sorted {
		if i > 0 && sorted[i-1] == key {
			continue
		}
		k.lock(key)
		held = append(held, key)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			k.unlock(held[i])
		}
	}
}

// size is the number of live entries.
func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
