// Package keylock serializes work per key. Locks are reference counted so
// idle keys do not accumulate.
package keylock

import (
	"sync"

	"github.com/annchain/schain-manager/types"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

type KeyLock struct {
	mu    sync.Mutex
	locks map[types.GroupID]*entry
}

func New() *KeyLock {
	return &KeyLock{locks: make(map[types.GroupID]*entry)}
}

func (k *KeyLock) Lock(key types.GroupID) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

func (k *KeyLock) Unlock(key types.GroupID) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		panic("keylock: unlock of unlocked key " + key.Hex())
	}
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}

// Len returns the number of keys currently held or waited on.
func (k *KeyLock) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
