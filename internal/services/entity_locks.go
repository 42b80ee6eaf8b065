package services

import (
	"sync"

	"github.com/google/uuid"
)

// EntityLocks serializes operations per policy and per claim without a
// global lock, so unrelated policies never contend. Lock ordering is always
// claim before policy; no code path acquires them the other way around.
type EntityLocks struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

func NewEntityLocks() *EntityLocks {
	return &EntityLocks{locks: make(map[string]*refMutex)}
}

// LockPolicy blocks until the per-policy lock is held and returns the
// release function.
func (l *EntityLocks) LockPolicy(id uuid.UUID) func() {
	return l.lock("policy:" + id.String())
}

// LockClaim blocks until the per-claim lock is held and returns the release
// function.
func (l *EntityLocks) LockClaim(id uuid.UUID) func() {
	return l.lock("claim:" + id.String())
}

func (l *EntityLocks) lock(key string) func() {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &refMutex{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
