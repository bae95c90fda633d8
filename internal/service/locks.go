package service

import (
	"sort"
	"sync"
)

// ScopeLocks serializes reorders per scope. Mutations take the write lock;
// computations that need a stable ordering snapshot take the read lock.
// An entry lives only while someone holds or waits on it.
type ScopeLocks struct {
	mu    sync.Mutex
	locks map[string]*scopeLock
}

type scopeLock struct {
	sync.RWMutex
	refs int
}

func NewScopeLocks() *ScopeLocks {
	return &ScopeLocks{locks: make(map[string]*scopeLock)}
}

func (l *ScopeLocks) acquire(scopeID string) *scopeLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[scopeID]
	if !ok {
		m = &scopeLock{}
		l.locks[scopeID] = m
	}
	m.refs++
	return m
}

func (l *ScopeLocks) release(scopeID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := l.locks[scopeID]
	m.refs--
	if m.refs == 0 {
		delete(l.locks, scopeID)
	}
}

// Lock write-locks every given scope, in ID order so two callers locking
// the same pair cannot deadlock, and returns the matching unlock.
func (l *ScopeLocks) Lock(scopeIDs ...string) func() {
	ids := dedupeSorted(scopeIDs)
	held := make([]*scopeLock, len(ids))
	for i, id := range ids {
		held[i] = l.acquire(id)
		held[i].Lock()
	}
	return func() {
		for i := len(ids) - 1; i >= 0; i-- {
			held[i].Unlock()
			l.release(ids[i])
		}
	}
}

// RLock read-locks one scope and returns the matching unlock.
func (l *ScopeLocks) RLock(scopeID string) func() {
	m := l.acquire(scopeID)
	m.RLock()
	return func() {
		m.RUnlock()
		l.release(scopeID)
	}
}

func (l *ScopeLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func dedupeSorted(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
