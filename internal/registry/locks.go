package registry

import (
	"sync"

	"golang.org/x/text/cases"
)

// Locks serializes work on program names.
//
// Lock holds one name exclusively. Names are keyed by their case fold, so
// "Snake" and "snake" exclude each other just as they share a directory
// on case-insensitive filesystems. LockAll excludes every name at once and
// is held by bulk sweeps.
//
// Thread-safety: all methods are safe for concurrent use. Registry reads
// do not take locks.
type Locks struct {
	all   sync.RWMutex
	mu    sync.Mutex
	names map[string]*nameLock
}

type nameLock struct {
	mu   sync.Mutex
	refs int
}

// NewLocks creates an empty lock set.
func NewLocks() *Locks {
	return &Locks{names: make(map[string]*nameLock)}
}

// Lock blocks until name is free and returns the unlock function.
func (l *Locks) Lock(name string) func() {
	name = foldKey(name)
	l.all.RLock()

	l.mu.Lock()
	nl, ok := l.names[name]
	if !ok {
		nl = &nameLock{}
		l.names[name] = nl
	}
	nl.refs++
	l.mu.Unlock()

	nl.mu.Lock()
	return func() {
		nl.mu.Unlock()

		l.mu.Lock()
		nl.refs--
		if nl.refs == 0 {
			delete(l.names, name)
		}
		l.mu.Unlock()

		l.all.RUnlock()
	}
}

// LockAll blocks until no name is held and returns the unlock function.
func (l *Locks) LockAll() func() {
	l.all.Lock()
	return l.all.Unlock
}

// foldKey returns the case-insensitive identity of a program name.
func foldKey(name string) string {
	return cases.Fold().String(name)
}
