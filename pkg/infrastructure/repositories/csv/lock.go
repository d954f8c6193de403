package csv

import (
	"path/filepath"
	"sync"
)

// LockTable hands out one exclusive lock per file path. Locks are created on
// first use and never removed; the table is bounded by the number of files
// the store touches.
type LockTable struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

// NewLockTable creates an empty lock table
func NewLockTable() *LockTable {
	return &LockTable{locks: make(map[string]*pathLock)}
}

// With runs fn while holding the lock for path. The lock is released on every
// exit path, including a panic in fn.
func (t *LockTable) With(path string, fn func() error) error {
	l := t.lockFor(path)
	l.acquire()
	defer l.release()
	return fn()
}

func (t *LockTable) lockFor(path string) *pathLock {
	key := filepath.Clean(path)
	if abs, err := filepath.Abs(key); err == nil {
		key = abs
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.locks[key]
	if !ok {
		l = newPathLock()
		t.locks[key] = l
	}
	return l
}

// pathLock is a ticket lock: waiters are admitted strictly in arrival order.
type pathLock struct {
	mu      sync.Mutex
	cond    *sync.Cond
	next    uint64
	serving uint64
}

func newPathLock() *pathLock {
	l := &pathLock{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

func (l *pathLock) acquire() {
	l.mu.Lock()
	ticket := l.next
	l.next++
	for l.serving != ticket {
		l.cond.Wait()
	}
	l.mu.Unlock()
}

func (l *pathLock) release() {
	l.mu.Lock()
	l.serving++
	l.mu.Unlock()
	l.cond.Broadcast()
}
