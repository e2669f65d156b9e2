// Package control implements the TCP command protocol and the exclusive
// control arbitration between connected sessions.
package control

import "sync"

// Token is the process-wide exclusive control primitive. It carries the
// owning session's id rather than relying on a reentrant lock, so the same
// session can re-acquire without contention regardless of which goroutine
// serves it.
type Token struct {
	mu    sync.Mutex
	owner string
}

// TryAcquire attempts a non-blocking acquisition for the given owner.
// Acquisition by the current holder succeeds.
func (t *Token) TryAcquire(owner string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.owner == "" || t.owner == owner {
		t.owner = owner
		return true
	}
	return false
}

// Release frees the token if owner currently holds it. A release by a
// non-holder is a no-op.
func (t *Token) Release(owner string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.owner == owner {
		t.owner = ""
	}
}

// Holder returns the current owner id, or "" when the token is free.
func (t *Token) Holder() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.owner
}
