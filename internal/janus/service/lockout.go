package service

import (
	"sync"
	"time"
)

// Lockout is a bounded failed-attempt counter keyed by (door, principal).
// Attempts that resolved no principal count against the door itself
// (empty principal id). A maxAttempts of 0 disables the policy.
type Lockout struct {
	maxAttempts int
	window      time.Duration
	now         func() time.Time

	mu      sync.Mutex
	entries map[string]*lockoutEntry
}

type lockoutEntry struct {
	count int
	first time.Time
}

func NewLockout(maxAttempts int, window time.Duration) *Lockout {
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &Lockout{
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
		entries:     make(map[string]*lockoutEntry),
	}
}

func lockoutKey(doorID, userID string) string { return doorID + "|" + userID }

// Blocked reports whether the (door, principal) pair has exhausted its
// attempts within the current window.
func (l *Lockout) Blocked(doorID, userID string) bool {
	if l.maxAttempts <= 0 {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[lockoutKey(doorID, userID)]
	if !ok {
		return false
	}
	if l.now().Sub(e.first) > l.window {
		delete(l.entries, lockoutKey(doorID, userID))
		return false
	}
	return e.count >= l.maxAttempts
}

// RecordFailure counts one failed credential check.
func (l *Lockout) RecordFailure(doorID, userID string) {
	if l.maxAttempts <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := lockoutKey(doorID, userID)
	now := l.now()
	e, ok := l.entries[key]
	if !ok || now.Sub(e.first) > l.window {
		l.entries[key] = &lockoutEntry{count: 1, first: now}
		return
	}
	e.count++
}

// Reset clears the counter, called on a granted outcome.
func (l *Lockout) Reset(doorID, userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, lockoutKey(doorID, userID))
}
