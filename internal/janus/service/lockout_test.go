package service

import (
	"testing"
	"time"
)

func TestLockout_Disabled(t *testing.T) {
	l := NewLockout(0, time.Minute)
	for i := 0; i < 100; i++ {
		l.RecordFailure("d-1", "u-1")
	}
	if l.Blocked("d-1", "u-1") {
		t.Error("maxAttempts=0 must disable the policy")
	}
}

func TestLockout_BlocksAfterMax(t *testing.T) {
	l := NewLockout(3, time.Minute)

	for i := 0; i < 2; i++ {
		l.RecordFailure("d-1", "u-1")
		if l.Blocked("d-1", "u-1") {
			t.Fatalf("blocked after %d failures", i+1)
		}
	}
	l.RecordFailure("d-1", "u-1")
	if !l.Blocked("d-1", "u-1") {
		t.Error("must block after three failures")
	}

	// Other keys are unaffected.
	if l.Blocked("d-1", "u-2") || l.Blocked("d-2", "u-1") {
		t.Error("lockout must be scoped to the (door, principal) pair")
	}
}

func TestLockout_WindowExpiry(t *testing.T) {
	l := NewLockout(2, time.Minute)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.RecordFailure("d-1", "u-1")
	l.RecordFailure("d-1", "u-1")
	if !l.Blocked("d-1", "u-1") {
		t.Fatal("must be blocked")
	}

	now = now.Add(61 * time.Second)
	if l.Blocked("d-1", "u-1") {
		t.Error("window elapsed, must unblock")
	}

	// A stale entry restarts the count instead of extending it.
	l.RecordFailure("d-1", "u-1")
	if l.Blocked("d-1", "u-1") {
		t.Error("one failure in a fresh window must not block")
	}
}

func TestLockout_Reset(t *testing.T) {
	l := NewLockout(1, time.Minute)
	l.RecordFailure("d-1", "u-1")
	if !l.Blocked("d-1", "u-1") {
		t.Fatal("must be blocked")
	}
	l.Reset("d-1", "u-1")
	if l.Blocked("d-1", "u-1") {
		t.Error("reset must clear the counter")
	}
}
