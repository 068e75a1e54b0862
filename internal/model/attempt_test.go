package model

import (
	"testing"
	"time"
)

func TestAttemptRemaining(t *testing.T) {
	now := time.Now()
	a := &Attempt{EndsAt: now.Add(30 * time.Minute)}

	if got := a.Remaining(now); got != 30*time.Minute {
		t.Errorf("Remaining = %v, want 30m", got)
	}

	// Past the deadline the remaining time clamps to zero, never negative.
	if got := a.Remaining(now.Add(45 * time.Minute)); got != 0 {
		t.Errorf("Remaining past deadline = %v, want 0", got)
	}
}

func TestAttemptClosed(t *testing.T) {
	now := time.Now()
	a := &Attempt{EndsAt: now.Add(time.Hour)}

	if a.Closed(now) {
		t.Error("open attempt inside window reported closed")
	}
	if !a.Closed(now.Add(time.Hour + time.Second)) {
		t.Error("attempt past deadline reported open")
	}

	submitted := now.Add(10 * time.Minute)
	a.SubmittedAt = &submitted
	if !a.Closed(now) {
		t.Error("finalized attempt reported open even inside window")
	}
}
