package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterFixedWindow(t *testing.T) {
	l := New(3, time.Minute)

	for i, wantRemaining := range []int{2, 1, 0} {
		res := l.Check("sign", "hash1", "1.2.3.4")
		if !res.Allowed {
			t.Fatalf("request %d denied inside the budget", i+1)
		}
		if res.Remaining != wantRemaining {
			t.Errorf("request %d remaining = %d, want %d", i+1, res.Remaining, wantRemaining)
		}
	}

	res := l.Check("sign", "hash1", "1.2.3.4")
	if res.Allowed {
		t.Fatal("request over the budget was allowed")
	}
	if res.Remaining != 0 {
		t.Errorf("denied request remaining = %d, want 0", res.Remaining)
	}
	resetAt := res.ResetAt

	// denied requests do not move the window
	res = l.Check("sign", "hash1", "1.2.3.4")
	if res.Allowed {
		t.Fatal("still over budget but allowed")
	}
	if !res.ResetAt.Equal(resetAt) {
		t.Error("denied request moved the window reset")
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	l := New(1, time.Minute)

	if !l.Check("sign", "hash1", "1.2.3.4").Allowed {
		t.Fatal("first request denied")
	}
	if l.Check("sign", "hash1", "1.2.3.4").Allowed {
		t.Fatal("second request on same key allowed")
	}
	// different token, address and endpoint each get their own window
	if !l.Check("sign", "hash2", "1.2.3.4").Allowed {
		t.Error("different token shares the window")
	}
	if !l.Check("sign", "hash1", "5.6.7.8").Allowed {
		t.Error("different address shares the window")
	}
	if !l.Check("commit", "hash1", "1.2.3.4").Allowed {
		t.Error("different endpoint shares the window")
	}
}

func TestLimiterWindowExpiry(t *testing.T) {
	l := New(1, 10*time.Millisecond)

	if !l.Check("sign", "hash1", "1.2.3.4").Allowed {
		t.Fatal("first request denied")
	}
	if l.Check("sign", "hash1", "1.2.3.4").Allowed {
		t.Fatal("budget not enforced")
	}
	time.Sleep(20 * time.Millisecond)
	res := l.Check("sign", "hash1", "1.2.3.4")
	if !res.Allowed {
		t.Fatal("request denied after the window elapsed")
	}
	if res.Remaining != 0 {
		t.Errorf("fresh window remaining = %d, want 0", res.Remaining)
	}
}

func TestLimiterSweep(t *testing.T) {
	l := New(5, 10*time.Millisecond)
	l.Check("sign", "hash1", "1.2.3.4")
	l.Check("sign", "hash2", "1.2.3.4")

	if removed := l.Sweep(); removed != 0 {
		t.Errorf("live windows swept: %d", removed)
	}
	time.Sleep(20 * time.Millisecond)
	if removed := l.Sweep(); removed != 2 {
		t.Errorf("swept %d windows, want 2", removed)
	}
	if l.entries.Count() != 0 {
		t.Errorf("%d entries left after sweep", l.entries.Count())
	}
}
