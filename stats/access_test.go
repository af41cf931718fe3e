package stats_test

import (
	"testing"
	"time"

	"github.com/mickamy/microbat/stats"
)

func TestBelowThreshold(t *testing.T) {
	t.Parallel()
	tr := stats.NewAccessTracker(5, time.Second, 10*time.Second)
	now := time.Now()

	for i := range 4 {
		r := tr.Record("users", now.Add(time.Duration(i)*100*time.Millisecond))
		if r.Matched {
			t.Fatal("unexpected match before threshold")
		}
		if r.Alert != nil {
			t.Fatal("unexpected alert before threshold")
		}
	}
}

func TestAtThreshold(t *testing.T) {
	t.Parallel()
	tr := stats.NewAccessTracker(5, time.Second, 10*time.Second)
	now := time.Now()

	for i := range 4 {
		tr.Record("users", now.Add(time.Duration(i)*100*time.Millisecond))
	}

	r := tr.Record("users", now.Add(400*time.Millisecond))
	if !r.Matched {
		t.Fatal("expected matched at threshold")
	}
	if r.Alert == nil {
		t.Fatal("expected alert at threshold")
	}
	if r.Alert.Count != 5 {
		t.Fatalf("got count %d, want 5", r.Alert.Count)
	}
	if r.Alert.Table != "users" {
		t.Fatalf("got table %q, want users", r.Alert.Table)
	}
}

func TestMatchedAfterThresholdRespectsCooldown(t *testing.T) {
	t.Parallel()
	tr := stats.NewAccessTracker(5, time.Second, 10*time.Second)
	now := time.Now()

	for i := range 5 {
		tr.Record("users", now.Add(time.Duration(i)*100*time.Millisecond))
	}
	for i := range 5 {
		r := tr.Record("users", now.Add(time.Duration(500+i*100)*time.Millisecond))
		if !r.Matched {
			t.Fatalf("event %d: expected matched after threshold", i)
		}
		if r.Alert != nil {
			t.Fatalf("event %d: expected cooldown to suppress alert", i)
		}
	}
}

func TestWindowExpiry(t *testing.T) {
	t.Parallel()
	tr := stats.NewAccessTracker(5, time.Second, 10*time.Second)
	now := time.Now()

	for i := range 3 {
		tr.Record("users", now.Add(time.Duration(i)*100*time.Millisecond))
	}
	after := now.Add(2 * time.Second)
	for i := range 3 {
		r := tr.Record("users", after.Add(time.Duration(i)*100*time.Millisecond))
		if r.Matched {
			t.Fatal("unexpected match: only 3 in window")
		}
	}
}

func TestCooldownExpiry(t *testing.T) {
	t.Parallel()
	tr := stats.NewAccessTracker(5, 2*time.Second, time.Second)
	now := time.Now()

	for i := range 5 {
		tr.Record("users", now.Add(time.Duration(i)*100*time.Millisecond))
	}
	after := now.Add(1500 * time.Millisecond)
	r := tr.Record("users", after)
	if !r.Matched {
		t.Fatal("expected matched after cooldown expired")
	}
	if r.Alert == nil {
		t.Fatal("expected alert after cooldown expired")
	}
}

func TestDifferentTables(t *testing.T) {
	t.Parallel()
	tr := stats.NewAccessTracker(3, time.Second, 10*time.Second)
	now := time.Now()

	tr.Record("users", now)
	tr.Record("posts", now.Add(100*time.Millisecond))
	tr.Record("users", now.Add(200*time.Millisecond))
	tr.Record("posts", now.Add(300*time.Millisecond))

	r := tr.Record("users", now.Add(400*time.Millisecond))
	if r.Alert == nil || r.Alert.Table != "users" {
		t.Fatalf("expected alert for users, got %+v", r.Alert)
	}

	r = tr.Record("posts", now.Add(500*time.Millisecond))
	if r.Alert == nil || r.Alert.Table != "posts" {
		t.Fatalf("expected alert for posts, got %+v", r.Alert)
	}
}

func TestEmptyTableName(t *testing.T) {
	t.Parallel()
	tr := stats.NewAccessTracker(1, time.Second, 10*time.Second)
	r := tr.Record("", time.Now())
	if r.Matched {
		t.Fatal("expected no match for an empty table name")
	}
}
