package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerFires(t *testing.T) {
	var fires atomic.Int32
	sched := New("* * * * * *", time.UTC, func() {
		fires.Add(1)
	})
	if err := sched.Start(); err != nil {
		t.Fatal(err)
	}
	defer sched.Stop()

	// Wait up to 2.5 seconds for at least one fire
	deadline := time.After(2500 * time.Millisecond)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			t.Fatalf("handler did not fire within 2.5s, fires=%d", fires.Load())
		case <-ticker.C:
			if fires.Load() > 0 {
				return
			}
		}
	}
}

func TestSchedulerInvalidSchedule(t *testing.T) {
	sched := New("not a schedule", time.UTC, func() {})
	if err := sched.Start(); err == nil {
		sched.Stop()
		t.Fatal("expected error for invalid schedule")
	}
	if err := Validate("not a schedule"); err == nil {
		t.Error("expected Validate to reject invalid schedule")
	}
	if err := Validate("0 5 * * *"); err != nil {
		t.Errorf("expected 5-field schedule to be valid, got %v", err)
	}
}

func TestSchedulerNextInLocation(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	sched := New("0 5 * * *", jst, func() {})
	if !sched.Next().IsZero() {
		t.Error("expected zero next time before Start")
	}
	if err := sched.Start(); err != nil {
		t.Fatal(err)
	}
	defer sched.Stop()

	next := sched.Next().In(jst)
	if next.Hour() != 5 || next.Minute() != 0 {
		t.Errorf("expected next fire at 05:00 JST, got %v", next)
	}
}
