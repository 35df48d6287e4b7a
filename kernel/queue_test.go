package kernel

import (
	"testing"

	"github.com/inference-sim/desim/clock"
)

func at(seconds float64) clock.Time {
	return clock.Float64Time(seconds)
}

// TestCalendarQueue_Ordering verifies spec.md §8 property 1: events come out
// ordered by (ScheduledTime, SequenceID). Grounded on the teacher's
// TestClusterEventQueue_Ordering (sim/cluster/cluster_event_test.go).
func TestCalendarQueue_Ordering(t *testing.T) {
	tests := []struct {
		name  string
		times []float64
	}{
		{"different timestamps", []float64{300, 100, 200}},
		{"identical timestamps, insertion order wins", []float64{100, 100, 100}},
		{"mixed", []float64{5, 1, 5, 2, 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := NewCalendarQueue()
			for _, ts := range tc.times {
				q.Push(NewSimulationEndEvent(at(ts)))
			}
			var lastTime clock.Time
			var lastSeq uint64
			first := true
			for q.Len() > 0 {
				ev, ok := q.PopMin()
				if !ok {
					t.Fatal("PopMin reported empty while Len() > 0")
				}
				if !first {
					if ev.ScheduledTime.Compare(lastTime) < 0 {
						t.Fatalf("time regressed: %v after %v", ev.ScheduledTime, lastTime)
					}
					if ev.ScheduledTime.Compare(lastTime) == 0 && ev.SequenceID < lastSeq {
						t.Fatalf("sequence id out of order at equal time: %d after %d", ev.SequenceID, lastSeq)
					}
				}
				lastTime, lastSeq, first = ev.ScheduledTime, ev.SequenceID, false
			}
		})
	}
}

func TestCalendarQueue_PopEmptyReturnsFalse(t *testing.T) {
	q := NewCalendarQueue()
	if _, ok := q.PopMin(); ok {
		t.Fatal("expected PopMin on empty queue to report ok=false")
	}
	if _, ok := q.PeekMinTime(); ok {
		t.Fatal("expected PeekMinTime on empty queue to report ok=false")
	}
}

func TestCalendarQueue_Cancel(t *testing.T) {
	q := NewCalendarQueue()
	q.Push(NewSelfEvent(at(1), Message{}, ModuleID(1)))
	q.Push(NewSelfEvent(at(2), Message{}, ModuleID(2)))
	q.Push(NewSelfEvent(at(3), Message{}, ModuleID(1)))

	removed := q.Cancel(func(ev Event) bool {
		target, ok := ev.Target()
		return ok && target == ModuleID(1)
	})
	if removed != 2 {
		t.Fatalf("Cancel removed %d events, want 2", removed)
	}
	if q.Len() != 1 {
		t.Fatalf("queue has %d events left, want 1", q.Len())
	}
	ev, ok := q.PopMin()
	if !ok {
		t.Fatal("expected one event remaining")
	}
	target, _ := ev.Target()
	if target != ModuleID(2) {
		t.Fatalf("remaining event targets %v, want module 2", target)
	}
}

func TestSeqCounter_ZeroValueReady(t *testing.T) {
	var c SeqCounter
	if got := c.Next(); got != 0 {
		t.Fatalf("first Next() = %d, want 0", got)
	}
	if got := c.Next(); got != 1 {
		t.Fatalf("second Next() = %d, want 1", got)
	}
	if got := c.Peek(); got != 2 {
		t.Fatalf("Peek() = %d, want 2", got)
	}
}
