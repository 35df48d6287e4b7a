package kernel

import (
	"container/heap"

	"github.com/inference-sim/desim/clock"
)

// CalendarQueue is a priority queue over Events keyed by
// (ScheduledTime, SequenceID) — spec.md §4.B. It is heap-backed, the
// explicitly sanctioned fallback for the canonical bucketed calendar-queue
// structure, grounded directly on the teacher's ClusterEventQueue
// (sim/cluster/cluster_event.go): a container/heap min-heap with an
// explicit monotonic sequence id for deterministic tie-breaking, here
// promoted from a second, cluster-only queue to the kernel's only queue.
type CalendarQueue struct {
	heap eventHeap
	seq  SeqCounter
}

// NewCalendarQueue returns an empty, ready-to-use CalendarQueue.
func NewCalendarQueue() *CalendarQueue {
	q := &CalendarQueue{heap: make(eventHeap, 0)}
	heap.Init(&q.heap)
	return q
}

// Push assigns the next sequence id to ev and inserts it.
func (q *CalendarQueue) Push(ev Event) {
	ev.SequenceID = q.seq.Next()
	heap.Push(&q.heap, ev)
}

// PopMin removes and returns the minimum (time, seq) event. ok is false
// when the queue is empty.
func (q *CalendarQueue) PopMin() (Event, bool) {
	if q.heap.Len() == 0 {
		return Event{}, false
	}
	ev := heap.Pop(&q.heap).(Event)
	return ev, true
}

// PeekMinTime returns the scheduled time of the minimum event without
// removing it. ok is false when the queue is empty.
func (q *CalendarQueue) PeekMinTime() (clock.Time, bool) {
	if q.heap.Len() == 0 {
		return nil, false
	}
	return q.heap[0].ScheduledTime, true
}

// Len returns the number of pending events.
func (q *CalendarQueue) Len() int { return q.heap.Len() }

// Cancel removes every event matching predicate and returns the count
// removed (spec.md §4.B, used for module teardown). Rebuilds the heap from
// the filtered slice, the same "filter then heap.Init" approach the
// teacher's event-heap code uses when bulk-removing entries.
func (q *CalendarQueue) Cancel(predicate func(Event) bool) int {
	kept := make(eventHeap, 0, len(q.heap))
	removed := 0
	for _, ev := range q.heap {
		if predicate(ev) {
			removed++
			continue
		}
		kept = append(kept, ev)
	}
	q.heap = kept
	heap.Init(&q.heap)
	return removed
}

// eventHeap implements heap.Interface over Events ordered by
// (ScheduledTime, SequenceID).
type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	cmp := h[i].ScheduledTime.Compare(h[j].ScheduledTime)
	if cmp != 0 {
		return cmp < 0
	}
	return h[i].SequenceID < h[j].SequenceID
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
