package kernel

import "fmt"

// ScheduleError is returned by schedule_at/schedule_in when the requested
// time is invalid (spec.md §7 "ScheduleError"): schedule_at in the past, or
// a negative delta. The event is not enqueued; the handler continues.
type ScheduleError struct {
	Requested string
	Now       string
	Reason    string
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("kernel: schedule error: %s (requested=%s now=%s)", e.Reason, e.Requested, e.Now)
}

// InvariantViolationError signals kernel self-inconsistency (spec.md §7
// "InvariantViolation"). The engine raises it when a dispatched event's time
// precedes the current simulated time. Always fatal — the run terminates
// with reason Failed.
type InvariantViolationError struct {
	Detail string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("kernel: invariant violation: %s", e.Detail)
}
