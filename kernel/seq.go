package kernel

// SeqCounter is a monotonic counter used solely to break ties between
// events scheduled at the same simulated time (spec.md §3 "sequence_id").
//
// The zero value is a zeroed counter ready to use, grounded on
// sfurman3-chatroom/logical.Clock's "zero value ready to use" idiom —
// a single-purpose monotonic counter type rather than a bare uint64 field
// incremented ad hoc at every call site.
type SeqCounter struct {
	next uint64
}

// Next returns the next sequence id, starting at 0 and incrementing by one
// on every call.
func (c *SeqCounter) Next() uint64 {
	id := c.next
	c.next++
	return id
}

// Peek returns the id that the next call to Next will return, without
// consuming it.
func (c *SeqCounter) Peek() uint64 {
	return c.next
}
