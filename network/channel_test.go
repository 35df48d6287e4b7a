package network

import (
	"testing"

	"github.com/inference-sim/desim/clock"
	"github.com/inference-sim/desim/config"
	"github.com/inference-sim/desim/kernel"
)

// TestChannel_QueueOverflow is scenario S3 from spec.md §8: bitrate=1 b/s,
// queue=2. Five 1-bit messages offered at t=0 — the first three (one in
// service plus two queued) are delivered, the remaining two are dropped.
func TestChannel_QueueOverflow(t *testing.T) {
	ch, err := NewChannel("c", ChannelParams{BitrateBPS: 1, LatencyS: 0, QueueSize: 2}, at(0), clock.BackendFloat64, config.JitterZero)
	if err != nil {
		t.Fatal(err)
	}
	msg := kernel.Message{SizeBits: 1}

	delivered := 0
	for i := 0; i < 5; i++ {
		if _, ok := ch.Offer(at(0), msg, fixedRNG{0.5}); ok {
			delivered++
		}
	}
	if delivered != 3 {
		t.Fatalf("delivered = %d, want 3", delivered)
	}
	if ch.DroppedCount() != 2 {
		t.Fatalf("DroppedCount() = %d, want 2", ch.DroppedCount())
	}
}

// TestChannel_NonOvertake is spec.md §8 property 5: for a single channel,
// arrival(j) >= arrival(j-1).
func TestChannel_NonOvertake(t *testing.T) {
	ch, err := NewChannel("c", ChannelParams{BitrateBPS: 10, LatencyS: 0.05, JitterS: 0.02, QueueSize: 100}, at(0), clock.BackendFloat64, config.JitterUniform)
	if err != nil {
		t.Fatal(err)
	}
	msg := kernel.Message{SizeBits: 5}

	var last clock.Time
	for i := 0; i < 20; i++ {
		arrival, ok := ch.Offer(at(float64(i)*0.01), msg, fixedRNG{float64(i%7) / 7.0})
		if !ok {
			t.Fatalf("offer %d unexpectedly dropped", i)
		}
		if last != nil && arrival.Compare(last) < 0 {
			t.Fatalf("offer %d: arrival %v precedes previous arrival %v", i, arrival, last)
		}
		last = arrival
	}
}

func TestChannel_JitterClampedToTransmissionTime(t *testing.T) {
	ch, err := NewChannel("c", ChannelParams{BitrateBPS: 10, LatencyS: 0, JitterS: 10, QueueSize: 10}, at(0), clock.BackendFloat64, config.JitterUniform)
	if err != nil {
		t.Fatal(err)
	}
	msg := kernel.Message{SizeBits: 5} // transmissionTime = 0.5s
	arrival, ok := ch.Offer(at(0), msg, fixedRNG{0.0}) // most negative jitter sample
	if !ok {
		t.Fatal("expected delivery")
	}
	if got := arrival.Seconds(); got < 0.5-1e-9 {
		t.Fatalf("arrival = %v, must not be below bare transmission time 0.5", got)
	}
}

func TestChannel_RejectsInvalidParams(t *testing.T) {
	if _, err := NewChannel("c", ChannelParams{BitrateBPS: 0}, at(0), clock.BackendFloat64, config.JitterZero); err == nil {
		t.Fatal("expected error for zero bitrate")
	}
	if _, err := NewChannel("c", ChannelParams{BitrateBPS: 1, LatencyS: -1}, at(0), clock.BackendFloat64, config.JitterZero); err == nil {
		t.Fatal("expected error for negative latency")
	}
}
