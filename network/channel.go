package network

import (
	"fmt"

	"github.com/inference-sim/desim/clock"
	"github.com/inference-sim/desim/config"
	"github.com/inference-sim/desim/kernel"
	"gonum.org/v1/gonum/stat/distuv"
)

// ChannelParams are the immutable parameters of a Channel (spec.md §3).
type ChannelParams struct {
	BitrateBPS  float64 // bits per second, must be > 0
	LatencyS    float64 // seconds, must be >= 0
	JitterS     float64 // seconds, zero-mean spread, must be >= 0
	QueueSize   int     // additional in-flight capacity beyond the one in service
}

// Channel models the delay/bandwidth/jitter/queue behavior attached to a
// gate-graph edge (spec.md §3 "Channel", §4.F). It serializes transmissions
// via busyUntil and tracks in-flight arrivals to enforce QueueSize.
type Channel struct {
	ID     string
	Params ChannelParams

	busyUntil clock.Time
	backend   clock.Backend
	inflight  []clock.Time // arrival times of messages not yet drained
	dropped   uint64

	jitterDistribution config.JitterDistribution
}

// NewChannel constructs a Channel, initially idle at zeroTime.
func NewChannel(id string, params ChannelParams, zeroTime clock.Time, backend clock.Backend, jitter config.JitterDistribution) (*Channel, error) {
	if params.BitrateBPS <= 0 {
		return nil, fmt.Errorf("network: channel %q: bitrate must be > 0, got %v", id, params.BitrateBPS)
	}
	if params.LatencyS < 0 {
		return nil, fmt.Errorf("network: channel %q: latency must be >= 0, got %v", id, params.LatencyS)
	}
	if params.JitterS < 0 {
		return nil, fmt.Errorf("network: channel %q: jitter must be >= 0, got %v", id, params.JitterS)
	}
	if params.QueueSize < 0 {
		return nil, fmt.Errorf("network: channel %q: queue size must be >= 0, got %v", id, params.QueueSize)
	}
	return &Channel{
		ID:                  id,
		Params:              params,
		busyUntil:           zeroTime,
		backend:             backend,
		jitterDistribution:  jitter,
	}, nil
}

// DroppedCount returns the number of messages this channel has discarded
// due to queue capacity overflow.
func (c *Channel) DroppedCount() uint64 { return c.dropped }

// AvailableAt returns the earliest future time at which a zero-length
// message offered now would clear transmission: max(now, busyUntil).
func (c *Channel) AvailableAt(now clock.Time) clock.Time {
	if now.Compare(c.busyUntil) >= 0 {
		return now
	}
	return c.busyUntil
}

// DrainUpto releases (removes from the in-flight tracking set) every queued
// arrival at or before now, returning how many were released. Offer calls
// it first to reclaim capacity as messages actually arrive (spec.md §4.F).
func (c *Channel) DrainUpto(now clock.Time) int {
	kept := c.inflight[:0]
	released := 0
	for _, arrival := range c.inflight {
		if arrival.Compare(now) <= 0 {
			released++
			continue
		}
		kept = append(kept, arrival)
	}
	c.inflight = kept
	return released
}

// Offer submits msg to the channel at time now. It prunes already-arrived
// entries first, then — if the in-flight count would exceed
// Params.QueueSize+1 (the +1 accounts for the message currently in
// service) — records a drop and returns ok=false. Otherwise it computes
// start = max(now, busyUntil), transit = size/bitrate + latency + jitter
// (clamped so transit never falls below size/bitrate, per spec.md §9 open
// question (b)), advances busyUntil, and returns the arrival time.
func (c *Channel) Offer(now clock.Time, msg kernel.Message, rng RNGSource) (clock.Time, bool) {
	c.DrainUpto(now)
	if len(c.inflight) >= c.Params.QueueSize+1 {
		c.dropped++
		return nil, false
	}

	start := c.AvailableAt(now)
	transmissionTime := float64(msg.SizeBits) / c.Params.BitrateBPS
	jitter := c.sampleJitter(rng)
	transit := transmissionTime + c.Params.LatencyS + jitter
	if transit < transmissionTime {
		transit = transmissionTime
	}

	arrival := start.Add(clock.Duration(transit))
	c.busyUntil = start.Add(clock.Duration(transmissionTime))
	c.inflight = append(c.inflight, arrival)
	return arrival, true
}

// sampleJitter draws a zero-mean jitter sample from this channel's
// configured distribution, using rng (a subsystem stream from
// kernel.PartitionedRNG keyed by this channel's id) as the sole source of
// randomness — the Normal case feeds a uniform draw through gonum's inverse
// CDF (distuv.Normal.Quantile) instead of letting gonum manage its own
// Source, so every sample still comes from, and only from, this channel's
// deterministic stream (spec.md §8 property 2).
func (c *Channel) sampleJitter(rng RNGSource) float64 {
	if c.Params.JitterS == 0 {
		return 0
	}
	switch c.jitterDistribution {
	case config.JitterZero, "":
		return 0
	case config.JitterNormal:
		n := distuv.Normal{Mu: 0, Sigma: c.Params.JitterS / 3}
		return n.Quantile(rng.Float64())
	default: // config.JitterUniform
		return (rng.Float64()*2 - 1) * c.Params.JitterS
	}
}
