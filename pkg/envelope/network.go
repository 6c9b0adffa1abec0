package envelope

import (
	"context"
	"fmt"
	"os/exec"

	"golang.org/x/time/rate"
)

// NetworkShapingLayer applies per-interface egress latency and bandwidth
// caps via the `tc` (traffic control) CLI, since no engine SDK in the
// retrieval pack exposes netem-equivalent shaping. A golang.org/x/time/rate
// limiter built from the same bandwidth cap is also available in-process;
// it throttles only callers of Wait. Acquire returns an error when the tc
// command fails, so shaping requires a working tc binary.
type NetworkShapingLayer struct {
	iface       string
	latencyMS   int
	bandwidthKbps int
	limiter     *rate.Limiter
	applied     bool
	runner      func(ctx context.Context, args ...string) error
}

// NewNetworkShapingLayer constructs the layer. iface defaults to "eth0".
func NewNetworkShapingLayer(iface string, latencyMS, bandwidthKbps int) *NetworkShapingLayer {
	if iface == "" {
		iface = "eth0"
	}
	var limiter *rate.Limiter
	if bandwidthKbps > 0 {
		bytesPerSec := rate.Limit(bandwidthKbps * 1000 / 8)
		limiter = rate.NewLimiter(bytesPerSec, bandwidthKbps*1000/8)
	}
	return &NetworkShapingLayer{
		iface: iface, latencyMS: latencyMS, bandwidthKbps: bandwidthKbps,
		limiter: limiter, runner: runTC,
	}
}

func (n *NetworkShapingLayer) Name() string { return "network_shaping" }

// Acquire installs a netem qdisc with the configured latency and, when a
// bandwidth cap is set, netem's own rate option:
// `tc qdisc add dev <iface> root netem delay <ms>ms rate <kbps>kbit`.
func (n *NetworkShapingLayer) Acquire(ctx context.Context) error {
	args := []string{"qdisc", "add", "dev", n.iface, "root", "netem", "delay", fmt.Sprintf("%dms", n.latencyMS)}
	if n.bandwidthKbps > 0 {
		args = append(args, "rate", fmt.Sprintf("%dkbit", n.bandwidthKbps))
	}
	if err := n.runner(ctx, args...); err != nil {
		return fmt.Errorf("network shaping: %w", err)
	}
	n.applied = true
	return nil
}

// Release removes the qdisc unconditionally, matching the "must be removed
// on every exit path" requirement (spec.md §4.6).
func (n *NetworkShapingLayer) Release(ctx context.Context) error {
	if !n.applied {
		return nil
	}
	err := n.runner(ctx, "qdisc", "del", "dev", n.iface, "root")
	n.applied = false
	return err
}

// Wait blocks until n bytes are permitted under the bandwidth cap, for
// callers that want the rate limit enforced in-process as well as via tc.
func (n *NetworkShapingLayer) Wait(ctx context.Context, n2 int) error {
	if n.limiter == nil {
		return nil
	}
	return n.limiter.WaitN(ctx, n2)
}

func runTC(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "tc", args...)
	return cmd.Run()
}
