package determinism

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/repropipe/fabric/pkg/envelope"
)

// dockerStatsFormat asks docker stats for the three raw fields the sampler
// needs, comma-separated, with no streaming.
const dockerStatsFormat = "{{.CPUPerc}},{{.MemPerc}},{{.MemUsage}}"

// NewDockerStatsSource builds an envelope.StatsSource that shells out to
// `docker stats --no-stream` for containerID, the same os/exec integration
// style ContainerLayer itself uses (spec.md §4.6's sampler).
func NewDockerStatsSource(containerID string) envelope.StatsSource {
	return func(ctx context.Context) (envelope.ResourceStats, error) {
		cmd := exec.CommandContext(ctx, "docker", "stats", "--no-stream", "--format", dockerStatsFormat, containerID)
		var out bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &out
		if err := cmd.Run(); err != nil {
			return envelope.ResourceStats{}, fmt.Errorf("docker stats: %w: %s", err, out.String())
		}
		return parseDockerStats(out.String())
	}
}

func parseDockerStats(line string) (envelope.ResourceStats, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != 3 {
		return envelope.ResourceStats{}, fmt.Errorf("docker stats: unexpected output %q", line)
	}
	cpu, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], "%"), 64)
	if err != nil {
		return envelope.ResourceStats{}, fmt.Errorf("docker stats: parse cpu: %w", err)
	}
	mem, err := strconv.ParseFloat(strings.TrimSuffix(fields[1], "%"), 64)
	if err != nil {
		return envelope.ResourceStats{}, fmt.Errorf("docker stats: parse mem percent: %w", err)
	}
	usedMB, err := parseMemUsageMB(fields[2])
	if err != nil {
		return envelope.ResourceStats{}, fmt.Errorf("docker stats: parse mem usage: %w", err)
	}
	return envelope.ResourceStats{CPUPercent: cpu, MemoryPercent: mem, MemoryUsedMB: usedMB}, nil
}

// parseMemUsageMB parses docker's "123.4MiB / 2GiB" MemUsage field, keeping
// only the used-side value converted to MB.
func parseMemUsageMB(field string) (float64, error) {
	used := strings.TrimSpace(strings.SplitN(field, "/", 2)[0])
	switch {
	case strings.HasSuffix(used, "GiB"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(used, "GiB"), 64)
		return v * 1024, err
	case strings.HasSuffix(used, "MiB"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(used, "MiB"), 64)
		return v, err
	case strings.HasSuffix(used, "KiB"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(used, "KiB"), 64)
		return v / 1024, err
	default:
		return 0, fmt.Errorf("unrecognized unit in %q", used)
	}
}
