package envelope

import (
	"context"
	"fmt"
)

// ResourceLimitLayer translates the spec's CPU-fraction/memory/disk caps
// (spec.md §4.6) into the cgroup-style arguments the ContainerLayer passes
// to `docker run`. It has no independent OS-level effect outside a
// container; Acquire/Release only validate and stage the translated values.
type ResourceLimitLayer struct {
	cpuFraction float64
	memoryMB    int
	diskMB      int

	// CPUPeriodUS/CPUQuotaUS are the translated docker --cpu-period/--cpu-quota
	// pair (period fixed at 100ms, quota = period * fraction).
	CPUPeriodUS int
	CPUQuotaUS  int
}

// NewResourceLimitLayer constructs the layer from spec.md's fraction/MB units.
func NewResourceLimitLayer(cpuFraction float64, memoryMB, diskMB int) *ResourceLimitLayer {
	const periodUS = 100_000
	return &ResourceLimitLayer{
		cpuFraction: cpuFraction,
		memoryMB:    memoryMB,
		diskMB:      diskMB,
		CPUPeriodUS: periodUS,
		CPUQuotaUS:  int(cpuFraction * periodUS),
	}
}

func (r *ResourceLimitLayer) Name() string { return "resource_limits" }

func (r *ResourceLimitLayer) Acquire(_ context.Context) error {
	if r.cpuFraction < 0 || r.memoryMB < 0 || r.diskMB < 0 {
		return fmt.Errorf("resource limits: negative quota (cpu=%v mem=%dMB disk=%dMB)", r.cpuFraction, r.memoryMB, r.diskMB)
	}
	return nil
}

func (r *ResourceLimitLayer) Release(_ context.Context) error { return nil }

// DockerArgs returns the --cpu-period/--cpu-quota/--memory flags for the
// container runtime to apply these limits.
func (r *ResourceLimitLayer) DockerArgs() []string {
	args := []string{
		"--cpu-period", fmt.Sprint(r.CPUPeriodUS),
		"--cpu-quota", fmt.Sprint(r.CPUQuotaUS),
	}
	if r.memoryMB > 0 {
		args = append(args, "--memory", fmt.Sprintf("%dm", r.memoryMB))
	}
	if r.diskMB > 0 {
		args = append(args, "--storage-opt", fmt.Sprintf("size=%dm", r.diskMB))
	}
	return args
}
