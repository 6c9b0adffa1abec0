package validate

import "testing"

func TestFlakyScoreOf_MixedPattern(t *testing.T) {
	// PPFPF -> [1,1,0,1,0]
	got := flakyScoreOf([]bool{true, true, false, true, false})
	if got < 0.24-0.0001 || got > 0.24+0.0001 {
		t.Fatalf("expected flaky score 0.24, got %f", got)
	}
}

func TestFlakyScoreOf_AllPass(t *testing.T) {
	if got := flakyScoreOf([]bool{true, true, true, true, true}); got != 0 {
		t.Fatalf("expected 0 flaky score for all-pass, got %f", got)
	}
}

func TestStabilityScore_MixedPattern(t *testing.T) {
	got := stabilityScore([]bool{true, true, false, true, false})
	if got != 0.6 {
		t.Fatalf("expected stability score 0.6, got %f", got)
	}
}

func TestPerformanceStatsOf_ComputesAllFields(t *testing.T) {
	stats := performanceStatsOf([]int64{100, 200, 300})
	if stats.Mean != 200 || stats.Median != 200 || stats.Min != 100 || stats.Max != 300 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
