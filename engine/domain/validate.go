package domain

import "sort"

// ValidateStepOrder checks invariant 2 of spec.md §8: Steps of a Repro must
// have order_idx in {0, 1, ..., n-1} with no gaps and no duplicates.
func ValidateStepOrder(steps []Step) error {
	indices := make([]int, len(steps))
	for i, s := range steps {
		indices[i] = s.OrderIdx
	}
	sort.Ints(indices)
	for i, idx := range indices {
		if idx != i {
			return ErrStepOrderGap
		}
	}
	return nil
}

// ValidateSignature rejects signatures with no content to fingerprint.
func ValidateSignature(message, details string) error {
	if message == "" && details == "" {
		return ErrSignatureEmpty
	}
	return nil
}

// ClassifyStability maps a pass rate to the classification buckets of
// spec.md §4.7.
func ClassifyStability(stabilityScore float64) StabilityClass {
	switch {
	case stabilityScore >= 1.0:
		return StabilityStable
	case stabilityScore >= 0.8:
		return StabilityMostlyStable
	case stabilityScore >= 0.5:
		return StabilityUnstable
	default:
		return StabilityVeryUnstable
	}
}
