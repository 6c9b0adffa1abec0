package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Report is the intake envelope for one bug. Its description grows
// monotonically as Ingest appends annotated signal frames; it is never
// otherwise mutated.
type Report struct {
	ID          string    `json:"id" db:"id"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Signal is one raw artifact attached to a Report. Immutable after creation.
type Signal struct {
	ID       string     `json:"id" db:"id"`
	ReportID string     `json:"report_id" db:"report_id"`
	Kind     SignalKind `json:"kind" db:"kind"`
	S3Key    string     `json:"s3_key" db:"s3_key"`
	Meta     string     `json:"meta,omitempty" db:"meta"`
}

// frameHeader matches "--- Signal <signal_id> ---" so existing frames can be
// found during the append/diff pass Ingest performs on replay.
var frameHeader = regexp.MustCompile(`^--- Signal (\S+) ---$`)

// DescriptionFrame is one namespaced block of extracted text in a Report's
// description.
type DescriptionFrame struct {
	SignalID string
	Text     string
}

// FrameText renders a DescriptionFrame in the canonical "--- Signal <id> ---"
// form Ingest persists (spec.md §4.2).
func (f DescriptionFrame) FrameText() string {
	return fmt.Sprintf("--- Signal %s ---\n%s", f.SignalID, f.Text)
}

// ParseDescriptionFrames extracts the set of signal-id-namespaced frames
// already present in a description, in their original order.
func ParseDescriptionFrames(description string) []DescriptionFrame {
	lines := strings.Split(description, "\n")
	var frames []DescriptionFrame
	var cur *DescriptionFrame
	var body []string
	flush := func() {
		if cur != nil {
			cur.Text = strings.TrimSuffix(strings.Join(body, "\n"), "\n")
			frames = append(frames, *cur)
		}
	}
	for _, line := range lines {
		if m := frameHeader.FindStringSubmatch(line); m != nil {
			flush()
			cur = &DescriptionFrame{SignalID: m[1]}
			body = body[:0]
			continue
		}
		if cur != nil {
			body = append(body, line)
		}
	}
	flush()
	return frames
}

// MergeDescriptionFrames merges newly-extracted frames into a description,
// replacing any frame with the same SignalID and adding the rest; the merged
// frames are emitted sorted by SignalID, not in arrival order. This is
// what makes repeated Ingest runs converge to the invariant in spec.md §8.4:
// the final set of frames (by signal id) is unchanged up to reordering,
// regardless of how many times Ingest reprocesses the report.
func MergeDescriptionFrames(description string, fresh []DescriptionFrame) string {
	existing := ParseDescriptionFrames(description)
	byID := make(map[string]DescriptionFrame, len(existing))
	order := make([]string, 0, len(existing))
	for _, f := range existing {
		if _, ok := byID[f.SignalID]; !ok {
			order = append(order, f.SignalID)
		}
		byID[f.SignalID] = f
	}
	for _, f := range fresh {
		if _, ok := byID[f.SignalID]; !ok {
			order = append(order, f.SignalID)
		}
		byID[f.SignalID] = f
	}
	sort.Strings(order) // deterministic regardless of arrival order
	parts := make([]string, 0, len(order))
	for _, id := range order {
		parts = append(parts, byID[id].FrameText())
	}
	return strings.Join(parts, "\n\n")
}
