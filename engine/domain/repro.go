package domain

import "time"

// Repro is a generated reproduction case: an ordered sequence of Steps plus
// the environment descriptor needed to execute them deterministically. A
// Repro exclusively owns its Steps and Runs (spec.md §3).
type Repro struct {
	ID          string      `json:"id" db:"id"`
	ProjectID   string      `json:"project_id" db:"project_id"`
	ReportID    string      `json:"report_id" db:"report_id"`
	Framework   string      `json:"framework" db:"framework"`
	Entry       string      `json:"entry" db:"entry"`
	DockerCompose string    `json:"docker_compose" db:"docker_compose"`
	Seed        string      `json:"seed" db:"seed"`
	Status      ReproStatus `json:"status" db:"status"`
	Title       string      `json:"title" db:"title"`
	Description string      `json:"description" db:"description"`
	StabilityScore float64  `json:"stability_score" db:"stability_score"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// Step is one atomic action in a Repro, ordered by a dense, 0-based OrderIdx
// within the owning Repro (spec.md §3, invariant 2 in §8).
type Step struct {
	ReproID  string   `json:"repro_id" db:"repro_id"`
	OrderIdx int      `json:"order_idx" db:"order_idx"`
	Kind     StepKind `json:"kind" db:"kind"`
	Payload  string   `json:"payload" db:"payload"` // JSON-encoded step payload
}

// Run is one execution of a Repro. Immutable after creation (spec.md §3,
// invariant 3 in §8).
type Run struct {
	ReproID   string    `json:"repro_id" db:"repro_id"`
	Iteration int       `json:"iteration" db:"iteration"`
	Passed    bool      `json:"passed" db:"passed"`
	DurationMS int64    `json:"duration_ms" db:"duration_ms"`
	ExitCode  int       `json:"exit_code" db:"exit_code"`
	Logs      string    `json:"logs_s3,omitempty" db:"logs_s3"`
	VideoS3   string    `json:"video_s3,omitempty" db:"video_s3"`
	TraceS3   string    `json:"trace_s3,omitempty" db:"trace_s3"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PerformanceStats summarizes Run durations.
type PerformanceStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Stdev  float64 `json:"stdev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// StabilityRecord is the derived summary of a set of Runs, cached (not
// durably persisted) under stability:<repro_id> with a 24h TTL.
type StabilityRecord struct {
	ReproID          string           `json:"repro_id"`
	StabilityScore   float64          `json:"stability_score"`
	FlakyScore       float64          `json:"flaky_score"`
	ConsistencyScore float64          `json:"consistency_score"`
	Classification   StabilityClass   `json:"classification"`
	Performance      PerformanceStats `json:"performance_stats"`
	RunCount         int              `json:"run_count"`
}

// Export is the outcome of one delivery request for a Repro.
type Export struct {
	ID        string       `json:"id" db:"id"`
	ReproID   string       `json:"repro_id" db:"repro_id"`
	Type      ExportType   `json:"export_type" db:"export_type"`
	Result    string       `json:"result" db:"result"` // opaque JSON result blob
	Status    ExportStatus `json:"status" db:"status"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// CLIRepro is the per-ecosystem project tree CLI-build produces for a Repro.
type CLIRepro struct {
	ID           string    `json:"id" db:"id"`
	ReproID      string    `json:"repro_id" db:"repro_id"`
	Ecosystem    Ecosystem `json:"ecosystem" db:"ecosystem"`
	TestFile     string    `json:"test_file" db:"test_file"`
	BuildCommand string    `json:"build_command" db:"build_command"`
	Dockerfile   string    `json:"dockerfile" db:"dockerfile"`
	ComposeFile  string    `json:"compose_file" db:"compose_file"`
	Status       string    `json:"status" db:"status"`
}
