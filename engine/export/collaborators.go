package export

import "context"

// PRPoster opens a pull request branch carrying the generated repro
// against a hosted git provider. Implementations are thin wrappers around
// an external hosted API (e.g. GitHub/GitLab) and are supplied by the
// caller; no concrete client ships here.
type PRPoster interface {
	PostPR(ctx context.Context, reproID string, files map[string][]byte) (prURL string, err error)
}

// SandboxBuilder provisions an online, browsable sandbox for a repro
// (e.g. a hosted container playground). Also a thin wrapper around an
// external hosted API.
type SandboxBuilder interface {
	BuildSandbox(ctx context.Context, reproID string, files map[string][]byte) (sandboxURL string, err error)
}

// ReportRenderer renders report data for a Repro into a delivery artifact
// (PDF or JSON report). Export passes it the export request's options.
type ReportRenderer interface {
	Render(ctx context.Context, reproID string, data any) ([]byte, error)
}
