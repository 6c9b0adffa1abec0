// Package domain defines the core data model of the reproduction pipeline —
// reports, signals, signatures, mappings, repros, and their invariants. It is
// the validation gate at every stage boundary: workers translate bus payloads
// into these types and back, and persistence layers translate them into rows.
package domain

// SignalKind identifies the kind of telemetry artifact attached to a Report.
type SignalKind string

const (
	SignalScreenshot SignalKind = "screenshot"
	SignalVideo      SignalKind = "video"
	SignalHAR        SignalKind = "har"
	SignalLog        SignalKind = "log"
)

// Valid reports whether k is a recognized signal kind.
func (k SignalKind) Valid() bool {
	switch k {
	case SignalScreenshot, SignalVideo, SignalHAR, SignalLog:
		return true
	}
	return false
}

// Severity classifies a Signature's impact.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// ErrorType classifies an error Signature by keyword heuristics.
type ErrorType string

const (
	ErrorSyntax         ErrorType = "SyntaxError"
	ErrorReference      ErrorType = "ReferenceError"
	ErrorTypeError      ErrorType = "TypeError"
	ErrorNetwork        ErrorType = "NetworkError"
	ErrorDatabase       ErrorType = "DatabaseError"
	ErrorAuthentication ErrorType = "AuthenticationError"
	ErrorTimeout        ErrorType = "TimeoutError"
	ErrorGeneric        ErrorType = "GenericError"
)

// LogLevel is the severity token recognized in the log-line grammar of §4.3.
type LogLevel string

const (
	LevelError   LogLevel = "ERROR"
	LevelWarn    LogLevel = "WARN"
	LevelWarning LogLevel = "WARNING"
	LevelInfo    LogLevel = "INFO"
	LevelDebug   LogLevel = "DEBUG"
)

// ReproStatus is the lifecycle state of a Repro.
type ReproStatus string

const (
	ReproCreated   ReproStatus = "created"
	ReproValidated ReproStatus = "validated"
	ReproExported  ReproStatus = "exported"
)

// StepKind is the kind of one atomic Repro action.
type StepKind string

const (
	StepNavigate   StepKind = "navigate"
	StepInput      StepKind = "input"
	StepClick      StepKind = "click"
	StepSubmit     StepKind = "submit"
	StepAssert     StepKind = "assert"
	StepAPIVerify  StepKind = "api_verify"
)

// StabilityClass classifies a StabilityRecord.
type StabilityClass string

const (
	StabilityStable        StabilityClass = "stable"
	StabilityMostlyStable   StabilityClass = "mostly_stable"
	StabilityUnstable       StabilityClass = "unstable"
	StabilityVeryUnstable   StabilityClass = "very_unstable"
)

// ExportType is the kind of delivery an Export request performs.
type ExportType string

const (
	ExportPR      ExportType = "pr"
	ExportSandbox ExportType = "sandbox"
	ExportDocker  ExportType = "docker"
	ExportReport  ExportType = "report"
)

// ExportStatus mirrors the status field stored on exports.status.
type ExportStatus string

const (
	ExportPending ExportStatus = "pending"
	ExportSucceeded ExportStatus = "succeeded"
	ExportFailed  ExportStatus = "failed"
)

// Ecosystem identifies the target build tooling for CLI-build output.
type Ecosystem string

const (
	EcosystemMaven  Ecosystem = "maven"
	EcosystemGradle Ecosystem = "gradle"
	EcosystemGo     Ecosystem = "go"
)
