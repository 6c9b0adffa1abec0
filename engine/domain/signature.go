package domain

import (
	"crypto/md5"
	"encoding/hex"
	"time"
)

// Signature is a deduplicated error fingerprint extracted from a log Signal.
// Invariant: identical SignatureHash maps to exactly one row; Frequency is
// incremented atomically on re-observation (spec.md §3, invariant 1 in §8).
type Signature struct {
	SignatureHash string    `json:"signature_hash" db:"signature_hash"`
	ReportID      string    `json:"report_id" db:"report_id"`
	ErrorType     ErrorType `json:"error_type" db:"error_type"`
	Message       string    `json:"message" db:"message"`
	Details       string    `json:"details" db:"details"`
	StackTrace    string    `json:"stack_trace,omitempty" db:"stack_trace"`
	KeyComponents []string  `json:"key_components" db:"key_components"`
	Severity      Severity  `json:"severity" db:"severity"`
	Frequency     int       `json:"frequency" db:"frequency"`
	Embedding     []float32 `json:"embedding,omitempty" db:"-"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// ComputeSignatureHash implements spec.md §4.3: MD5 of "message + ' ' + details".
func ComputeSignatureHash(message, details string) string {
	sum := md5.Sum([]byte(message + " " + details))
	return hex.EncodeToString(sum[:])
}
