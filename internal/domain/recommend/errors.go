package recommend

import (
	"errors"
	"strings"
)

// ErrAllSourcesFailed indicates every configured source failed for a request.
// It is the only adapter-level condition surfaced to the caller as an error.
var ErrAllSourcesFailed = errors.New("all recommendation sources failed")

// ValidationError reports every violation found in a request.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Violations, "; ")
}

// SourceFailure records one source that errored or timed out during fan-out.
// Failures are non-fatal unless every source fails.
type SourceFailure struct {
	Component string `json:"component"`
	Reason    string `json:"reason"`
}
