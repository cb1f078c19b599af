// Package fault defines the error taxonomy shared by the pipeline and the
// HTTP layer. Every failure the caller can observe is one of five kinds; the
// HTTP layer maps a kind to a status code and never leaks prompt contents.
package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	// KindValidation covers bad or missing canonical fields and unknown
	// package/enum values. No generator call has been made.
	KindValidation Kind = "VALIDATION"

	// KindUpstreamFetch means the template store was unreachable.
	KindUpstreamFetch Kind = "UPSTREAM_FETCH"

	// KindGenerationFailed means the generator errored or timed out after the
	// single transient retry.
	KindGenerationFailed Kind = "GENERATION_FAILED"

	// KindSchemaViolation means model output stayed invalid after the repair
	// call. It is always resolved internally via fallback text and never
	// reaches the caller as an error.
	KindSchemaViolation Kind = "SCHEMA_VIOLATION"

	// KindInternal is everything unexpected. The caller sees a generic
	// message; details are logged only.
	KindInternal Kind = "INTERNAL"
)

// Fault is an error with a kind and the pipeline stage it occurred in.
// The stage label exists for debuggability; Message must be safe to return
// to the caller.
type Fault struct {
	Kind    Kind
	Stage   string
	Message string
	Err     error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s at %s: %s: %v", f.Kind, f.Stage, f.Message, f.Err)
	}
	return fmt.Sprintf("%s at %s: %s", f.Kind, f.Stage, f.Message)
}

func (f *Fault) Unwrap() error { return f.Err }

// New constructs a Fault without an underlying cause.
func New(kind Kind, stage, message string) *Fault {
	return &Fault{Kind: kind, Stage: stage, Message: message}
}

// Wrap constructs a Fault around an underlying error.
func Wrap(kind Kind, stage, message string, err error) *Fault {
	return &Fault{Kind: kind, Stage: stage, Message: message, Err: err}
}

// KindOf extracts the Kind from err, unwrapping as needed. Unclassified
// errors are KindInternal.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindInternal
}

// StageOf extracts the stage label from err, or "" if none is attached.
func StageOf(err error) string {
	var f *Fault
	if errors.As(err, &f) {
		return f.Stage
	}
	return ""
}

// HTTPStatus maps a Kind to the status code the API layer returns.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUpstreamFetch:
		return http.StatusBadGateway
	case KindGenerationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
