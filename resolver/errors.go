package resolver

import (
	"fmt"

	"github.com/lukemcguire/xmlrpcfind/result"
)

// ErrorKind identifies why a resolution failed.
type ErrorKind int

const (
	KindEmptyInput ErrorKind = iota + 1
	KindMalformedInput
	KindUnsupportedScheme
	KindNoReachableEndpoint
)

// String returns the snake_case name used in reports.
func (k ErrorKind) String() string {
	switch k {
	case KindEmptyInput:
		return "empty_input"
	case KindMalformedInput:
		return "malformed_input"
	case KindUnsupportedScheme:
		return "unsupported_scheme"
	case KindNoReachableEndpoint:
		return "no_reachable_endpoint"
	default:
		return "unknown"
	}
}

// ValidationError is the only error a resolution reports besides context
// cancellation. Input is the raw string the caller supplied.
type ValidationError struct {
	Kind   ErrorKind
	Input  string
	Probes int   // candidates probed before giving up
	Err    error // underlying cause, if any
}

// Sentinels for errors.Is; they match any ValidationError of the same kind.
var (
	ErrEmptyInput          = &ValidationError{Kind: KindEmptyInput}
	ErrMalformedInput      = &ValidationError{Kind: KindMalformedInput}
	ErrUnsupportedScheme   = &ValidationError{Kind: KindUnsupportedScheme}
	ErrNoReachableEndpoint = &ValidationError{Kind: KindNoReachableEndpoint}
)

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindEmptyInput:
		return "empty input"
	case KindMalformedInput:
		if e.Err != nil {
			return fmt.Sprintf("malformed input %q: %v", e.Input, e.Err)
		}
		return fmt.Sprintf("malformed input %q", e.Input)
	case KindUnsupportedScheme:
		return fmt.Sprintf("unsupported scheme in %q: only http and https are allowed", e.Input)
	case KindNoReachableEndpoint:
		return fmt.Sprintf("no reachable XML-RPC endpoint for %q", e.Input)
	default:
		return fmt.Sprintf("invalid input %q", e.Input)
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a ValidationError of the same kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

// ProbeError describes why a single candidate was rejected. It is reported
// through events and logs only; resolutions never return it.
type ProbeError struct {
	URL        string
	StatusCode int
	Category   result.ErrorCategory
	Err        error
}

func (e *ProbeError) Error() string {
	msg := fmt.Sprintf("probe %s: %s", e.URL, e.Category)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}
