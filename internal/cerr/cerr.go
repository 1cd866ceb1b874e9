// Package cerr implements the error taxonomy from §7 of the
// specification: a closed set of machine-readable kinds, not Go types,
// so callers can branch on Kind() regardless of which subsystem raised
// the error. The pattern follows the teacher pack's only dedicated
// error-kind package (a circuit-breaker sentinel living in its own
// internal/errors package), generalized from one sentinel to the full
// taxonomy with wrapping and context.
package cerr

import (
	"errors"
	"fmt"
)

// Kind is one of the error kinds enumerated in §7.
type Kind string

const (
	InvalidInput     Kind = "invalid_input"
	Unsupported      Kind = "unsupported"
	NotFound         Kind = "not_found"
	Incompatible     Kind = "incompatible"
	ParseError       Kind = "parse_error"
	IoError          Kind = "io_error"
	NetworkError     Kind = "network_error"
	Timeout          Kind = "timeout"
	CircuitOpen      Kind = "circuit_open"
	BudgetExceeded   Kind = "budget_exceeded"
	AllProvidersDown Kind = "all_providers_down"
	CollectionLocked Kind = "collection_locked"
	Cancelled        Kind = "cancelled"
)

// Error is the tagged error variant every public operation returns.
type Error struct {
	Kind        Kind
	Op          string // operation name, e.g. "chunk", "search", "index"
	Provider    string // provider id, if relevant
	Path        string // file/collection path, if relevant
	RequestID   string // routing.Call's per-attempt request id, if relevant
	Recoverable bool   // only meaningful for ParseError
	Message     string
	Cause       error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Message)
	if e.Provider != "" {
		msg = fmt.Sprintf("%s (provider=%s)", msg, e.Provider)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s (path=%s)", msg, e.Path)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("%s (request_id=%s)", msg, e.RequestID)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is match by Kind: errors.Is(err, cerr.OfKind(cerr.CircuitOpen))
// holds for any *Error of that Kind, since the target is itself an *Error.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New builds a new tagged error.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap builds a new tagged error around a cause.
func Wrap(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause}
}

// WithProvider attaches a provider id, returning the same *Error for chaining.
func (e *Error) WithProvider(id string) *Error { e.Provider = id; return e }

// WithPath attaches a path, returning the same *Error for chaining.
func (e *Error) WithPath(path string) *Error { e.Path = path; return e }

// WithRequestID attaches routing.Call's per-attempt request id,
// returning the same *Error for chaining.
func (e *Error) WithRequestID(id string) *Error { e.RequestID = id; return e }

// OfKind returns a sentinel usable with errors.Is for a bare kind check,
// e.g. errors.Is(err, cerr.OfKind(cerr.CircuitOpen)).
func OfKind(kind Kind) *Error { return &Error{Kind: kind} }

// KindOf extracts the Kind from any error, returning "" if err is not (or
// does not wrap) a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsTransient reports whether the error kind is one the router may retry
// against another provider, per §4.2's failover policy.
func IsTransient(err error) bool {
	switch KindOf(err) {
	case NetworkError, Timeout, CircuitOpen:
		return true
	default:
		return false
	}
}
