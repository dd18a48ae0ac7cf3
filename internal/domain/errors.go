package domain

import (
	"errors"
	"fmt"
	"time"
)

// CodedError defines errors that carry a stable, transport-agnostic error code.
// Implementing this interface enables extensible error handling at the boundary
// (CLI output, any future transport) without the core depending on one.
type CodedError interface {
	error
	Code() string
}

// Domain error types implementing CodedError interface
type (
	// NotFoundError indicates a document or version was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }

func (e *NotFoundError) Code() string   { return "not_found" }
func (e *ValidationError) Code() string { return "validation_failed" }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)

func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError represents a guard violation (deleting the current version,
// stale-write detection) with details about the conflicting resource.
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (document, version)
	ResourceID   string // ID of the conflicting resource
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Code() string { return "conflict" }

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// OracleKind classifies oracle failures. The assembler treats every kind
// identically for fallback purposes but logs them distinctly.
type OracleKind string

const (
	OracleTimeout     OracleKind = "timeout"
	OracleRateLimited OracleKind = "rate_limited"
	OracleServerError OracleKind = "server_error"
	OracleAuthError   OracleKind = "auth_error"
)

// OracleError wraps a failure from the external completion provider.
type OracleError struct {
	Kind       OracleKind
	Message    string
	RetryAfter time.Duration // server-provided hint; zero when absent
	Err        error
}

func (e *OracleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oracle %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("oracle %s: %s", e.Kind, e.Message)
}

func (e *OracleError) Code() string { return "oracle_" + string(e.Kind) }

func (e *OracleError) Unwrap() error { return e.Err }

// Retryable reports whether the failure class can resolve by retrying.
// Auth failures never do.
func (e *OracleError) Retryable() bool {
	return e.Kind == OracleRateLimited || e.Kind == OracleServerError || e.Kind == OracleTimeout
}

// ElementParseError indicates a persisted element list failed to deserialize
// to the expected shape.
type ElementParseError struct {
	DocumentID string
	Err        error
}

func (e *ElementParseError) Error() string {
	return fmt.Sprintf("parse elements for document %s: %v", e.DocumentID, e.Err)
}

func (e *ElementParseError) Code() string { return "element_parse_failed" }

func (e *ElementParseError) Unwrap() error { return e.Err }
