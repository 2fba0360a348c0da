// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures for API clients. Kinds are stable
// wire values: streaming clients receive them in error frames and
// non-streaming clients in structured error bodies.
type ErrorKind string

const (
	// KindValidation marks an empty or malformed query, rejected before
	// the pipeline starts.
	KindValidation ErrorKind = "validation_error"

	// KindSearchUnavailable marks a search provider that exhausted its
	// retry budget.
	KindSearchUnavailable ErrorKind = "search_unavailable"

	// KindPlanningFailed marks a failed planning call or a structured
	// response that violated the decomposition contract.
	KindPlanningFailed ErrorKind = "planning_failed"

	// KindResearchFailed marks a sub-question whose search and synthesis
	// were both unusable, or a run in which every sub-question failed.
	KindResearchFailed ErrorKind = "research_failed"

	// KindSynthesisFailed marks a failed final synthesis call or a run
	// with no usable sub-results.
	KindSynthesisFailed ErrorKind = "synthesis_failed"
)

// PipelineError wraps an underlying cause with a stable ErrorKind. Transport
// errors never cross a module boundary raw; each module wraps exhausted
// retries into its own kind.
type PipelineError struct {
	Kind ErrorKind
	Err  error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *PipelineError) Unwrap() error { return e.Err }

// WrapError attaches a kind to err. A nil err returns nil.
func WrapError(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &PipelineError{Kind: kind, Err: err}
}

// Errorf builds a PipelineError from a format string.
func Errorf(kind ErrorKind, format string, args ...any) error {
	return &PipelineError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the ErrorKind from err, walking the wrap chain. Errors
// without a kind report KindResearchFailed unless err is nil.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if err == nil {
		return ""
	}
	return KindResearchFailed
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *PipelineError
	return errors.As(err, &pe) && pe.Kind == kind
}
