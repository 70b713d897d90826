package models

import (
	"errors"
	"fmt"
)

// Terminal failure modes of a processing run. Any of these aborts the whole
// run; none are retried.
var (
	// ErrMissingOperators: neither the internal nor the external technician
	// list had a single entry.
	ErrMissingOperators = errors.New("no operators recorded for the visit")

	// ErrMissingIncidentData: an updater expected an incident the classifier
	// is contracted to always emit, and it was absent. This is a programming
	// error, not a data problem.
	ErrMissingIncidentData = errors.New("required incident missing from classifier output")

	// ErrAmbiguousStatus: an enumerated status cell held something other than
	// the accepted tokens and cannot be defaulted.
	ErrAmbiguousStatus = errors.New("ambiguous status value")

	// ErrCancelled: the operator declined an interactive confirmation.
	ErrCancelled = errors.New("operation cancelled by operator")

	// ErrConcurrentAccess: a target workbook is held open by another process.
	ErrConcurrentAccess = errors.New("artifact is locked by another process")
)

// FormatError reports malformed or missing source data: empty tables, short
// rows, unparseable dates. It carries the offending raw value.
type FormatError struct {
	Field  string
	Value  any
	Reason string
}

func (e *FormatError) Error() string {
	if e.Value == nil || e.Value == "" {
		return fmt.Sprintf("format error in %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("format error in %s: %s (got %v)", e.Field, e.Reason, e.Value)
}

// ValidationError reports a value that was readable but outside its allowed
// domain, e.g. an unknown SI/NO token or a battery SOH beyond 0-100.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value in %s: %s (got %v)", e.Field, e.Reason, e.Value)
}
