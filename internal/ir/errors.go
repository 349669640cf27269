package ir

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error is a structured error of the tensor network core.
//
// Errors carry a Code for programmatic handling and optional Details for
// diagnostics (bond indices, label strings, declared vs found counts).
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string

	cause error
}

// ErrorCode categorizes core errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a missing file, group, dataset or block.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeUnsupportedSymmetryCount indicates a snapshot declares more
	// symmetry groups than MaxSymmetries. Fatal.
	ErrCodeUnsupportedSymmetryCount ErrorCode = "UNSUPPORTED_SYMMETRY_COUNT"

	// ErrCodeSymmetryMismatch indicates the group list differs from the
	// configured one. Fatal to the caller.
	ErrCodeSymmetryMismatch ErrorCode = "SYMMETRY_CONFIGURATION_MISMATCH"

	// ErrCodeTargetIncompatible indicates migration could not reconcile the
	// target states.
	ErrCodeTargetIncompatible ErrorCode = "TARGET_STATE_INCOMPATIBLE"

	// ErrCodeInvalidIrrepText indicates a label failed to parse.
	ErrCodeInvalidIrrepText ErrorCode = "INVALID_IRREP_TEXT"

	// ErrCodeFusionRuleViolation indicates a block whose triplet is not a
	// valid fusion outcome. This is a defect, not a runtime condition.
	ErrCodeFusionRuleViolation ErrorCode = "FUSION_RULE_VIOLATION"

	// ErrCodeSizeMismatch indicates a declared count that disagrees with the
	// data that follows it.
	ErrCodeSizeMismatch ErrorCode = "STRUCTURAL_SIZE_MISMATCH"

	// ErrCodeOutOfRange indicates an invalid bond, site or sector index.
	ErrCodeOutOfRange ErrorCode = "OUT_OF_RANGE"
)

// Sentinels for errors.Is matching on the code alone.
var (
	ErrNotFound               = &Error{Code: ErrCodeNotFound}
	ErrUnsupportedSymmetries  = &Error{Code: ErrCodeUnsupportedSymmetryCount}
	ErrSymmetryMismatch       = &Error{Code: ErrCodeSymmetryMismatch}
	ErrTargetIncompatible     = &Error{Code: ErrCodeTargetIncompatible}
	ErrInvalidIrrepText       = &Error{Code: ErrCodeInvalidIrrepText}
	ErrFusionRuleViolation    = &Error{Code: ErrCodeFusionRuleViolation}
	ErrStructuralSizeMismatch = &Error{Code: ErrCodeSizeMismatch}
	ErrOutOfRange             = &Error{Code: ErrCodeOutOfRange}
)

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%s", k, e.Details[k])
		}
		b.WriteString(")")
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

// Is matches any *Error with the same code, so the sentinels work with
// errors.Is regardless of message and details.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// With returns a copy of e carrying an extra detail.
func (e *Error) With(key, value string) *Error {
	cp := *e
	cp.Details = make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// Errorf creates an Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around an underlying cause.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// CodeOf extracts the error code, or "" if err is not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsFatal reports whether the driver must terminate the run on err.
// Label parse failures and lookups are left to the caller.
func IsFatal(err error) bool {
	switch CodeOf(err) {
	case ErrCodeUnsupportedSymmetryCount,
		ErrCodeSymmetryMismatch,
		ErrCodeTargetIncompatible,
		ErrCodeSizeMismatch,
		ErrCodeFusionRuleViolation,
		ErrCodeNotFound:
		return true
	}
	return false
}
