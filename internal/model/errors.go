package model

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed error taxonomy from spec.md §7.
type ErrorKind string

const (
	KindEmptyPortfolio        ErrorKind = "EmptyPortfolio"
	KindInvalidTargets        ErrorKind = "InvalidTargets"
	KindInvalidCovariance     ErrorKind = "InvalidCovariance"
	KindInsufficientScenarios ErrorKind = "InsufficientScenarios"
	KindPrecisionOverflow     ErrorKind = "PrecisionOverflow"
	KindOptimizerNonConvergent ErrorKind = "OptimizerNonConvergent"
	KindInfeasibleConstraints ErrorKind = "InfeasibleConstraints"
)

// Fatal reports whether this kind must abort the call, versus being
// folded into RebalanceResult.Warnings and recovered from.
func (k ErrorKind) Fatal() bool {
	switch k {
	case KindOptimizerNonConvergent, KindInfeasibleConstraints:
		return false
	default:
		return true
	}
}

// Error wraps an ErrorKind with a human-readable message. It supports
// errors.Is against the package-level sentinels below.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind ErrorKind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

// Sentinel values for errors.Is comparisons against a Kind only.
var (
	ErrEmptyPortfolio        = newErr(KindEmptyPortfolio, "")
	ErrInvalidTargets        = newErr(KindInvalidTargets, "")
	ErrInvalidCovariance     = newErr(KindInvalidCovariance, "")
	ErrInsufficientScenarios = newErr(KindInsufficientScenarios, "")
	ErrPrecisionOverflow     = newErr(KindPrecisionOverflow, "")
	ErrOptimizerNonConvergent = newErr(KindOptimizerNonConvergent, "")
	ErrInfeasibleConstraints = newErr(KindInfeasibleConstraints, "")
)

// NewError constructs an *Error carrying a specific message for kind.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	if len(args) == 0 {
		return newErr(kind, format)
	}
	return newErr(kind, fmt.Sprintf(format, args...))
}

// KindOf extracts the ErrorKind from err if it (or something it
// wraps) is a *Error, ok=false otherwise.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
