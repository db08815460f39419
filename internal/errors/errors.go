package errors

import (
	"errors"
	"fmt"
)

// Failure kinds for the login relay. Every failure is reported to the caller
// as a plain string, the kind stays reachable through errors.Is.
var (
	// Target errors
	ErrNoActiveTarget         = errors.New("no active target")
	ErrRestrictedTargetScheme = errors.New("restricted target scheme")
	ErrScriptInjectionFailed  = errors.New("script injection failed")

	// Authentication errors
	ErrNetworkFailure         = errors.New("network failure")
	ErrResponseParseFailure   = errors.New("response parse failure")
	ErrAuthenticationRejected = errors.New("authentication rejected")

	// Token propagation errors
	ErrStorageWriteFailure = errors.New("storage write failure")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
)

// RelayError carries a user facing message alongside the failure kind.
type RelayError struct {
	Kind    error
	Message string
}

func (e *RelayError) Error() string {
	return e.Message
}

func (e *RelayError) Unwrap() error {
	return e.Kind
}

// Newf creates an error whose message is exactly the formatted string and
// which matches kind with errors.Is.
func Newf(kind error, format string, args ...interface{}) error {
	return &RelayError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// KindOf returns the failure kind of err, or nil when err is not a RelayError.
func KindOf(err error) error {
	var re *RelayError
	if errors.As(err, &re) {
		return re.Kind
	}
	return nil
}
