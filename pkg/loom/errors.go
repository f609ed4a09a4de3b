package loom

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies runtime failures.
type ErrorCode uint16

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeNotFound
	ErrCodeCircularDependency
	ErrCodeDuplicateBinding
	ErrCodeProviderFailed
	ErrCodeStartupFailed
	ErrCodeShutdownFailed
	ErrCodeScopeMismatch
	ErrCodeMissingParam
	ErrCodeMissingProperty
	ErrCodeConversion
	ErrCodeAlreadyStarted
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:            "UNKNOWN",
	ErrCodeNotFound:           "NOT_FOUND",
	ErrCodeCircularDependency: "CIRCULAR_DEPENDENCY",
	ErrCodeDuplicateBinding:   "DUPLICATE_BINDING",
	ErrCodeProviderFailed:     "PROVIDER_FAILED",
	ErrCodeStartupFailed:      "STARTUP_FAILED",
	ErrCodeShutdownFailed:     "SHUTDOWN_FAILED",
	ErrCodeScopeMismatch:      "SCOPE_MISMATCH",
	ErrCodeMissingParam:       "MISSING_PARAM",
	ErrCodeMissingProperty:    "MISSING_PROPERTY",
	ErrCodeConversion:         "CONVERSION_FAILED",
	ErrCodeAlreadyStarted:     "ALREADY_STARTED",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", c)
}

// Error is the runtime error type. Binding carries the (type, qualifier)
// display form of the component involved; Chain carries the resolution path
// for circular dependency reports.
type Error struct {
	Code    ErrorCode
	Message string
	Binding string
	Cause   error
	Chain   []string
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", e.Code)
	if e.Binding != "" {
		fmt.Fprintf(&b, " binding=%q:", e.Binding)
	}
	b.WriteString(" ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func (e *Error) withBinding(binding string) *Error {
	e.Binding = binding
	return e
}

func (e *Error) withChain(chain []string) *Error {
	e.Chain = chain
	return e
}

func newError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func errNotFound(binding string) *Error {
	return newError(
		ErrCodeNotFound,
		fmt.Sprintf("no binding registered for %s", binding),
		nil,
	).withBinding(binding)
}

func errCircular(chain []string) *Error {
	return newError(
		ErrCodeCircularDependency,
		fmt.Sprintf("circular dependency detected: %s", strings.Join(chain, " -> ")),
		nil,
	).withChain(chain)
}

func errDuplicate(binding string) *Error {
	return newError(
		ErrCodeDuplicateBinding,
		fmt.Sprintf("binding already registered for %s", binding),
		nil,
	).withBinding(binding)
}

func errProviderFailed(binding string, cause error) *Error {
	return newError(
		ErrCodeProviderFailed,
		fmt.Sprintf("provider for %s returned error", binding),
		cause,
	).withBinding(binding)
}

func errScopeMismatch(binding, scope string) *Error {
	return newError(
		ErrCodeScopeMismatch,
		fmt.Sprintf("%s requires an open %s scope", binding, scope),
		nil,
	).withBinding(binding)
}

// IsNotFound reports whether err is a missing-binding error.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeNotFound
}

// IsCircularDependency reports whether err is a dependency cycle error.
func IsCircularDependency(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeCircularDependency
}

// IsDuplicateBinding reports whether err is a duplicate registration error.
func IsDuplicateBinding(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeDuplicateBinding
}

// IsScopeMismatch reports whether err came from resolving a scoped
// component outside its scope.
func IsScopeMismatch(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeScopeMismatch
}
