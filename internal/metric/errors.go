package metric

import (
	"errors"
	"fmt"
)

// Failure classes. Every error returned by Compute matches exactly one of
// these with errors.Is. ErrTimeout and ErrCanceled are raised by the report
// runner, not by Compute.
var (
	ErrSchema                 = errors.New("schema error")
	ErrInvalidPrivilegedGroup = errors.New("invalid privileged group")
	ErrMissingGroupData       = errors.New("missing group data")
	ErrComputation            = errors.New("computation failure")
	ErrTimeout                = errors.New("computation timeout")
	ErrCanceled               = errors.New("computation canceled")
)

// Error codes carried by Error.
const (
	CodeSchema                 = "SCHEMA_ERROR"
	CodeInvalidPrivilegedGroup = "INVALID_PRIVILEGED_GROUP"
	CodeMissingGroupData       = "MISSING_GROUP_DATA"
	CodeComputation            = "COMPUTATION_FAILURE"
	CodeTimeout                = "COMPUTATION_TIMEOUT"
	CodeCanceled               = "COMPUTATION_CANCELED"
	CodeUnknown                = "UNKNOWN"
)

var codeByClass = []struct {
	class error
	code  string
}{
	{ErrSchema, CodeSchema},
	{ErrInvalidPrivilegedGroup, CodeInvalidPrivilegedGroup},
	{ErrMissingGroupData, CodeMissingGroupData},
	{ErrComputation, CodeComputation},
	{ErrTimeout, CodeTimeout},
	{ErrCanceled, CodeCanceled},
}

// Error is a metric-local failure.
type Error struct {
	Code   string
	Metric string
	class  error
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Metric, e.class, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Metric, e.class)
}

// Unwrap exposes both the failure class and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.class}
	}
	return []error{e.class, e.Cause}
}

func newError(class error, metric string, cause error) *Error {
	return &Error{Code: codeOf(class), Metric: metric, class: class, Cause: cause}
}

// NewTimeoutError reports a metric that did not finish within its budget.
func NewTimeoutError(metric string, cause error) *Error {
	return newError(ErrTimeout, metric, cause)
}

// NewCanceledError reports a metric abandoned because the run itself was
// stopped.
func NewCanceledError(metric string, cause error) *Error {
	return newError(ErrCanceled, metric, cause)
}

// GetCode returns the error code of a metric failure, or CodeUnknown.
func GetCode(err error) string {
	var merr *Error
	if errors.As(err, &merr) {
		return merr.Code
	}
	for _, c := range codeByClass {
		if errors.Is(err, c.class) {
			return c.code
		}
	}
	return CodeUnknown
}

func codeOf(class error) string {
	for _, c := range codeByClass {
		if c.class == class {
			return c.code
		}
	}
	return CodeUnknown
}
