// Package errors carries coded errors through the analysis pipeline so that
// the HTTP layer and the CLI can tell a bad request from a missing series or
// a failing data source.
//
// Codes are grouped by range:
//   - 1-99: unknown
//   - 100-199: validation (symbols, date ranges, data types, periods, config)
//   - 200-299: bar data lookup and queries
//   - 300-399: indicator computation
//   - 600-699: backtest settings, empty series, result export
//   - 700-799: market data providers
//   - 800-899: commentary rendering and completion
//   - 900-999: stored analyses
//
// Usage:
//
//	// Reject an unknown exchange suffix
//	err := errors.Newf(errors.ErrCodeInvalidSymbol, "invalid stock symbol: %s", symbol)
//
//	// Attach a code to a provider failure
//	err := errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "tushare request failed", err)
//
//	// Treat a missing series as "no data" instead of a failure
//	if errors.HasCode(err, errors.ErrCodeDataNotFound) { ... }
//
//	// Map to a status code
//	if errors.GetCode(err).IsValidation() { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error is a coded error. Cause is optional.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New returns an error without a cause, such as a rejected request field.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches code and message to an error returned by a provider, a
// database or the completion endpoint.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Wrapf is Wrap with a formatted message. The cause comes before the format
// so call sites read as "wrap err as ...".
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Error renders "[code] message: cause".
func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("[%d] %s", e.Code, e.Message)
	}

	return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is forwards to the standard library so callers need one errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As forwards to the standard library so callers need one errors import.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode returns the code of the outermost *Error in err's chain, or
// ErrCodeUnknown. A batch failure wrapped with the failing symbol's code
// therefore keeps that code.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode reports whether GetCode(err) is code.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}
