package gerror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	ErrCodeInternal              Code = "Internal"
	ErrCodeValidationFailed      Code = "ValidationFailed"
	ErrCodeNotFound              Code = "NotFound"
	ErrCodeUnauthorized          Code = "Unauthorized"
	ErrCodeThrottled             Code = "Throttled"
	ErrCodeConfigDefect          Code = "ConfigDefect"
	ErrCodeDatabase              Code = "Database"
	ErrCodeGitOperationFailed    Code = "GitOperationFailed"
	ErrCodeScriptExecutionFailed Code = "ScriptExecutionFailed"
)

// ToError locates an Error in the provided error chain and returns it if it
// matches the provided code. Otherwise, returns nil.
func ToError(err error, code Code) *Error {
	if err == nil {
		return nil
	}
	var gErr Error
	if errors.As(err, &gErr) && gErr.Code() == code {
		return &gErr
	}
	return nil
}

func NewErrInternal() Error {
	return NewError(
		"An internal server error occurred",
		AudienceExternal,
		ErrCodeInternal,
		http.StatusInternalServerError,
		nil,
	)
}

func ToInternal(err error) *Error {
	return ToError(err, ErrCodeInternal)
}

func IsInternal(err error) bool {
	return ToInternal(err) != nil
}

func NewErrValidationFailed(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeValidationFailed, http.StatusBadRequest, nil)
}

func ToValidationFailed(err error) *Error {
	return ToError(err, ErrCodeValidationFailed)
}

func IsValidationFailed(err error) bool {
	return ToValidationFailed(err) != nil
}

func NewErrNotFound(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeNotFound, http.StatusNotFound, nil)
}

func ToNotFound(err error) *Error {
	return ToError(err, ErrCodeNotFound)
}

func IsNotFound(err error) bool {
	return ToNotFound(err) != nil
}

func NewErrUnauthorized(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeUnauthorized, http.StatusUnauthorized, nil)
}

func ToUnauthorized(err error) *Error {
	return ToError(err, ErrCodeUnauthorized)
}

func IsUnauthorized(err error) bool {
	return ToUnauthorized(err) != nil
}

func NewErrThrottled(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeThrottled, http.StatusTooManyRequests, nil)
}

func ToThrottled(err error) *Error {
	return ToError(err, ErrCodeThrottled)
}

func IsThrottled(err error) bool {
	return ToThrottled(err) != nil
}

// NewErrConfigDefect reports a server-side configuration problem, such as a
// project requiring a webhook secret that has not been set.
func NewErrConfigDefect(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeConfigDefect, http.StatusInternalServerError, nil)
}

func ToConfigDefect(err error) *Error {
	return ToError(err, ErrCodeConfigDefect)
}

func IsConfigDefect(err error) bool {
	return ToConfigDefect(err) != nil
}

func NewErrDatabase(message string, err error) Error {
	return NewError(message, AudienceInternal, ErrCodeDatabase, http.StatusInternalServerError, err)
}

func ToDatabase(err error) *Error {
	return ToError(err, ErrCodeDatabase)
}

func IsDatabase(err error) bool {
	return ToDatabase(err) != nil
}

// NewErrGitOperationFailed reports a git subprocess that exited nonzero or
// failed to spawn. The operation names the git step, e.g. "git fetch".
func NewErrGitOperationFailed(operation string, message string, err error) Error {
	return NewError(
		fmt.Sprintf("%s failed: %s", operation, message),
		AudienceInternal,
		ErrCodeGitOperationFailed,
		http.StatusInternalServerError,
		err,
	)
}

func ToGitOperationFailed(err error) *Error {
	return ToError(err, ErrCodeGitOperationFailed)
}

func IsGitOperationFailed(err error) bool {
	return ToGitOperationFailed(err) != nil
}

func NewErrScriptExecutionFailed(message string, err error) Error {
	return NewError(message, AudienceInternal, ErrCodeScriptExecutionFailed, http.StatusInternalServerError, err)
}

func ToScriptExecutionFailed(err error) *Error {
	return ToError(err, ErrCodeScriptExecutionFailed)
}

func IsScriptExecutionFailed(err error) bool {
	return ToScriptExecutionFailed(err) != nil
}
