package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"ga4dash/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context. Domain sentinels are mapped
// to their codes so that the code survives the wrapping.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    codeForDomain(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the error code if it's an AppError, otherwise the code
// implied by any domain sentinel it wraps
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	if err == nil {
		return "UNKNOWN"
	}
	if code := codeForDomain(err); code != CodeInternalError {
		return code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeDegenerateData  = "DEGENERATE_DATA"
	CodeDataUnavailable = "DATA_UNAVAILABLE"
)

// HTTPStatus maps an error code to the status the API answers with
func HTTPStatus(code string) int {
	switch code {
	case CodeInvalidInput, CodeValidationError:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDegenerateData:
		return http.StatusUnprocessableEntity
	case CodeDataUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FromDomain converts err into an AppError, keeping the code of an existing
// AppError and deriving one from domain sentinels otherwise
func FromDomain(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	code := codeForDomain(err)
	return &AppError{
		Code:    code,
		Message: defaultMessages[code],
		Cause:   err,
	}
}

var defaultMessages = map[string]string{
	CodeNotFound:        "not found",
	CodeInvalidInput:    "invalid input",
	CodeDegenerateData:  "data too sparse for the requested test",
	CodeDataUnavailable: "mart data unavailable",
	CodeInternalError:   "internal error",
}

func codeForDomain(err error) string {
	switch {
	case stderrors.Is(err, core.ErrDataDirNotFound):
		return CodeDataUnavailable
	case core.IsNotFoundError(err):
		return CodeNotFound
	case core.IsDegenerateError(err):
		return CodeDegenerateData
	case core.IsInputError(err):
		return CodeInvalidInput
	default:
		return CodeInternalError
	}
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func DataUnavailable(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeDataUnavailable,
		Message: message,
		Cause:   cause,
	}
}
