package apperror

import (
	"errors"
	"fmt"
)

// Code classifies application errors for transport mapping and callers that
// need to branch on failure kind without string matching.
type Code string

const (
	CodeNotFound          Code = "NOT_FOUND"
	CodeAccessDenied      Code = "ACCESS_DENIED"
	CodeInvalidInput      Code = "INVALID_INPUT"
	CodeProviderError     Code = "PROVIDER_ERROR"
	CodeInvalidExtraction Code = "INVALID_EXTRACTION"
	CodeNoNextStage       Code = "NO_NEXT_STAGE"
	CodeInternal          Code = "INTERNAL"
)

// AppError is the single error type that crosses service boundaries.
type AppError struct {
	Code    Code
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message)
}

func AccessDenied(message string) *AppError {
	return New(CodeAccessDenied, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func Provider(message string, err error) *AppError {
	return Wrap(CodeProviderError, message, err)
}

func InvalidExtraction(message string, err error) *AppError {
	return Wrap(CodeInvalidExtraction, message, err)
}

func Internal(message string, err error) *AppError {
	return Wrap(CodeInternal, message, err)
}

// CodeOf extracts the classification of err, or CodeInternal for plain errors.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
