package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes written to the report "kind" column.
const (
	CodeExtraction            = "EXTRACTION_ERROR"
	CodeInference             = "INFERENCE_ERROR"
	CodeMissingIdentification = "MISSING_IDENTIFICATION"
	CodeFileSystem            = "FILESYSTEM_ERROR"
	CodeRootNotFound          = "ROOT_NOT_FOUND"
	CodeConfig                = "CONFIG_ERROR"
	CodeUnknown               = "UNKNOWN_ERROR"
)

// Common application errors
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrExtraction            = errors.New("text extraction failed")
	ErrInference             = errors.New("inference failed")
	ErrMissingIdentification = errors.New("no identification extracted")
	ErrFileSystem            = errors.New("filesystem operation failed")
	ErrRootNotFound          = errors.New("certificates root not found")
	ErrDatabase              = errors.New("database error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ExtractionError marks err as a document that could not be read.
func ExtractionError(message string, err error) error {
	return NewAppError(CodeExtraction, message, tag(ErrExtraction, err))
}

// InferenceError marks err as a failed or unparseable model call.
func InferenceError(message string, err error) error {
	return NewAppError(CodeInference, message, tag(ErrInference, err))
}

// FileSystemError marks err as a failed move or rename.
func FileSystemError(message string, err error) error {
	return NewAppError(CodeFileSystem, message, tag(ErrFileSystem, err))
}

func tag(sentinel, err error) error {
	if err == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// ErrorCode returns the AppError code carried by err, or a code derived from the sentinel it wraps.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	switch {
	case errors.Is(err, ErrExtraction):
		return CodeExtraction
	case errors.Is(err, ErrInference):
		return CodeInference
	case errors.Is(err, ErrMissingIdentification):
		return CodeMissingIdentification
	case errors.Is(err, ErrFileSystem):
		return CodeFileSystem
	case errors.Is(err, ErrRootNotFound):
		return CodeRootNotFound
	}
	return CodeUnknown
}
