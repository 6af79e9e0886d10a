package errors

import (
	stderrors "errors"
	"fmt"

	"gosurv/domain/core"
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

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Cause:   err,
	}
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
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
	_, ok := err.(*AppError)
	return ok
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeDegenerateSample = "DEGENERATE_SAMPLE"
	CodeFitFailed        = "FIT_FAILED"
	CodeOutsideDomain    = "OUTSIDE_DOMAIN"
	CodeRenderError      = "RENDER_ERROR"
	CodeDatabaseError    = "DATABASE_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeReplayMismatch   = "REPLAY_MISMATCH"
	CodeInternalError    = "INTERNAL_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

// InvalidInput reports malformed user-supplied data
func InvalidInput(message string, cause error) *AppError {
	return &AppError{Code: CodeInvalidInput, Message: message, Cause: cause}
}

// NotFound reports a missing resource; the domain not-found sentinel stays
// reachable through errors.Is
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Cause:   core.NewNotFoundError(resource, id),
	}
}

// RenderError wraps a failure to produce a report artifact
func RenderError(artifact string, cause error) *AppError {
	return &AppError{
		Code:    CodeRenderError,
		Message: fmt.Sprintf("failed to render %s", artifact),
		Cause:   cause,
	}
}

// FromDomain maps a domain sentinel error onto an application error code
func FromDomain(err error) error {
	if err == nil {
		return nil
	}
	if IsAppError(err) {
		return err
	}
	switch {
	case stderrors.Is(err, core.ErrInvalidSpec):
		return WithCode(CodeInvalidInput, err)
	case stderrors.Is(err, core.ErrDegenerateSample), stderrors.Is(err, core.ErrInsufficientData):
		return WithCode(CodeDegenerateSample, err)
	case stderrors.Is(err, core.ErrNotConverged), stderrors.Is(err, core.ErrSingular):
		return WithCode(CodeFitFailed, err)
	case stderrors.Is(err, core.ErrOutsideDomain):
		return WithCode(CodeOutsideDomain, err)
	case stderrors.Is(err, core.ErrNotFound):
		return WithCode(CodeNotFound, err)
	case core.IsDeterminismError(err):
		return WithCode(CodeReplayMismatch, err)
	default:
		return WithCode(CodeInternalError, err)
	}
}
