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

// Common application errors
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrSourceDir      = errors.New("source directory unavailable")
	ErrUpstreamStatus = errors.New("conversion service returned non-2xx status")
	ErrArchive        = errors.New("archive error")
	ErrReport         = errors.New("report error")
	ErrLedger         = errors.New("ledger error")
)

// Error codes carried by AppError.
const (
	CodeConfig   = "CONFIG_ERROR"
	CodeSource   = "SOURCE_ERROR"
	CodeUpstream = "UPSTREAM_ERROR"
	CodeArchive  = "ARCHIVE_ERROR"
	CodeReport   = "REPORT_ERROR"
	CodeLedger   = "LEDGER_ERROR"
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

// IsSkippable reports whether err only disqualifies the current input file.
// Anything else ends the run.
func IsSkippable(err error) bool {
	return errors.Is(err, ErrUpstreamStatus)
}
