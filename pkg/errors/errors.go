// Package errors provides severity-aware error types for the quote
// pipeline and its boundaries.
package errors

import "fmt"

// Severity indicates error impact level.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// QuoteError is a structured error with context.
type QuoteError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Severity    Severity `json:"severity"`
	ModuleID    string   `json:"module_id,omitempty"`
	Recoverable bool     `json:"recoverable"`
}

func (e *QuoteError) Error() string {
	if e.ModuleID != "" {
		return fmt.Sprintf("[%s] %s: %s (module: %s)", e.Severity, e.Code, e.Message, e.ModuleID)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Code, e.Message)
}

// Error codes
const (
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeCriticalModule   = "CRITICAL_MODULE_FAILED"
	ErrCodeMissingBaseCost  = "MISSING_BASE_COST"
	ErrCodeMissingModule    = "MISSING_MODULE"
	ErrCodeSignatureInvalid = "SIGNATURE_INVALID"
	ErrCodeSignatureStale   = "SIGNATURE_STALE"
)

// Critical wraps a module error that must abort the run.
func Critical(moduleID string, err error) *QuoteError {
	return &QuoteError{
		Code:        ErrCodeCriticalModule,
		Message:     err.Error(),
		Severity:    SeverityFatal,
		ModuleID:    moduleID,
		Recoverable: false,
	}
}

// InvalidInput creates a boundary validation error.
func InvalidInput(message string) *QuoteError {
	return &QuoteError{
		Code:        ErrCodeInvalidInput,
		Message:     message,
		Severity:    SeverityError,
		Recoverable: false,
	}
}

// MissingField creates a validation error for a missing required field.
func MissingField(field string) *QuoteError {
	return InvalidInput(fmt.Sprintf("missing required field: %s", field))
}

// MissingModule reports a required module absent from the registry.
func MissingModule(moduleID string) *QuoteError {
	return &QuoteError{
		Code:        ErrCodeMissingModule,
		Message:     fmt.Sprintf("required module %q is not registered", moduleID),
		Severity:    SeverityError,
		ModuleID:    moduleID,
		Recoverable: false,
	}
}

// SignatureInvalid classifies a secured price whose signature does not
// match. Recoverable: the caller falls back to recomputation.
func SignatureInvalid(err error) *QuoteError {
	return &QuoteError{
		Code:        ErrCodeSignatureInvalid,
		Message:     err.Error(),
		Severity:    SeverityWarning,
		Recoverable: true,
	}
}

// SignatureStale classifies a secured price older than the validity
// window. Recoverable: the caller falls back to recomputation.
func SignatureStale(err error) *QuoteError {
	return &QuoteError{
		Code:        ErrCodeSignatureStale,
		Message:     err.Error(),
		Severity:    SeverityWarning,
		Recoverable: true,
	}
}
