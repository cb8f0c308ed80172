package shared

import (
	"errors"
	"fmt"
)

// Error codes. They are part of the API contract and map onto HTTP statuses.
const (
	CodeValidation             = "VALIDATION_ERROR"
	CodeNotFound               = "NOT_FOUND"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeDuplicateCallback      = "DUPLICATE_CALLBACK"
	CodeReconciliationMismatch = "RECONCILIATION_MISMATCH"
	CodeGatewayUnavailable     = "GATEWAY_UNAVAILABLE"
	CodeGatewayRejected        = "GATEWAY_REJECTED"
	CodeConcurrencyConflict    = "CONCURRENCY_CONFLICT"
	CodeAlreadyExists          = "ALREADY_EXISTS"
	CodeUnauthorized           = "UNAUTHORIZED"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	Err       error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError carrying the same code
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Sentinels for errors.Is checks
var (
	ErrValidation             = NewDomainError(CodeValidation, "Validation failed")
	ErrNotFound               = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidStateTransition = NewDomainError(CodeInvalidStateTransition, "State transition not allowed")
	ErrDuplicateCallback      = NewDomainError(CodeDuplicateCallback, "Callback already processed")
	ErrReconciliationMismatch = NewDomainError(CodeReconciliationMismatch, "Callback does not match the amount due")
	ErrGatewayUnavailable     = &DomainError{Code: CodeGatewayUnavailable, Message: "Payment gateway unavailable", Retryable: true}
	ErrGatewayRejected        = NewDomainError(CodeGatewayRejected, "Payment gateway rejected the request")
	ErrConcurrencyConflict    = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrAlreadyExists          = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrUnauthorized           = NewDomainError(CodeUnauthorized, "Authentication required")
)

// NewValidationError reports malformed input rejected before persistence
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError reports an unknown identifier
func NewNotFoundError(resource string, id any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %v not found", resource, id))
}

// NewInvalidTransitionError reports a state change the transition table forbids
func NewInvalidTransitionError(entity string, from, to fmt.Stringer) *DomainError {
	return NewDomainError(CodeInvalidStateTransition,
		fmt.Sprintf("%s cannot transition from %s to %s", entity, from, to))
}

// NewReconciliationMismatchError reports a success callback that disagrees with local state
func NewReconciliationMismatchError(format string, args ...any) *DomainError {
	return NewDomainError(CodeReconciliationMismatch, fmt.Sprintf(format, args...))
}

// NewGatewayUnavailableError wraps a transient gateway failure
func NewGatewayUnavailableError(rail string, cause error) *DomainError {
	return &DomainError{
		Code:      CodeGatewayUnavailable,
		Message:   fmt.Sprintf("%s gateway unavailable", rail),
		Retryable: true,
		Err:       cause,
	}
}

// NewGatewayRejectedError wraps a definitive gateway refusal
func NewGatewayRejectedError(rail string, cause error) *DomainError {
	return &DomainError{
		Code:    CodeGatewayRejected,
		Message: fmt.Sprintf("%s gateway rejected the transaction", rail),
		Err:     cause,
	}
}

// NewUnauthorizedError reports a request whose credentials or signature did not check out
func NewUnauthorizedError(format string, args ...any) *DomainError {
	return NewDomainError(CodeUnauthorized, fmt.Sprintf(format, args...))
}

// NewConcurrencyConflictError reports a conditional write that matched no rows
func NewConcurrencyConflictError(resource string, id any) *DomainError {
	return NewDomainError(CodeConcurrencyConflict,
		fmt.Sprintf("%s %v was modified concurrently", resource, id))
}

// CodeOf returns the DomainError code in err's chain, or "" if there is none
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsRetryable reports whether the caller may retry the failed operation
func IsRetryable(err error) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Retryable
	}
	return false
}
