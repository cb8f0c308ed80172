package dto

import (
	"net/http"

	"github.com/rentflow/backend/internal/domain/shared"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Request error codes
const (
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized     = "ERR_UNAUTHORIZED"
	ErrCodeForbidden        = "ERR_FORBIDDEN"
	ErrCodeTokenExpired     = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid     = "ERR_TOKEN_INVALID"
	ErrCodeInvalidSignature = "ERR_INVALID_SIGNATURE"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Payment error codes
const (
	ErrCodeInvalidState           = "ERR_INVALID_STATE"
	ErrCodeDuplicateCallback      = "ERR_DUPLICATE_CALLBACK"
	ErrCodeReconciliationMismatch = "ERR_RECONCILIATION_MISMATCH"
	ErrCodeGatewayUnavailable     = "ERR_GATEWAY_UNAVAILABLE"
	ErrCodeGatewayRejected        = "ERR_GATEWAY_REJECTED"
)

// ErrCodeRateLimited is used when rate limit is exceeded
const ErrCodeRateLimited = "ERR_RATE_LIMITED"

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized:     http.StatusUnauthorized,
	ErrCodeForbidden:        http.StatusForbidden,
	ErrCodeTokenExpired:     http.StatusUnauthorized,
	ErrCodeTokenInvalid:     http.StatusUnauthorized,
	ErrCodeInvalidSignature: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	// Duplicates are acknowledged so the gateway stops redelivering.
	ErrCodeDuplicateCallback:      http.StatusOK,
	ErrCodeReconciliationMismatch: http.StatusUnprocessableEntity,
	ErrCodeGatewayUnavailable:     http.StatusServiceUnavailable,
	ErrCodeGatewayRejected:        http.StatusBadGateway,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps shared.DomainError codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	shared.CodeValidation:             ErrCodeValidation,
	shared.CodeNotFound:               ErrCodeNotFound,
	shared.CodeInvalidStateTransition: ErrCodeInvalidState,
	shared.CodeDuplicateCallback:      ErrCodeDuplicateCallback,
	shared.CodeReconciliationMismatch: ErrCodeReconciliationMismatch,
	shared.CodeGatewayUnavailable:     ErrCodeGatewayUnavailable,
	shared.CodeGatewayRejected:        ErrCodeGatewayRejected,
	shared.CodeConcurrencyConflict:    ErrCodeConcurrencyConflict,
	shared.CodeAlreadyExists:          ErrCodeAlreadyExists,
	shared.CodeUnauthorized:           ErrCodeUnauthorized,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format, or unknown, are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
