package dto

import "net/http"

// Error codes returned to API clients
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Resource error codes
const (
	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeConflict      = "ERR_CONFLICT"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeRequestInFlight is returned while a request with the same idempotency key runs
	ErrCodeRequestInFlight = "ERR_REQUEST_IN_FLIGHT"
)

// Business rule error codes
const (
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Infrastructure error codes
const (
	ErrCodePersistence  = "ERR_PERSISTENCE"
	ErrCodeRenderFailed = "ERR_RENDER_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeConflict:        http.StatusConflict,
	ErrCodeAlreadyExists:   http.StatusConflict,
	ErrCodeRequestInFlight: http.StatusConflict,

	ErrCodeInvalidState: http.StatusUnprocessableEntity,

	ErrCodePersistence:  http.StatusInternalServerError,
	ErrCodeRenderFailed: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"VALIDATION_ERROR":  ErrCodeValidation,
	"INVALID_INPUT":     ErrCodeInvalidInput,
	"NOT_FOUND":         ErrCodeNotFound,
	"CONFLICT":          ErrCodeConflict,
	"ALREADY_EXISTS":    ErrCodeAlreadyExists,
	"INVALID_STATE":     ErrCodeInvalidState,
	"PERSISTENCE_ERROR": ErrCodePersistence,
	"RENDER_FAILED":     ErrCodeRenderFailed,
	"RENDER_ABORTED":    ErrCodeRenderFailed,
	"NO_DOCUMENT":       ErrCodeNotFound,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in API format, and unknown codes, are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
