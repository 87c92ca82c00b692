package dto

import (
	"net/http"

	"github.com/movr/backend/internal/domain/shared"
)

// Error codes returned in ErrorInfo.Code. Domain codes pass through
// unchanged, the rest belong to the HTTP layer.
const (
	ErrCodeNotFound        = shared.CodeNotFound
	ErrCodeAlreadyExists   = shared.CodeAlreadyExists
	ErrCodeInvalidInput    = shared.CodeInvalidInput
	ErrCodeConflict        = shared.CodeConflict
	ErrCodeInvalidState    = shared.CodeInvalidState
	ErrCodeUnauthorized    = shared.CodeUnauthorized
	ErrCodeValidation      = shared.CodeValidation
	ErrCodeFeatureDisabled = shared.CodeFeatureDisabled

	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeRouteNotFound   = "ROUTE_NOT_FOUND"
	ErrCodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeUnavailable     = "SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeRouteNotFound: http.StatusNotFound,

	ErrCodeConflict:        http.StatusConflict,
	ErrCodeAlreadyExists:   http.StatusConflict,
	ErrCodeInvalidState:    http.StatusConflict,
	ErrCodeFeatureDisabled: http.StatusConflict,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,

	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
