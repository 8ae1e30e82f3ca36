package api

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/sheetpool/pkg/coordinator"
)

var (
	ErrUnsupportedMediaType = errors.New("api.unsupported_media_type")
	ErrInvalidJSON          = errors.New("api.invalid_json")
	ErrBodyTooLarge         = errors.New("api.body_too_large")
)

// statusOf maps an error to its HTTP status and client-facing reason.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, "content-type must be application/json"
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, "request body too large"
	case errors.Is(err, ErrInvalidJSON):
		return http.StatusBadRequest, "invalid json"
	}

	reason := coordinator.ReasonOf(err)
	switch coordinator.KindOf(err) {
	case coordinator.KindUnauthorized:
		return http.StatusUnauthorized, reason
	case coordinator.KindForbidden:
		return http.StatusForbidden, reason
	case coordinator.KindNotFound:
		return http.StatusNotFound, reason
	case coordinator.KindConflict:
		return http.StatusConflict, reason
	case coordinator.KindBadRequest, coordinator.KindMissingValue:
		return http.StatusBadRequest, reason
	case coordinator.KindTooManyRequests:
		return http.StatusTooManyRequests, reason
	case coordinator.KindResourceExhausted, coordinator.KindLoadFailed:
		return http.StatusServiceUnavailable, reason
	}
	return http.StatusInternalServerError, reason
}
