package api

import (
	"errors"
	"net/http"

	"referral_rewards/internal/service"
)

// serviceErrorStatus maps the service error taxonomy onto HTTP statuses.
// Unknown errors become an opaque 500 so internals never leak to callers.
func serviceErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidReferralCode),
		errors.Is(err, service.ErrSelfReferral):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrReferrerNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrAlreadyRegistered),
		errors.Is(err, service.ErrAlreadyReferred):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
