package middleware

import (
	"errors"
	"net/http"

	"github.com/MustafaxCmrt/Social-Network-sub000/auth"
)

// StatusCode maps engine errors to HTTP statuses.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if r, ok := auth.AsRejection(err); ok {
		switch r.Kind {
		case auth.RejectAccountBanned:
			return http.StatusForbidden
		case auth.RejectRateLimited:
			return http.StatusTooManyRequests
		case auth.RejectTokenInvalidOrExpired:
			return http.StatusBadRequest
		default:
			return http.StatusUnauthorized
		}
	}
	switch {
	case errors.Is(err, auth.ErrNotVersioned):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, auth.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrPasswordPolicy),
		errors.Is(err, auth.ErrInvalidSanction),
		errors.Is(err, auth.ErrUnsupportedPurpose):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrAlreadySanctioned):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
