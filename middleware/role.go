package middleware

import (
	"context"
	"net/http"
)

// RoleLookup returns the current role of an account from the store.
type RoleLookup func(ctx context.Context, accountID string) (string, error)

// RequireRole admits only authenticated accounts whose stored role is one of
// roles. It must run behind Guard.
func RequireRole(lookup RoleLookup, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := AuthResultFromContext(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			allowed, err := hasRole(r.Context(), lookup, res.AccountID, roles)
			if err != nil {
				WriteError(w, http.StatusServiceUnavailable, "service unavailable")
				return
			}
			if !allowed {
				WriteError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasRole(ctx context.Context, lookup RoleLookup, accountID string, roles []string) (bool, error) {
	if lookup == nil {
		return false, nil
	}
	role, err := lookup(ctx, accountID)
	if err != nil {
		return false, err
	}
	for _, want := range roles {
		if role == want {
			return true, nil
		}
	}
	return false, nil
}
