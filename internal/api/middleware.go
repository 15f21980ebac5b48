// Package api implements the plugin registry REST API using chi.
package api

import (
	"net/http"

	"github.com/plugreg/plugreg/internal/auth"
)

// RequireUser returns middleware that resolves the request's user via
// the provider and stores it in the request context. Requests without a
// valid identity are rejected with 401.
func RequireUser(p auth.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := p.UserFromRequest(r)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), u)))
		})
	}
}
