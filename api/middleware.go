package api

import (
	"errors"
	"net/http"
	"strings"

	"realty-system/auth"
	"realty-system/user"
)

// authenticated verifies the bearer token and re-checks the account
// against the database, so suspended users lose access even with a valid
// token still in hand.
func (a *API) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			a.Response(w, http.StatusUnauthorized, "access token required")
			return
		}

		principal, err := a.tokens.Verify(strings.TrimPrefix(header, prefix))
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				a.Response(w, http.StatusUnauthorized, "token expired")
				return
			}
			a.Response(w, http.StatusForbidden, "invalid token")
			return
		}

		active, err := user.NewAccessor(a.db).IsActive(r.Context(), principal.UserID)
		if err != nil {
			a.serverError(w, err)
			return
		}
		if !active {
			a.Response(w, http.StatusUnauthorized, "account not found or inactive")
			return
		}

		next(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	}
}

// optionalPrincipal verifies a bearer token when one is supplied, without
// rejecting anonymous callers.
func (a *API) optionalPrincipal(r *http.Request) (auth.Principal, bool) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return auth.Principal{}, false
	}
	p, err := a.tokens.Verify(strings.TrimPrefix(header, prefix))
	if err != nil {
		return auth.Principal{}, false
	}
	return p, true
}

// withRole gates a handler to one role. Admins pass every gate.
func (a *API) withRole(role auth.Role, next http.HandlerFunc) http.HandlerFunc {
	return a.authenticated(func(w http.ResponseWriter, r *http.Request) {
		p := a.principal(r)
		if p.Role != role && !p.IsAdmin() {
			a.Response(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		next(w, r)
	})
}
