package httpapi

import (
	"context"
	"net/http"
	"strings"

	"keep-backend-go/internal/policy"
	"keep-backend-go/internal/services"
)

type contextKey string

const (
	ctxPrincipal contextKey = "principal"
	ctxEmail     contextKey = "email"
)

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

func WithAuth(tokenService services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				WriteError(w, http.StatusUnauthorized, "Authentication failed")
				return
			}
			principal, email, err := tokenService.ParseAccess(tokenStr)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "Authentication failed")
				return
			}
			ctx := context.WithValue(r.Context(), ctxPrincipal, principal)
			ctx = context.WithValue(ctx, ctxEmail, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches a principal when a valid bearer token is present and
// otherwise lets the request through as anonymous.
func OptionalAuth(tokenService services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenStr := bearerToken(r); tokenStr != "" {
				if principal, email, err := tokenService.ParseAccess(tokenStr); err == nil {
					ctx := context.WithValue(r.Context(), ctxPrincipal, principal)
					ctx = context.WithValue(ctx, ctxEmail, email)
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func CurrentPrincipal(r *http.Request) policy.Principal {
	if value, ok := r.Context().Value(ctxPrincipal).(policy.Principal); ok {
		return value
	}
	return policy.Anonymous()
}

func CurrentUserID(r *http.Request) string {
	return CurrentPrincipal(r).ID
}

func CurrentEmail(r *http.Request) string {
	if value, ok := r.Context().Value(ctxEmail).(string); ok {
		return value
	}
	return ""
}

func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.EqualFold(CurrentPrincipal(r).Role, role) {
				WriteError(w, http.StatusForbidden, "Not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
