package handler

import (
	"context"
	"net/http"
)

// userIDKey is the context key for the authenticated user identifier.
type userIDKey struct{}

// UserID extracts the user identifier from the context. It returns an
// empty string outside RequireUser-protected routes.
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey{}).(string); ok {
		return id
	}
	return ""
}

// RequireUser demands an X-User-ID header and stores its value in the
// request context. Token verification happens upstream (gateway); the
// storefront treats the identifier as opaque.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-User-ID")
		if id == "" {
			writeError(w, http.StatusUnauthorized, "user identity required")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
