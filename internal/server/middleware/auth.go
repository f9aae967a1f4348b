// Package middleware provides HTTP middleware for session authentication.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

const sessionIDKey ContextKey = "sessionID"

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (SubjectGetter, error)
}

// SubjectGetter exposes the subject of validated claims.
type SubjectGetter interface {
	GetSubject() (string, error)
}

// UnauthorizedFunc writes the response for a rejected request.
type UnauthorizedFunc func(w http.ResponseWriter, r *http.Request)

func defaultUnauthorized(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// AuthMiddleware validates the bearer token and stores its subject, the
// session id, in the request context.
func AuthMiddleware(validator TokenValidator, onReject UnauthorizedFunc) func(http.Handler) http.Handler {
	if onReject == nil {
		onReject = defaultUnauthorized
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				onReject(w, r)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				onReject(w, r)
				return
			}
			subject, err := claims.GetSubject()
			if err != nil || subject == "" {
				onReject(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionIDKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// GetSessionID extracts the authenticated session id from the request context.
func GetSessionID(r *http.Request) (string, error) {
	id, ok := r.Context().Value(sessionIDKey).(string)
	if !ok || id == "" {
		return "", errors.New("session ID not found in request context")
	}
	return id, nil
}

// WithSessionID returns ctx carrying id, for tests and internal callers.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}
