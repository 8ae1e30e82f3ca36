package session

import (
	"context"
	"net/http"
	"strings"
)

const (
	// Header carries the bearer token.
	Header = "Authorization"
	prefix = "Bearer "
)

// TokenFromRequest extracts the bearer token from the Authorization header.
// It returns "" when the header is absent.
func TokenFromRequest(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get(Header))
	if len(v) >= len(prefix) && strings.EqualFold(v[:len(prefix)], prefix) {
		v = v[len(prefix):]
	}
	return strings.TrimSpace(v)
}

type tokenContextKey struct{}

// WithToken stores a bearer token in ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext returns the token stored by WithToken.
func TokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	token, _ := ctx.Value(tokenContextKey{}).(string)
	return token
}

// Middleware copies the request's bearer token into its context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := TokenFromRequest(r); token != "" {
			r = r.WithContext(WithToken(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}
