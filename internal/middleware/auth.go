package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/socio/socio-go/internal/crypto"
)

type contextKey string

const identityKey contextKey = "identity"

// unauthorizedMessage is the only body a rejected request ever sees,
// whatever the reason for rejection.
const unauthorizedMessage = "unauthorized"

// TokenVerifier resolves a bearer token to the identity it asserts.
type TokenVerifier interface {
	Verify(token string) (crypto.Identity, error)
}

// JWTAuth returns middleware that validates a Bearer token from the Authorization header
// and binds the caller identity to the request context.
func JWTAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			token = strings.TrimSpace(token)
			if !found || token == "" {
				writeJSONError(w, http.StatusUnauthorized, unauthorizedMessage)
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, unauthorizedMessage)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity crypto.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext extracts the authenticated caller from the request context.
func IdentityFromContext(ctx context.Context) (crypto.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(crypto.Identity)
	return identity, ok
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	identity, ok := IdentityFromContext(ctx)
	return identity.UserID, ok
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
