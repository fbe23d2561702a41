package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
)

type principalKey struct{}

// WithPrincipal stores the principal name in the context.
func WithPrincipal(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, principalKey{}, name)
}

// PrincipalFromContext extracts the principal name from the context.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(principalKey{}).(string)
	return name, ok
}

// APIKeyLookup resolves an API key hash to a principal name. Implemented
// by the API key repository.
type APIKeyLookup interface {
	LookupPrincipalByAPIKeyHash(ctx context.Context, keyHash string) (string, error)
}

// AuthOptions configures AuthMiddleware.
type AuthOptions struct {
	Validator    JWTValidator // required
	NameClaim    string       // claim used as principal name, falls back to sub
	APIKeys      APIKeyLookup // nil disables API key auth
	APIKeyHeader string       // default "X-API-Key"
}

// AuthMiddleware tries a JWT Bearer token first, then an API key header.
// Returns 401 if both fail.
func AuthMiddleware(opts AuthOptions) func(http.Handler) http.Handler {
	header := opts.APIKeyHeader
	if header == "" {
		header = "X-API-Key"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				tokenStr := strings.TrimPrefix(auth, "Bearer ")
				claims, err := opts.Validator.Validate(r.Context(), tokenStr)
				if err == nil {
					name := principalName(claims, opts.NameClaim)
					if name != "" {
						ctx := WithPrincipal(r.Context(), name)
						next.ServeHTTP(w, r.WithContext(ctx))
						return
					}
				}
			}

			if apiKey := r.Header.Get(header); apiKey != "" && opts.APIKeys != nil {
				hash := sha256.Sum256([]byte(apiKey))
				name, err := opts.APIKeys.LookupPrincipalByAPIKeyHash(r.Context(), hex.EncodeToString(hash[:]))
				if err == nil && name != "" {
					ctx := WithPrincipal(r.Context(), name)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"code":    401,
				"message": "unauthorized: provide a valid JWT Bearer token or API key",
			})
		})
	}
}

// principalName picks the configured claim from the token, falling back
// to the subject.
func principalName(claims *JWTClaims, nameClaim string) string {
	if nameClaim != "" {
		if v, ok := claims.Raw[nameClaim].(string); ok && v != "" {
			return v
		}
	}
	return claims.Subject
}
