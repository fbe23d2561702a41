package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licence-desk/internal/domain"
)

const authTestSecret = "test-secret"

func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(authTestSecret))
	require.NoError(t, err)
	return signed
}

type fakeKeyLookup struct {
	hashes map[string]string
}

func (f *fakeKeyLookup) LookupPrincipalByAPIKeyHash(_ context.Context, keyHash string) (string, error) {
	if name, ok := f.hashes[keyHash]; ok {
		return name, nil
	}
	return "", domain.ErrNotFound("api key not found")
}

func newAuthHandler(t *testing.T, lookup APIKeyLookup) http.Handler {
	t.Helper()
	validator, err := NewHS256Validator(authTestSecret)
	require.NoError(t, err)

	mw := AuthMiddleware(AuthOptions{
		Validator: validator,
		NameClaim: "email",
		APIKeys:   lookup,
	})
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, _ := PrincipalFromContext(r.Context())
		w.Header().Set("X-Principal", name)
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuthMiddleware_ValidJWT(t *testing.T) {
	t.Parallel()

	handler := newAuthHandler(t, nil)
	token := signTestToken(t, jwt.MapClaims{
		"sub":   "user-1",
		"email": "alice@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice@example.com", rec.Header().Get("X-Principal"), "name claim wins over sub")
}

func TestAuthMiddleware_FallsBackToSubject(t *testing.T) {
	t.Parallel()

	handler := newAuthHandler(t, nil)
	token := signTestToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Header().Get("X-Principal"))
}

func TestAuthMiddleware_InvalidJWT(t *testing.T) {
	t.Parallel()

	handler := newAuthHandler(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_APIKey(t *testing.T) {
	t.Parallel()

	raw := "ld_testkey123"
	hash := sha256.Sum256([]byte(raw))
	lookup := &fakeKeyLookup{hashes: map[string]string{
		hex.EncodeToString(hash[:]): "ci-bot",
	}}
	handler := newAuthHandler(t, lookup)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", raw)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ci-bot", rec.Header().Get("X-Principal"))
}

func TestAuthMiddleware_UnknownAPIKey(t *testing.T) {
	t.Parallel()

	handler := newAuthHandler(t, &fakeKeyLookup{hashes: map[string]string{}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_NoCredentials(t *testing.T) {
	t.Parallel()

	handler := newAuthHandler(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")
}
