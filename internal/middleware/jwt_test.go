package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "desk-test-secret-32-bytes-xxxxxx"

// signHS256 creates a signed token for the given claims.
func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestNewHS256Validator_RequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewHS256Validator("")
	require.Error(t, err)

	v, err := NewHS256Validator(testSecret)
	require.NoError(t, err)
	require.NotNil(t, v)
}

func TestHS256Validator_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		token   string
		wantErr bool
		wantSub string
		wantIss string
		wantAud []string
	}{
		{
			name: "compliance officer token",
			token: signHS256(t, testSecret, jwt.MapClaims{
				"sub":  "officer-7",
				"iss":  "https://login.licence-desk.test",
				"name": "Amira K",
				"aud":  "licence-desk",
				"exp":  time.Now().Add(time.Hour).Unix(),
			}),
			wantSub: "officer-7",
			wantIss: "https://login.licence-desk.test",
			wantAud: []string{"licence-desk"},
		},
		{
			name: "subject only",
			token: signHS256(t, testSecret, jwt.MapClaims{
				"sub": "deskctl-admin",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			wantSub: "deskctl-admin",
		},
		{
			name: "audience list",
			token: signHS256(t, testSecret, jwt.MapClaims{
				"sub": "officer-7",
				"aud": []string{"licence-desk", "reporting"},
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			wantSub: "officer-7",
			wantAud: []string{"licence-desk", "reporting"},
		},
		{
			name: "expired",
			token: signHS256(t, testSecret, jwt.MapClaims{
				"sub": "officer-7",
				"exp": time.Now().Add(-time.Minute).Unix(),
			}),
			wantErr: true,
		},
		{
			name: "wrong secret",
			token: signHS256(t, "another-secret", jwt.MapClaims{
				"sub": "officer-7",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			wantErr: true,
		},
		{
			name: "rs256 rejected",
			token: func() string {
				key, err := rsa.GenerateKey(rand.Reader, 2048)
				require.NoError(t, err)
				signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
					"sub": "officer-7",
					"exp": time.Now().Add(time.Hour).Unix(),
				}).SignedString(key)
				require.NoError(t, err)
				return signed
			}(),
			wantErr: true,
		},
		{name: "garbage", token: "not.a.token", wantErr: true},
		{name: "empty", token: "", wantErr: true},
	}

	v, err := NewHS256Validator(testSecret)
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			claims, err := v.Validate(context.Background(), tt.token)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSub, claims.Subject)
			assert.Equal(t, tt.wantIss, claims.Issuer)
			assert.Equal(t, tt.wantAud, claims.Audience)
			assert.NotNil(t, claims.Raw, "raw claims feed the name claim lookup")
		})
	}
}

func TestHS256Validator_NameClaimSurvivesInRaw(t *testing.T) {
	t.Parallel()

	v, err := NewHS256Validator(testSecret)
	require.NoError(t, err)

	token := signHS256(t, testSecret, jwt.MapClaims{
		"sub":  "officer-7",
		"name": "Amira K",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	claims, err := v.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "Amira K", claims.Raw["name"])
}

func TestNewOIDCValidatorFromJWKS_IssuerAllowlist(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		issuerURL   string
		allowed     []string
		wantIssuers map[string]bool
	}{
		{
			name:      "explicit list wins",
			issuerURL: "https://login.licence-desk.test",
			allowed:   []string{"https://a.test", "https://b.test"},
			wantIssuers: map[string]bool{
				"https://a.test": true,
				"https://b.test": true,
			},
		},
		{
			name:        "defaults to issuer url",
			issuerURL:   "https://login.licence-desk.test",
			wantIssuers: map[string]bool{"https://login.licence-desk.test": true},
		},
		{
			name:        "no issuer means no allowlist",
			issuerURL:   "",
			wantIssuers: map[string]bool{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, err := NewOIDCValidatorFromJWKS(
				context.Background(),
				"https://login.licence-desk.test/jwks.json",
				tt.issuerURL,
				"licence-desk",
				tt.allowed,
			)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIssuers, v.issuers)
			assert.NotNil(t, v.verifier)
		})
	}
}
