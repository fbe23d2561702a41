// Package middleware implements the HTTP middleware stack of the
// licence-desk API: bearer-token and API-key identity, request IDs and
// per-client rate limiting.
package middleware

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims is the validated token content the auth middleware works
// with. Raw keeps every claim so the configured name claim, which ends
// up in the audit trail, can be read without re-parsing the token.
type JWTClaims struct {
	Subject  string
	Issuer   string
	Audience []string
	Raw      map[string]any
}

// JWTValidator checks a bearer token and returns its claims.
type JWTValidator interface {
	Validate(ctx context.Context, token string) (*JWTClaims, error)
}

// OIDCValidator verifies tokens against a remote key set, either
// discovered from the issuer or fetched from an explicit JWKS URL.
type OIDCValidator struct {
	verifier *oidc.IDTokenVerifier
	issuers  map[string]bool
}

// NewOIDCValidator discovers the provider at issuerURL and verifies
// tokens against its published keys.
func NewOIDCValidator(ctx context.Context, issuerURL, audience string, allowedIssuers []string) (*OIDCValidator, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery for %s: %w", issuerURL, err)
	}
	return &OIDCValidator{
		verifier: provider.Verifier(&oidc.Config{ClientID: audience}),
		issuers:  issuerAllowlist(allowedIssuers, issuerURL),
	}, nil
}

// NewOIDCValidatorFromJWKS skips discovery and verifies against the key
// set at jwksURL directly, for providers without a discovery document.
func NewOIDCValidatorFromJWKS(ctx context.Context, jwksURL, issuerURL, audience string, allowedIssuers []string) (*OIDCValidator, error) {
	keySet := oidc.NewRemoteKeySet(ctx, jwksURL)
	return &OIDCValidator{
		verifier: oidc.NewVerifier(issuerURL, keySet, &oidc.Config{ClientID: audience}),
		issuers:  issuerAllowlist(allowedIssuers, issuerURL),
	}, nil
}

// issuerAllowlist builds the issuer set, defaulting to the configured
// issuer when no explicit list is given.
func issuerAllowlist(allowed []string, fallback string) map[string]bool {
	issuers := make(map[string]bool, len(allowed))
	for _, iss := range allowed {
		issuers[iss] = true
	}
	if len(issuers) == 0 && fallback != "" {
		issuers[fallback] = true
	}
	return issuers
}

// Validate verifies signature and audience, then applies the issuer
// allowlist.
func (v *OIDCValidator) Validate(ctx context.Context, token string) (*JWTClaims, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if len(v.issuers) > 0 && !v.issuers[idToken.Issuer] {
		return nil, fmt.Errorf("issuer %q is not allowed", idToken.Issuer)
	}
	var raw map[string]any
	if err := idToken.Claims(&raw); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	return &JWTClaims{
		Subject:  idToken.Subject,
		Issuer:   idToken.Issuer,
		Audience: idToken.Audience,
		Raw:      raw,
	}, nil
}

// HS256Validator verifies tokens signed with a shared secret. Meant for
// local development and deskctl admin tokens, not for a real identity
// provider.
type HS256Validator struct {
	secret []byte
}

// NewHS256Validator creates a shared-secret validator.
func NewHS256Validator(secret string) (*HS256Validator, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is empty")
	}
	return &HS256Validator{secret: []byte(secret)}, nil
}

// Validate verifies an HS256 signature and lifts the standard claims.
func (v *HS256Validator) Validate(_ context.Context, token string) (*JWTClaims, error) {
	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unsupported claims type %T", parsed.Claims)
	}

	claims := &JWTClaims{Raw: map[string]any(mapClaims)}
	claims.Subject, _ = mapClaims["sub"].(string)
	claims.Issuer, _ = mapClaims["iss"].(string)
	switch aud := mapClaims["aud"].(type) {
	case string:
		claims.Audience = []string{aud}
	case []any:
		for _, a := range aud {
			if s, ok := a.(string); ok {
				claims.Audience = append(claims.Audience, s)
			}
		}
	}
	return claims, nil
}
