package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ErrNotConfigured is returned when no identity provider is set up.
var ErrNotConfigured = errors.New("auth is not configured")

// Identity is the authenticated player behind a token.
type Identity struct {
	UserID string
	Name   string
}

// Validator checks Neon Auth JWTs against the provider's JWKS.
// A nil *Validator rejects every token with ErrNotConfigured.
type Validator struct {
	issuer  string
	keyfunc jwt.Keyfunc
	methods []string
}

// NewValidator fetches the JWKS published under baseURL (e.g. NEON_AUTH_BASE_URL)
// and keeps it refreshed until ctx is done. An empty baseURL returns nil, nil.
func NewValidator(ctx context.Context, baseURL string) (*Validator, error) {
	if baseURL == "" {
		return nil, nil
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	jwksURL := strings.TrimRight(baseURL, "/") + "/.well-known/jwks.json"
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("load jwks: %w", err)
	}
	return &Validator{
		issuer:  u.Scheme + "://" + u.Host,
		keyfunc: jwks.Keyfunc,
		methods: []string{"EdDSA"},
	}, nil
}

// NewValidatorFromJWKS builds a Validator from a static JWKS document.
func NewValidatorFromJWKS(issuer string, raw json.RawMessage) (*Validator, error) {
	jwks, err := keyfunc.NewJWKSetJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("parse jwks: %w", err)
	}
	return &Validator{issuer: issuer, keyfunc: jwks.Keyfunc, methods: []string{"EdDSA"}}, nil
}

// Validate parses tokenString and returns the identity it carries.
func (v *Validator) Validate(tokenString string) (Identity, error) {
	if v == nil {
		return Identity{}, ErrNotConfigured
	}
	token, err := jwt.Parse(tokenString, v.keyfunc,
		jwt.WithIssuer(v.issuer),
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired())
	if err != nil {
		return Identity{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("invalid token claims")
	}
	id := UserIDFromClaims(claims)
	if id == "" {
		return Identity{}, fmt.Errorf("token has no subject")
	}
	return Identity{UserID: id, Name: FirstNameFromClaims(claims)}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// FirstNameFromClaims returns the first word of the "name" claim, or a fallback.
func FirstNameFromClaims(claims jwt.MapClaims) string {
	name, _ := claims["name"].(string)
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "Player"
	}
	return parts[0]
}

// UserIDFromClaims returns the user id from claims ("sub" or "id").
func UserIDFromClaims(claims jwt.MapClaims) string {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	if id, ok := claims["id"].(string); ok && id != "" {
		return id
	}
	return ""
}
