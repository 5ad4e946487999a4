// Package auth provides identity and tenant resolution for the HTTP API.
//
// Callers are identified either by a JWT bearer token validated against a
// JWKS endpoint, or by the X-User-Id / X-Organization-Id headers when no
// JWKS URL is configured. The organization always comes from the
// X-Organization-Id header; the token (when present) authenticates the user.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ragpipe/ragpipe/internal/config"
)

type contextKey string

const contextKeyCaller contextKey = "caller"

// Caller represents the authenticated caller of a request.
type Caller struct {
	UserID         string   `json:"userId"`
	OrganizationID string   `json:"organizationId,omitempty"`
	Issuer         string   `json:"issuer,omitempty"`
	Audience       []string `json:"audience,omitempty"`
	Roles          []string `json:"roles,omitempty"`
	Expires        int64    `json:"exp,omitempty"`
}

// FromContext extracts the caller from a request context.
func FromContext(ctx context.Context) *Caller {
	if c, ok := ctx.Value(contextKeyCaller).(*Caller); ok {
		return c
	}
	return &Caller{UserID: "anonymous"}
}

// Middleware returns an HTTP middleware that resolves the caller identity.
func Middleware(cfg *config.Config) func(http.Handler) http.Handler {
	keyCache := &jwksCache{
		url:     cfg.Auth.JWKSUrl,
		refresh: 15 * time.Minute,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			orgID := r.Header.Get("X-Organization-Id")
			authHeader := r.Header.Get("Authorization")

			// Header-based identity when auth is not configured.
			if cfg.Auth.JWKSUrl == "" || authHeader == "" {
				caller := &Caller{UserID: "anonymous", OrganizationID: orgID}
				if userID := r.Header.Get("X-User-Id"); userID != "" {
					caller.UserID = userID
				}
				ctx := context.WithValue(r.Context(), contextKeyCaller, caller)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, `{"error": "invalid authorization header"}`, http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			caller, err := validateToken(tokenString, keyCache, cfg)
			if err != nil {
				if cfg.Auth.Debug {
					http.Error(w, fmt.Sprintf(`{"error": %q}`, err.Error()), http.StatusUnauthorized)
				} else {
					http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
				}
				return
			}
			caller.OrganizationID = orgID

			ctx := context.WithValue(r.Context(), contextKeyCaller, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validateToken(tokenString string, keyCache *jwksCache, cfg *config.Config) (*Caller, error) {
	// Parse without validation first to get the key id.
	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, fmt.Errorf("missing kid in token header")
	}

	key, err := keyCache.GetKey(kid)
	if err != nil {
		return nil, fmt.Errorf("failed to get signing key: %w", err)
	}

	validatedToken, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	}, jwt.WithIssuer(cfg.Auth.Issuer), jwt.WithAudience(cfg.Auth.Audience))
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := validatedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type")
	}

	caller := &Caller{
		UserID: getStringClaim(claims, "sub"),
		Issuer: getStringClaim(claims, "iss"),
	}

	if aud, ok := claims["aud"].([]interface{}); ok {
		for _, a := range aud {
			if s, ok := a.(string); ok {
				caller.Audience = append(caller.Audience, s)
			}
		}
	} else if aud, ok := claims["aud"].(string); ok {
		caller.Audience = []string{aud}
	}

	if exp, ok := claims["exp"].(float64); ok {
		caller.Expires = int64(exp)
	}

	if roles, ok := claims["roles"].([]interface{}); ok {
		for _, r := range roles {
			if s, ok := r.(string); ok {
				caller.Roles = append(caller.Roles, s)
			}
		}
	}

	return caller, nil
}

func getStringClaim(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key].(string); ok {
		return val
	}
	return ""
}

// =============================================================================
// JWKS CACHE
// =============================================================================

type jwksCache struct {
	url     string
	refresh time.Duration

	mu        sync.RWMutex
	keys      map[string]interface{}
	fetchedAt time.Time
}

type jwksResponse struct {
	Keys []json.RawMessage `json:"keys"`
}

type jwkKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (c *jwksCache) GetKey(kid string) (interface{}, error) {
	c.mu.RLock()
	if time.Since(c.fetchedAt) < c.refresh && c.keys != nil {
		if key, ok := c.keys[kid]; ok {
			c.mu.RUnlock()
			return key, nil
		}
	}
	c.mu.RUnlock()

	if err := c.fetch(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if key, ok := c.keys[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("key %s not found in JWKS", kid)
}

func (c *jwksCache) fetch() error {
	if c.url == "" {
		return fmt.Errorf("JWKS URL not configured")
	}

	resp, err := http.Get(c.url)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS request failed with status %d", resp.StatusCode)
	}

	var jwks jwksResponse
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]interface{})
	for _, rawKey := range jwks.Keys {
		var key jwkKey
		if err := json.Unmarshal(rawKey, &key); err != nil {
			continue
		}
		if key.Kty != "RSA" {
			continue
		}

		pubKey, err := parseRSAPublicKey(key.N, key.E)
		if err != nil {
			continue
		}
		keys[key.Kid] = pubKey
	}

	c.mu.Lock()
	c.keys = keys
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	return nil
}

func parseRSAPublicKey(nBase64, eBase64 string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nBase64)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eBase64)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent: %w", err)
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e <= 0 {
		return nil, fmt.Errorf("invalid exponent value")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
