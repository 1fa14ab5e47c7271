// Package authtoken issues and verifies the bearer tokens spec.md §4.5
// describes: HMAC-signed, carrying {sub, role, jti, iat, exp}, verified
// locally by every service without a round-trip to Auth on every request.
// Grounded on WizardBeardStudio-open-rgs-go's internal/platform/auth/jwt.go,
// narrowed to a single active HMAC key (spec.md has no key-rotation
// requirement) and widened with the role/jti claims the role matrix and
// revocation cache need.
package authtoken

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingSecret = errors.New("authtoken: signing secret is required")
	ErrInvalidToken  = errors.New("authtoken: token is invalid or expired")
)

// Claims is the decoded form of a verified bearer token.
type Claims struct {
	Subject string // account holder or staff identity id
	Role    string // ADMIN, TELLER, or CUSTOMER
	JTI     string // unique token id, used as the revocation cache key
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Signer struct {
	secret []byte
}

func NewSigner(secret string) (*Signer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Issue mints a bearer token for the given subject/role with the given
// lifetime, returning the signed string and its claims.
func (s *Signer) Issue(subject, role, jti string, now time.Time, ttl time.Duration) (string, Claims, error) {
	if s == nil {
		return "", Claims{}, ErrMissingSecret
	}
	issuedAt := now.UTC()
	expiresAt := issuedAt.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"jti":  jti,
		"iat":  issuedAt.Unix(),
		"exp":  expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", Claims{}, err
	}
	return signed, Claims{
		Subject:   subject,
		Role:      role,
		JTI:       jti,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Parse validates signature and expiry and returns the decoded claims.
func (v *Verifier) Parse(tokenString string) (Claims, error) {
	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(5*time.Second))
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	jti, _ := claims["jti"].(string)
	if sub == "" || role == "" || jti == "" {
		return Claims{}, ErrInvalidToken
	}

	result := Claims{Subject: sub, Role: role, JTI: jti}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		result.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		result.ExpiresAt = exp.Time
	}
	return result, nil
}

type contextKey string

const claimsContextKey contextKey = "authtoken-claims"

func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsContextKey).(Claims)
	return c, ok
}

// RevocationCache is a short-TTL, best-effort set of revoked token ids.
// Accounts and Transactions fill their instance by polling Auth's internal
// revocation feed (RevocationPoller) rather than calling out on every
// request, trading a brief revocation-propagation window for local
// verification speed (spec.md §4.5, §9). Auth's logout does not write to a
// cache; it records the revocation in Auth's own store.
type RevocationCache struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]time.Time
}

func NewRevocationCache(ttl time.Duration) *RevocationCache {
	return &RevocationCache{ttl: ttl, entries: make(map[string]time.Time)}
}

func (c *RevocationCache) Revoke(jti string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[jti] = time.Now().UTC().Add(c.ttl)
}

func (c *RevocationCache) IsRevoked(jti string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	expiresAt, ok := c.entries[jti]
	if !ok {
		return false
	}
	if time.Now().UTC().After(expiresAt) {
		delete(c.entries, jti)
		return false
	}
	return true
}

// Sweep drops expired entries; call periodically from a background ticker
// so the cache does not grow unbounded under sustained logout traffic.
func (c *RevocationCache) Sweep() {
	now := time.Now().UTC()
	c.mu.Lock()
	defer c.mu.Unlock()
	for jti, expiresAt := range c.entries {
		if now.After(expiresAt) {
			delete(c.entries, jti)
		}
	}
}
