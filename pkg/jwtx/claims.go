package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default lifetimes for issued credentials.
const (
	DefaultAccessTokenTTL  = 60 * time.Minute
	DefaultRefreshTokenTTL = 24 * time.Hour
)

// Token types carried in the "typ" claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims are the claims of both halves of a credential pair. Access and
// refresh tokens carry the same identity and differ by Type and lifetime.
type Claims struct {
	jwt.RegisteredClaims

	// UserID duplicates sub for clients that read the member id by name.
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Type     string `json:"typ"`
}

// ClaimsParams is the input to NewClaims.
type ClaimsParams struct {
	Subject  string
	Username string
	Role     string
	Type     string
	Issuer   string
	TTL      time.Duration
	Now      time.Time
}

// NewClaims builds claims with a fresh jti.
func NewClaims(p ClaimsParams) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.Issuer,
			Subject:   p.Subject,
			IssuedAt:  jwt.NewNumericDate(p.Now),
			NotBefore: jwt.NewNumericDate(p.Now),
			ExpiresAt: jwt.NewNumericDate(p.Now.Add(p.TTL)),
			ID:        NewJTI(),
		},
		UserID:   p.Subject,
		Username: p.Username,
		Role:     p.Role,
		Type:     p.Type,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// validate enforces issuer and the exp/nbf window at now.
func (c *Claims) validate(issuer string, now time.Time, leeway time.Duration) error {
	if issuer != "" && c.Issuer != issuer {
		return ErrIssuer
	}
	if c.ExpiresAt == nil || !now.Before(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	if c.Subject == "" || (c.Type != TypeAccess && c.Type != TypeRefresh) {
		return ErrInvalidClaim
	}
	return nil
}
