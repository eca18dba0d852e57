package jwtx

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrUnknownKID   = errors.New("jwtx: unknown kid")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
	ErrWrongType    = errors.New("jwtx: wrong token type")
)

// Verifier checks signature, issuer and lifetime against a KeySet. The key
// type registered under the token's kid decides which algorithm is allowed,
// so an EdDSA key can never validate an ES256 header or vice versa.
type Verifier struct {
	keys   *KeySet
	issuer string
	leeway time.Duration
	now    func() time.Time
}

// VerifierOption tweaks a Verifier.
type VerifierOption func(*Verifier)

func WithLeeway(d time.Duration) VerifierOption { return func(v *Verifier) { v.leeway = d } }

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) VerifierOption { return func(v *Verifier) { v.now = now } }

func NewVerifier(keys *KeySet, issuer string, opts ...VerifierOption) *Verifier {
	v := &Verifier{keys: keys, issuer: issuer, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify parses and validates token, returning its claims.
func (v *Verifier) Verify(token string) (Claims, error) {
	var claims Claims

	// Time based checks are done by validate so they share the clock.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{AlgorithmEdDSA, AlgorithmES256}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrUnknownKID
		}
		pub, err := v.keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKID, kid)
		}

		switch pub.(type) {
		case ed25519.PublicKey:
			if t.Method.Alg() != AlgorithmEdDSA {
				return nil, ErrMalformed
			}
		case *ecdsa.PublicKey:
			if t.Method.Alg() != AlgorithmES256 {
				return nil, ErrMalformed
			}
		default:
			return nil, ErrMalformed
		}
		return pub, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownKID):
			return Claims{}, ErrUnknownKID
		default:
			return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	if err := claims.validate(v.issuer, v.now().UTC(), v.leeway); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// VerifyType is Verify plus a check of the "typ" claim.
func (v *Verifier) VerifyType(token, typ string) (Claims, error) {
	c, err := v.Verify(token)
	if err != nil {
		return Claims{}, err
	}
	if c.Type != typ {
		return Claims{}, ErrWrongType
	}
	return c, nil
}
