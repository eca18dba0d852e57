package jwtx

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Supported signing algorithms.
const (
	AlgorithmEdDSA = "EdDSA"
	AlgorithmES256 = "ES256"
)

// Signer signs claims with one private key identified by KID.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
	PublicJWK() JWK
}

type signer struct {
	kid    string
	method jwt.SigningMethod
	key    any
	jwk    JWK
}

func (s *signer) Alg() string    { return s.method.Alg() }
func (s *signer) KID() string    { return s.kid }
func (s *signer) PublicJWK() JWK { return s.jwk }

func (s *signer) Sign(c Claims) (string, error) {
	t := jwt.NewWithClaims(s.method, c)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

// NewSigner loads a PKCS8 PEM private key for alg.
func NewSigner(alg, kid string, pemKey []byte) (Signer, error) {
	if kid == "" {
		return nil, errors.New("jwtx: kid is required")
	}

	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM")
	}
	if block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("jwtx: expected PRIVATE KEY, got %q (PKCS8 required)", block.Type)
	}
	priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
	}

	switch alg {
	case AlgorithmEdDSA:
		key, ok := priv.(ed25519.PrivateKey)
		if !ok {
			return nil, errors.New("jwtx: not an Ed25519 private key")
		}
		pub := key.Public().(ed25519.PublicKey)
		return &signer{kid: kid, method: jwt.SigningMethodEdDSA, key: key, jwk: NewEd25519JWK(kid, alg, pub)}, nil

	case AlgorithmES256:
		key, ok := priv.(*ecdsa.PrivateKey)
		if !ok {
			return nil, errors.New("jwtx: not an ECDSA private key")
		}
		if name := key.Curve.Params().Name; name != "P-256" {
			return nil, fmt.Errorf("jwtx: expected P-256 curve, got %s", name)
		}
		return &signer{kid: kid, method: jwt.SigningMethodES256, key: key, jwk: NewES256JWK(kid, alg, &key.PublicKey)}, nil

	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q", alg)
	}
}
