package jwtx

import (
	"fmt"
	"math/rand/v2"

	"github.com/aussiebroadwan/expo/pkg/cryptox"
)

// KeyManager owns the in-memory signing keys of a running instance. Keys
// are generated at startup and never persisted, so a restart invalidates
// every outstanding credential.
type KeyManager struct {
	KeySet   *KeySet
	Verifier *Verifier

	algorithm string
	signers   []Signer
}

type KeyManagerOptions struct {
	// Algorithm is AlgorithmEdDSA (default) or AlgorithmES256.
	Algorithm string
	Issuer    string

	// NumKeys defaults to 1 and is capped at 10. Signing picks a key at
	// random; all of them verify.
	NumKeys int

	VerifierOptions []VerifierOption
}

func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: issuer is required")
	}
	if opts.Algorithm == "" {
		opts.Algorithm = AlgorithmEdDSA
	}
	n := min(max(opts.NumKeys, 1), 10)

	keyset := NewKeySet()
	signers := make([]Signer, 0, n)
	for i := range n {
		s, err := generateSigner(opts.Algorithm)
		if err != nil {
			return nil, fmt.Errorf("jwtx: signer %d: %w", i+1, err)
		}
		if err := keyset.AddSigner(s); err != nil {
			return nil, fmt.Errorf("jwtx: signer %d: %w", i+1, err)
		}
		signers = append(signers, s)
	}

	return &KeyManager{
		KeySet:    keyset,
		Verifier:  NewVerifier(keyset, opts.Issuer, opts.VerifierOptions...),
		algorithm: opts.Algorithm,
		signers:   signers,
	}, nil
}

func generateSigner(alg string) (Signer, error) {
	var (
		pemKey []byte
		err    error
	)
	switch alg {
	case AlgorithmEdDSA:
		pemKey, err = cryptox.GenerateEd25519Key()
	case AlgorithmES256:
		pemKey, err = cryptox.GenerateES256Key()
	default:
		return nil, fmt.Errorf("unsupported algorithm %q (supported: EdDSA, ES256)", alg)
	}
	if err != nil {
		return nil, err
	}

	kid, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return nil, err
	}
	return NewSigner(alg, "expo-"+kid, pemKey)
}

func (km *KeyManager) Algorithm() string { return km.algorithm }
func (km *KeyManager) IsReady() bool     { return km.KeySet.IsReady() && len(km.signers) > 0 }
func (km *KeyManager) NumSigners() int   { return len(km.signers) }

// GetSigner returns one of the signing keys at random.
func (km *KeyManager) GetSigner() Signer {
	switch len(km.signers) {
	case 0:
		return nil
	case 1:
		return km.signers[0]
	}
	return km.signers[rand.IntN(len(km.signers))]
}
