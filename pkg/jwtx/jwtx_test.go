package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/expo/pkg/cryptox"
	"github.com/aussiebroadwan/expo/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://team.expo.test"

func newClaims(now time.Time, typ string, ttl time.Duration) jwtx.Claims {
	return jwtx.NewClaims(jwtx.ClaimsParams{
		Subject:  "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV",
		Username: "ann@x.io",
		Role:     "sales",
		Type:     typ,
		Issuer:   testIssuer,
		TTL:      ttl,
		Now:      now,
	})
}

func TestSignAndVerify(t *testing.T) {
	for _, alg := range []string{jwtx.AlgorithmEdDSA, jwtx.AlgorithmES256} {
		t.Run(alg, func(t *testing.T) {
			km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Algorithm: alg, Issuer: testIssuer, NumKeys: 2})
			require.NoError(t, err)
			require.True(t, km.IsReady())
			require.Equal(t, 2, km.NumSigners())
			require.Equal(t, alg, km.Algorithm())

			claims := newClaims(time.Now().UTC(), jwtx.TypeAccess, time.Minute)
			token, err := km.GetSigner().Sign(claims)
			require.NoError(t, err)

			got, err := km.Verifier.VerifyType(token, jwtx.TypeAccess)
			require.NoError(t, err)
			require.Equal(t, claims.Subject, got.Subject)
			require.Equal(t, claims.Subject, got.UserID)
			require.Equal(t, "ann@x.io", got.Username)
			require.Equal(t, "sales", got.Role)
			require.Equal(t, claims.ID, got.ID)

			_, err = km.Verifier.VerifyType(token, jwtx.TypeRefresh)
			require.ErrorIs(t, err, jwtx.ErrWrongType)

			jwks := km.KeySet.PublicJWKS()
			require.Len(t, jwks.Keys, 2)
			for _, k := range jwks.Keys {
				require.Equal(t, alg, k.Alg)
				require.True(t, strings.HasPrefix(k.Kid, "expo-"))
			}
		})
	}
}

func TestVerifyRejects(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Issuer:          testIssuer,
		VerifierOptions: []jwtx.VerifierOption{jwtx.WithClock(clock)},
	})
	require.NoError(t, err)
	signer := km.GetSigner()

	sign := func(c jwtx.Claims) string {
		tok, err := signer.Sign(c)
		require.NoError(t, err)
		return tok
	}

	expired := newClaims(now.Add(-2*time.Hour), jwtx.TypeAccess, time.Hour)
	wrongIssuer := newClaims(now, jwtx.TypeAccess, time.Hour)
	wrongIssuer.Issuer = "someone-else"
	noType := newClaims(now, "", time.Hour)

	other, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Issuer: testIssuer})
	require.NoError(t, err)
	foreign, err := other.GetSigner().Sign(newClaims(now, jwtx.TypeAccess, time.Hour))
	require.NoError(t, err)

	valid := sign(newClaims(now, jwtx.TypeAccess, time.Hour))
	tampered := valid[:len(valid)-2] + "AA"
	if strings.HasSuffix(valid, "AA") {
		tampered = valid[:len(valid)-2] + "QA"
	}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not.a.jwt", jwtx.ErrMalformed},
		{"expired", sign(expired), jwtx.ErrExpired},
		{"issuer", sign(wrongIssuer), jwtx.ErrIssuer},
		{"missing type", sign(noType), jwtx.ErrInvalidClaim},
		{"unknown kid", foreign, jwtx.ErrUnknownKID},
		{"bad signature", tampered, jwtx.ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := km.Verifier.Verify(tt.token)
			require.ErrorIs(t, err, tt.want)
		})
	}

	_, err = km.Verifier.Verify(valid)
	require.NoError(t, err)
}

func TestNewSigner(t *testing.T) {
	ed, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	es, err := cryptox.GenerateES256Key()
	require.NoError(t, err)

	s, err := jwtx.NewSigner(jwtx.AlgorithmEdDSA, "k1", ed)
	require.NoError(t, err)
	require.Equal(t, "EdDSA", s.Alg())
	require.Equal(t, "k1", s.KID())
	require.Equal(t, "OKP", s.PublicJWK().Kty)

	s, err = jwtx.NewSigner(jwtx.AlgorithmES256, "k2", es)
	require.NoError(t, err)
	require.Equal(t, "EC", s.PublicJWK().Kty)
	require.Len(t, s.PublicJWK().X, 43)

	_, err = jwtx.NewSigner(jwtx.AlgorithmES256, "k3", ed)
	require.Error(t, err)
	_, err = jwtx.NewSigner(jwtx.AlgorithmEdDSA, "", ed)
	require.Error(t, err)
	_, err = jwtx.NewSigner("RS256", "k4", ed)
	require.Error(t, err)
	_, err = jwtx.NewSigner(jwtx.AlgorithmEdDSA, "k5", []byte("nope"))
	require.Error(t, err)
}

func TestKeySetRoundTripsJWK(t *testing.T) {
	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmES256, Issuer: testIssuer})
	require.NoError(t, err)

	// A second set built only from the published JWKS verifies the same token.
	published := jwtx.NewKeySet()
	for _, k := range km.KeySet.PublicJWKS().Keys {
		require.NoError(t, published.AddJWK(k))
	}
	require.Error(t, published.AddJWK(km.KeySet.PublicJWKS().Keys[0]), "duplicate kid")

	tok, err := km.GetSigner().Sign(newClaims(time.Now().UTC(), jwtx.TypeRefresh, time.Hour))
	require.NoError(t, err)

	c, err := jwtx.NewVerifier(published, testIssuer).VerifyType(tok, jwtx.TypeRefresh)
	require.NoError(t, err)
	require.Equal(t, jwtx.TypeRefresh, c.Type)
}

func TestKeyManagerRequiresIssuer(t *testing.T) {
	_, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{})
	require.Error(t, err)

	_, err = jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Issuer: testIssuer, Algorithm: "HS256"})
	require.Error(t, err)
}
