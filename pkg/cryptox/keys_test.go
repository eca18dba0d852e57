package cryptox_test

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/aussiebroadwan/expo/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeys(t *testing.T) {
	tests := []struct {
		name  string
		gen   func() ([]byte, error)
		check func(t *testing.T, key any)
	}{
		{"Ed25519", cryptox.GenerateEd25519Key, func(t *testing.T, key any) {
			k, ok := key.(ed25519.PrivateKey)
			require.True(t, ok)
			require.Len(t, k, ed25519.PrivateKeySize)
		}},
		{"ES256", cryptox.GenerateES256Key, func(t *testing.T, key any) {
			k, ok := key.(*ecdsa.PrivateKey)
			require.True(t, ok)
			require.Equal(t, "P-256", k.Curve.Params().Name)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pemBytes, err := tt.gen()
			require.NoError(t, err)

			block, _ := pem.Decode(pemBytes)
			require.NotNil(t, block)
			require.Equal(t, "PRIVATE KEY", block.Type)

			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			require.NoError(t, err)
			tt.check(t, key)
		})
	}
}
