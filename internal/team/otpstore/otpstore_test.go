package otpstore

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/expo/internal/team/domain"
	"github.com/stretchr/testify/require"
)

func codeAt(email string, now time.Time, ttl time.Duration) domain.OneTimeCode {
	return domain.OneTimeCode{Email: email, CodeHash: "h", IssuedAt: now, ExpiresAt: now.Add(ttl)}
}

// runStoreContract exercises behaviour every Store must share.
func runStoreContract(t *testing.T, s Store, now time.Time) {
	ctx := context.Background()

	code := func(email, hash string) domain.OneTimeCode {
		return domain.OneTimeCode{Email: email, CodeHash: hash, IssuedAt: now, ExpiresAt: now.Add(10 * time.Minute)}
	}

	t.Run("missing", func(t *testing.T) {
		_, err := s.Get(ctx, "nobody@x.io")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		want := code("ann@x.io", "h1")
		require.NoError(t, s.Set(ctx, want))

		got, err := s.Get(ctx, "ann@x.io")
		require.NoError(t, err)
		require.Equal(t, want.CodeHash, got.CodeHash)
		require.True(t, want.ExpiresAt.Equal(got.ExpiresAt))
	})

	t.Run("last write wins", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, code("ann@x.io", "h2")))

		got, err := s.Get(ctx, "ann@x.io")
		require.NoError(t, err)
		require.Equal(t, "h2", got.CodeHash)
	})

	t.Run("keys are per email", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, code("bob@x.io", "hb")))

		got, err := s.Get(ctx, "ann@x.io")
		require.NoError(t, err)
		require.Equal(t, "h2", got.CodeHash)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "ann@x.io"))
		require.NoError(t, s.Delete(ctx, "ann@x.io"))

		_, err := s.Get(ctx, "ann@x.io")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("already expired is not stored", func(t *testing.T) {
		expired := code("carl@x.io", "hc")
		expired.ExpiresAt = now.Add(-time.Second)
		require.NoError(t, s.Set(ctx, expired))

		_, err := s.Get(ctx, "carl@x.io")
		require.ErrorIs(t, err, ErrNotFound)
	})

	require.NoError(t, s.Ping(ctx))
}

func TestMemoryStore(t *testing.T) {
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	runStoreContract(t, NewMemory(func() time.Time { return now }), now)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	m := NewMemory(func() time.Time { return now })

	require.NoError(t, m.Set(ctx, domain.OneTimeCode{Email: "a@x.io", CodeHash: "h", IssuedAt: now, ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, m.Set(ctx, domain.OneTimeCode{Email: "b@x.io", CodeHash: "h", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}))

	now = now.Add(time.Minute)
	_, err := m.Get(ctx, "a@x.io")
	require.ErrorIs(t, err, ErrNotFound, "a code is dead at exactly its expiry")
	require.Equal(t, 1, m.Len())

	_, err = m.Get(ctx, "b@x.io")
	require.NoError(t, err)

	// Set sweeps expired entries of other emails too.
	now = now.Add(2 * time.Hour)
	require.NoError(t, m.Set(ctx, domain.OneTimeCode{Email: "c@x.io", CodeHash: "h", IssuedAt: now, ExpiresAt: now.Add(time.Minute)}))
	require.Equal(t, 1, m.Len())
}

func TestMemoryStoreConcurrentSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)
	exp := time.Now().Add(time.Hour)

	done := make(chan struct{})
	for i := range 20 {
		go func() {
			defer func() { done <- struct{}{} }()
			_ = m.Set(ctx, domain.OneTimeCode{Email: "a@x.io", CodeHash: string(rune('a' + i)), ExpiresAt: exp})
		}()
	}
	for range 20 {
		<-done
	}

	got, err := m.Get(ctx, "a@x.io")
	require.NoError(t, err)
	require.Len(t, got.CodeHash, 1)
	require.Equal(t, 1, m.Len())
}
