package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/expo/pkg/httpx"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "expo-team", cfg.Issuer)
	require.Equal(t, "EdDSA", cfg.Algorithm)
	require.Equal(t, "team.db", cfg.DatabaseFile)
	require.Equal(t, 60*time.Minute, cfg.AccessTTL)
	require.Equal(t, 24*time.Hour, cfg.RefreshTTL)
	require.Equal(t, 24*time.Hour, cfg.SetupTokenTTL)
	require.Equal(t, 7*24*time.Hour, cfg.SetupTokenRetention)
	require.Equal(t, 10*time.Minute, cfg.OTPTTL)
	require.Equal(t, OTPStoreMemory, cfg.OTPStore)
	require.Equal(t, NotifierLog, cfg.Notifier)
	require.Equal(t, 587, cfg.SMTP.Port)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, time.Hour, cfg.HousekeepingInterval)
	require.Equal(t, httpx.StrictLimit, cfg.RateLimits.Strict)
	require.Equal(t, httpx.ModerateLimit, cfg.RateLimits.Moderate)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("TEAM_ISSUER", "expo-test")
	t.Setenv("TEAM_SETUP_TOKEN_TTL", "48h")
	t.Setenv("TEAM_NOTIFIER", "smtp")
	t.Setenv("TEAM_SMTP_HOST", "mail.example.com")
	t.Setenv("TEAM_SMTP_PORT", "2525")
	t.Setenv("TEAM_SMTP_FROM", "team@example.com")
	t.Setenv("TEAM_RATE_LIMIT_STRICT_REQUESTS", "2")
	t.Setenv("TEAM_TRUSTED_PROXIES", "10.0.0.0/8,192.168.1.1")
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "expo-test", cfg.Issuer)
	require.Equal(t, 48*time.Hour, cfg.SetupTokenTTL)
	require.Equal(t, NotifierSMTP, cfg.Notifier)
	require.Equal(t, "mail.example.com", cfg.SMTP.Host)
	require.Equal(t, 2525, cfg.SMTP.Port)
	require.Equal(t, "team@example.com", cfg.SMTP.From)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.TrustedProxies)

	require.Equal(t, 2, cfg.RateLimits.Strict.Requests)
	require.Equal(t, httpx.StrictLimit.Window, cfg.RateLimits.Strict.Window)
	require.Equal(t, httpx.ModerateLimit, cfg.RateLimits.Moderate)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("TEAM_OTP_TTL", "soon")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Algorithm:           "EdDSA",
			AccessTTL:           time.Hour,
			RefreshTTL:          time.Hour,
			SetupTokenTTL:       time.Hour,
			SetupTokenRetention: time.Hour,
			OTPTTL:              time.Minute,
			OTPStore:            OTPStoreMemory,
			RedisAddr:           "localhost:6379",
			Notifier:            NotifierLog,
			Port:                8080,
		}
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(*Config){
		"algorithm":      func(c *Config) { c.Algorithm = "RS256" },
		"otp store":      func(c *Config) { c.OTPStore = "memcached" },
		"redis addr":     func(c *Config) { c.OTPStore, c.RedisAddr = OTPStoreRedis, "" },
		"notifier":       func(c *Config) { c.Notifier = "pigeon" },
		"smtp host":      func(c *Config) { c.Notifier = NotifierSMTP },
		"queue redis":    func(c *Config) { c.Notifier, c.RedisAddr = NotifierQueue, "" },
		"setup ttl":      func(c *Config) { c.SetupTokenTTL = 0 },
		"retention":      func(c *Config) { c.SetupTokenRetention = 0 },
		"negative otp":   func(c *Config) { c.OTPTTL = -time.Second },
		"trusted proxy":  func(c *Config) { c.TrustedProxies = []string{"10.0.0.0/33"} },
		"port":           func(c *Config) { c.Port = 0 },
		"port too large": func(c *Config) { c.Port = 70000 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
