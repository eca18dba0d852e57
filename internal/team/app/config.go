package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	httpapi "github.com/aussiebroadwan/expo/internal/team/http"
	"github.com/aussiebroadwan/expo/internal/team/notify"
	"github.com/aussiebroadwan/expo/pkg/httpx"
	"github.com/aussiebroadwan/expo/pkg/jwtx"
)

const (
	OTPStoreMemory = "memory"
	OTPStoreRedis  = "redis"

	NotifierLog   = "log"
	NotifierSMTP  = "smtp"
	NotifierQueue = "queue"
)

type Config struct {
	Issuer         string `env:"TEAM_ISSUER" envDefault:"expo-team"`
	BootstrapToken string `env:"TEAM_BOOTSTRAP_TOKEN"` // empty disables bootstrap

	Algorithm    string `env:"TEAM_SIGNING_ALGORITHM" envDefault:"EdDSA"` // EdDSA or ES256
	NumKeys      int    `env:"TEAM_NUM_KEYS" envDefault:"1"`
	DatabaseFile string `env:"TEAM_DATABASE_FILE" envDefault:"team.db"`
	PepperFile   string `env:"TEAM_PEPPER_FILE" envDefault:"pepper"`

	AccessTTL     time.Duration `env:"TEAM_ACCESS_TTL" envDefault:"60m"`
	RefreshTTL    time.Duration `env:"TEAM_REFRESH_TTL" envDefault:"24h"`
	SetupTokenTTL time.Duration `env:"TEAM_SETUP_TOKEN_TTL" envDefault:"24h"`
	OTPTTL        time.Duration `env:"TEAM_OTP_TTL" envDefault:"10m"`
	FrontendURL   string        `env:"TEAM_FRONTEND_URL" envDefault:"http://localhost:3000"`

	// SetupTokenRetention is how long housekeeping keeps a token after it
	// expires, so late attempts report expiry instead of an unknown token.
	SetupTokenRetention time.Duration `env:"TEAM_SETUP_TOKEN_RETENTION" envDefault:"168h"`

	OTPStore      string `env:"TEAM_OTP_STORE" envDefault:"memory"` // memory or redis
	RedisAddr     string `env:"TEAM_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"TEAM_REDIS_PASSWORD"`

	Notifier   string            `env:"TEAM_NOTIFIER" envDefault:"log"` // log, smtp or queue
	SMTP       notify.SMTPConfig `envPrefix:"TEAM_SMTP_"`
	RateLimits httpapi.Limits    `envPrefix:"TEAM_RATE_LIMIT_"`

	// TrustedProxies lists the proxy addresses or CIDRs whose forwarding
	// headers are believed when keying rate limits. Empty trusts none.
	TrustedProxies []string `env:"TEAM_TRUSTED_PROXIES" envSeparator:","`

	Env                  string        `env:"ENV" envDefault:"dev"`
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat            string        `env:"LOG_FORMAT" envDefault:"json"`
	Port                 int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
	MailerConcurrency    int           `env:"MAILER_CONCURRENCY" envDefault:"5"`
}

// LoadConfig reads .env if present, then the process environment. Rate
// limit fields that are not set keep their built-in profiles.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{RateLimits: httpapi.DefaultLimits()}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Algorithm {
	case jwtx.AlgorithmEdDSA, jwtx.AlgorithmES256:
	default:
		return fmt.Errorf("config: unsupported signing algorithm %q", c.Algorithm)
	}
	switch c.OTPStore {
	case OTPStoreMemory:
	case OTPStoreRedis:
		if c.RedisAddr == "" {
			return errors.New("config: TEAM_REDIS_ADDR is required for the redis otp store")
		}
	default:
		return fmt.Errorf("config: unknown otp store %q", c.OTPStore)
	}
	switch c.Notifier {
	case NotifierLog:
	case NotifierSMTP:
		if c.SMTP.Host == "" || c.SMTP.From == "" {
			return errors.New("config: TEAM_SMTP_HOST and TEAM_SMTP_FROM are required for the smtp notifier")
		}
	case NotifierQueue:
		if c.RedisAddr == "" {
			return errors.New("config: TEAM_REDIS_ADDR is required for the queue notifier")
		}
	default:
		return fmt.Errorf("config: unknown notifier %q", c.Notifier)
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 || c.SetupTokenTTL <= 0 || c.OTPTTL <= 0 {
		return errors.New("config: token lifetimes must be positive")
	}
	if c.SetupTokenRetention <= 0 {
		return errors.New("config: TEAM_SETUP_TOKEN_RETENTION must be positive")
	}
	if _, err := httpx.NewClientIP(c.TrustedProxies); err != nil {
		return fmt.Errorf("config: TEAM_TRUSTED_PROXIES: %w", err)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	return nil
}
