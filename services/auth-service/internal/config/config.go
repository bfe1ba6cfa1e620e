package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"github.com/athleticspots/athletic-spots-api/shared/utilities"
)

const EnvironmentProduction = "production"

// AuthServiceConfig holds the configuration of the auth service.
type AuthServiceConfig struct {
	Environment string `env:"APP_ENV"   envDefault:"development"`
	Address     string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	SentryDSN   string `env:"SENTRY_DSN"`

	// TrustedProxies lists CIDRs or addresses whose forwarding headers are
	// believed when resolving the client IP.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	Mongo   MongoConfig   `envPrefix:"MONGODB_"`
	Session SessionConfig `envPrefix:"SESSION_"`
	Token   TokenConfig
}

// MongoConfig holds the MongoDB connection settings.
type MongoConfig struct {
	URI            string        `env:"URI,required"`
	Database       string        `env:"DATABASE"        envDefault:"athletic_spots"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"5s"`
}

// SessionConfig holds the cookie session settings. Secrets are comma separated;
// the first one signs new cookies.
type SessionConfig struct {
	Secrets     []string      `env:"SECRETS,required" envSeparator:","`
	RegularTTL  time.Duration `env:"REGULAR_TTL"      envDefault:"168h"`
	ExtendedTTL time.Duration `env:"EXTENDED_TTL"     envDefault:"720h"`
	Issuer      string        `env:"ISSUER"           envDefault:"athletic-spots"`
}

// TokenConfig holds the password reset token settings.
type TokenConfig struct {
	PasswordResetTokenExpiresIn time.Duration `env:"PASSWORD_RESET_TOKEN_EXPIRES_IN" envDefault:"1h"`
	AppPasswordResetPath        string        `env:"APP_PASSWORD_RESET_PATH"         envDefault:"/reset-password"`
	AppBaseURL                  string        `env:"APP_BASE_URL"`
}

// NewAuthServiceConfig parses the configuration from environment variables.
func NewAuthServiceConfig(logger *zerolog.Logger) *AuthServiceConfig {
	cfg, err := env.ParseAs[AuthServiceConfig]()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment variables")
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to validate auth service configuration")
	}

	return &cfg
}

// IsProduction reports whether the service runs in production mode.
func (c *AuthServiceConfig) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// Validate checks invariants that env tags cannot express.
func (c *AuthServiceConfig) Validate() error {
	if c.Mongo.URI == "" {
		return errors.New("missing MONGODB_URI environment variable")
	}
	if len(c.Session.Secrets) == 0 || c.Session.Secrets[0] == "" {
		return errors.New("missing SESSION_SECRETS environment variable")
	}
	if c.IsProduction() {
		for _, s := range c.Session.Secrets {
			if len(s) < 32 {
				return errors.New("SESSION_SECRETS entries must be at least 32 characters in production")
			}
		}
	}
	if c.Session.RegularTTL <= 0 || c.Session.ExtendedTTL <= 0 {
		return errors.New("session TTLs must be positive")
	}
	if c.Session.ExtendedTTL < c.Session.RegularTTL {
		return errors.New("SESSION_EXTENDED_TTL must not be shorter than SESSION_REGULAR_TTL")
	}
	if c.IsProduction() && c.Token.AppBaseURL == "" {
		return errors.New("missing APP_BASE_URL environment variable")
	}
	if c.Token.PasswordResetTokenExpiresIn <= 0 {
		return errors.New("PASSWORD_RESET_TOKEN_EXPIRES_IN must be positive")
	}
	if _, err := utilities.NewClientIPResolver(c.TrustedProxies); err != nil {
		return fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	return nil
}
