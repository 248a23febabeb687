// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
// It is loaded once at startup; typed values are handed to constructors and never mutated.
type Config struct {
	// HTTPAddr is the address the HTTP API listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address the gRPC health endpoint listens on; empty disables it.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN; empty selects the in-memory stores (development only).
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTSecret is the HS256 signing secret. One of JWT_SECRET or JWT_SECRET_FILE is required; never defaulted.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTSecretFile is a path to a file holding the signing secret.
	JWTSecretFile string `mapstructure:"JWT_SECRET_FILE"`
	// JWTIssuer is the iss claim set on and required of session tokens.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTTTL is the session token lifetime (e.g. "24h").
	JWTTTL string `mapstructure:"JWT_TTL"`
	// OTPTTLValue is the one-time code lifetime (e.g. "2m").
	OTPTTLValue string `mapstructure:"OTP_TTL"`
	// OTPLength is the number of digits in a one-time code (4–10).
	OTPLength int `mapstructure:"OTP_LENGTH"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// StoreTimeoutValue bounds every persistence call (e.g. "5s").
	StoreTimeoutValue string `mapstructure:"STORE_TIMEOUT"`
	// DeliveryTimeoutValue bounds a single OTP delivery attempt (e.g. "10s").
	DeliveryTimeoutValue string `mapstructure:"DELIVERY_TIMEOUT"`

	// MailAPIURL is the transactional mail relay endpoint; empty disables mail delivery.
	MailAPIURL string `mapstructure:"MAIL_API_URL"`
	// MailAPIKey is sent as the Authorization header to the mail relay.
	MailAPIKey string `mapstructure:"MAIL_API_KEY"`
	// MailSender is the From address for OTP mails.
	MailSender string `mapstructure:"MAIL_SENDER"`

	// OTPDevDisclosure when true logs undeliverable codes and serves GET /dev/otp. Must not be true when Env is production.
	OTPDevDisclosure bool `mapstructure:"OTP_DEV_DISCLOSURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// LogFormat is "json" or "text".
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// OTLPEndpoint is the OpenTelemetry collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext to the collector even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is the OTel service.name and the log "service" attribute.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()
	return v
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := newViper()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GRPC_ADDR", ":9090")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_SECRET_FILE", "")
	v.SetDefault("JWT_ISSUER", "resume-analyzer")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("OTP_TTL", "2m")
	v.SetDefault("OTP_LENGTH", 6)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("DELIVERY_TIMEOUT", "10s")
	v.SetDefault("MAIL_API_URL", "")
	v.SetDefault("MAIL_API_KEY", "")
	v.SetDefault("MAIL_SENDER", "no-reply@resume-analyzer.local")
	v.SetDefault("OTP_DEV_DISCLOSURE", false)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "resume-analyzer-auth")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.JWTSecret == "" && cfg.JWTSecretFile == "" {
		return nil, errors.New("config: JWT_SECRET or JWT_SECRET_FILE must be set")
	}
	if cfg.JWTSecret != "" && cfg.JWTSecretFile != "" {
		return nil, errors.New("config: set only one of JWT_SECRET and JWT_SECRET_FILE")
	}
	if cfg.OTPDevDisclosure && cfg.Env == "production" {
		return nil, errors.New("config: OTP_DEV_DISCLOSURE must not be true when APP_ENV=production")
	}
	if cfg.OTPLength < 4 || cfg.OTPLength > 10 {
		return nil, errors.New("config: OTP_LENGTH must be between 4 and 10")
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	for key, val := range map[string]string{
		"JWT_TTL":          cfg.JWTTTL,
		"OTP_TTL":          cfg.OTPTTLValue,
		"STORE_TIMEOUT":    cfg.StoreTimeoutValue,
		"DELIVERY_TIMEOUT": cfg.DeliveryTimeoutValue,
	} {
		if d, err := time.ParseDuration(val); err != nil || d <= 0 {
			return nil, errors.New("config: " + key + " must be a positive duration")
		}
	}

	return &cfg, nil
}

// LoadDatabaseURL returns DATABASE_URL from .env or the environment without validating the
// rest of the config. Used by cmd/migrate, which needs no signing secret.
func LoadDatabaseURL() string {
	return newViper().GetString("DATABASE_URL")
}

// TokenTTL parses JWTTTL as a time.Duration. Returns 24h if unset or invalid.
func (c *Config) TokenTTL() time.Duration {
	return parseDuration(c.JWTTTL, 24*time.Hour)
}

// OTPTTL parses OTPTTLValue as a time.Duration. Returns 2m if unset or invalid.
func (c *Config) OTPTTL() time.Duration {
	return parseDuration(c.OTPTTLValue, 2*time.Minute)
}

// StoreTimeout parses StoreTimeoutValue. Returns 5s if unset or invalid.
func (c *Config) StoreTimeout() time.Duration {
	return parseDuration(c.StoreTimeoutValue, 5*time.Second)
}

// DeliveryTimeout parses DeliveryTimeoutValue. Returns 10s if unset or invalid.
func (c *Config) DeliveryTimeout() time.Duration {
	return parseDuration(c.DeliveryTimeoutValue, 10*time.Second)
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "production"
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
