package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/crypto/bcrypt"
)

const (
	StoreMemory   = "memory"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"

	minJWTSecretBytes = 32
)

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	StoreDriver     string        `env:"STORE_DRIVER,     default=memory"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`

	// CORSAllowedOrigins is a comma-separated list of browser origins.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS, default=*"`

	Auth     AuthConfig
	Mongo    MongoConfig
	Postgres PostgresConfig
	Redis    RedisConfig
}

type AuthConfig struct {
	JWTSecret          string        `env:"JWT_SECRET, required"`
	JWTIssuer          string        `env:"JWT_ISSUER,           default=authd"`
	TokenTTL           time.Duration `env:"TOKEN_TTL,            default=1h"`
	ClockSkew          time.Duration `env:"TOKEN_CLOCK_SKEW,     default=30s"`
	BcryptCost         int           `env:"BCRYPT_COST,          default=10"`
	MinSecretLength    int           `env:"MIN_SECRET_LENGTH,    default=8"`
	HashWorkers        int           `env:"HASH_WORKERS,         default=0"`
	LoginMaxAttempts   int           `env:"LOGIN_MAX_ATTEMPTS,   default=5"`
	LoginLockoutWindow time.Duration `env:"LOGIN_LOCKOUT_WINDOW, default=15m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=authd"`
}

type PostgresConfig struct {
	DSN         string `env:"POSTGRES_DSN"`
	AutoMigrate bool   `env:"POSTGRES_AUTO_MIGRATE, default=false"`
}

// RedisConfig configures the login throttle. An empty Addr disables it.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through the given lookuper and validates it.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreMemory, StoreMongo:
	case StorePostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required when STORE_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	if len(c.Auth.JWTSecret) < minJWTSecretBytes {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minJWTSecretBytes))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.Auth.ClockSkew < 0 {
		errs = append(errs, errors.New("TOKEN_CLOCK_SKEW must not be negative"))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.Auth.MinSecretLength < 1 {
		errs = append(errs, errors.New("MIN_SECRET_LENGTH must be positive"))
	}
	if c.Auth.HashWorkers < 0 {
		errs = append(errs, errors.New("HASH_WORKERS must not be negative"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) ThrottleEnabled() bool {
	return c.Redis.Addr != ""
}

// String renders the configuration with secrets and connection strings redacted.
func (c Config) String() string {
	c.Auth.JWTSecret = redact(c.Auth.JWTSecret)
	c.Postgres.DSN = redact(c.Postgres.DSN)
	c.Mongo.URI = redact(c.Mongo.URI)
	type plain Config
	return fmt.Sprintf("%+v", plain(c))
}

// MarshalZerologObject logs the non-sensitive settings.
func (c *Config) MarshalZerologObject(e *zerolog.Event) {
	e.Str("env", c.Env).
		Str("port", c.Port).
		Str("store_driver", c.StoreDriver).
		Str("jwt_issuer", c.Auth.JWTIssuer).
		Dur("token_ttl", c.Auth.TokenTTL).
		Dur("clock_skew", c.Auth.ClockSkew).
		Int("bcrypt_cost", c.Auth.BcryptCost).
		Int("hash_workers", c.Auth.HashWorkers).
		Bool("throttle", c.ThrottleEnabled())
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}
