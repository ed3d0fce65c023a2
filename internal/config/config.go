// Package config loads application configuration from the environment. A
// .env file in the working directory is read first when present; real
// environment variables always win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Sub-configs for the Redis
// backed middleware are embedded as nested structs with their own prefixes.
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Port     string `env:"APP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DBProvider     string `env:"DB_PROVIDER" envDefault:"sqlite"`
	DBDSN          string `env:"DB_DSN" envDefault:"file:fleet.db?_foreign_keys=on"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`

	JWTSecret   string        `env:"JWT_SECRET,required"`
	JWTIssuer   string        `env:"JWT_ISSUER" envDefault:"fleet-backoffice"`
	JWTAudience string        `env:"JWT_AUDIENCE" envDefault:"fleet-clients"`
	AccessTTL   time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTTL  time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	BcryptCost  int           `env:"BCRYPT_COST" envDefault:"12"`

	CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"*"`
	UploadDir        string   `env:"UPLOAD_DIR" envDefault:"uploads"`
	UploadMaxBytes   int64    `env:"UPLOAD_MAX_BYTES" envDefault:"10485760"`
	RabbitMQURL      string   `env:"RABBITMQ_URL"`

	SeedAdminUsername string `env:"SEED_ADMIN_USERNAME" envDefault:"admin"`
	SeedAdminPassword string `env:"SEED_ADMIN_PASSWORD"`
	SeedAdminEmail    string `env:"SEED_ADMIN_EMAIL" envDefault:"admin@fleet.local"`

	Redis     RedisConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
}

var providers = map[string]bool{"mysql": true, "postgres": true, "sqlite": true}

// Load reads .env (if any) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, err
	}
	return c, c.normalize()
}

// LoadFrom parses vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, env.Options{Environment: vars}); err != nil {
		return Config{}, err
	}
	return c, c.normalize()
}

func (c *Config) normalize() error {
	c.DBProvider = strings.ToLower(strings.TrimSpace(c.DBProvider))
	if !providers[c.DBProvider] {
		return fmt.Errorf("unsupported DB_PROVIDER %q", c.DBProvider)
	}
	if c.DBMaxOpenConns < 1 {
		c.DBMaxOpenConns = 1
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	c.RateLimit.normalize()
	c.Cache.normalize()
	return nil
}

// IsDevelopment reports whether APP_ENV selects the development profile.
func (c Config) IsDevelopment() bool { return c.Env == "development" }
