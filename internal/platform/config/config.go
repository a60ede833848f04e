package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	APIPort  string `env:"PORT" envDefault:"5000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecret  string        `env:"JWT_SECRET"`
	JWTExp     time.Duration `env:"JWT_EXPIRATION" envDefault:"168h"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`

	DBDriver            string `env:"DB_DRIVER" envDefault:"postgres"`
	DBHost              string `env:"DB_HOST" envDefault:"localhost"`
	DBPort              string `env:"DB_PORT" envDefault:"5432"`
	DBUser              string `env:"DB_USER" envDefault:"user"`
	DBPassword          string `env:"DB_PASSWORD" envDefault:"password"`
	DBName              string `env:"DB_NAME" envDefault:"taskboard"`
	DBSslMode           string `env:"DB_SSLMODE" envDefault:"disable"`
	DBConnStr           string
	DBConnectRetries    int           `env:"DB_CONNECT_RETRIES" envDefault:"3"`
	DBConnectRetryDelay time.Duration `env:"DB_CONNECT_RETRY_DELAY" envDefault:"5s"`

	MongoURL      string `env:"MONGODB_URL"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"taskboard"`

	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"true"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"100"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
	// TrustProxy is the number of reverse proxies in front of the server that
	// append to X-Forwarded-For. 0 ignores forwarded headers.
	TrustProxy int `env:"TRUST_PROXY" envDefault:"0"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	FeedbackQueueName      string `env:"FEEDBACK_QUEUE_NAME" envDefault:"feedback_queue"`
	FeedbackRecipientEmail string `env:"FEEDBACK_RECIPIENT_EMAIL"`
	EmailHost              string `env:"EMAIL_HOST"`
	EmailPort              int    `env:"EMAIL_PORT" envDefault:"587"`
	EmailUser              string `env:"EMAIL_USER"`
	EmailPass              string `env:"EMAIL_PASS"`

	BackendURL        string        `env:"BACKEND_URL" envDefault:"http://localhost:5000"`
	KeepAliveInterval time.Duration `env:"KEEPALIVE_INTERVAL" envDefault:"14m"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWTExp <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	switch c.DBDriver {
	case DriverPostgres, DriverMemory:
	case DriverMongo:
		if c.MongoURL == "" {
			errs = append(errs, errors.New("MONGODB_URL is required when DB_DRIVER=mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}
	if c.TrustProxy < 0 {
		errs = append(errs, errors.New("TRUST_PROXY must not be negative"))
	}
	if c.RateLimitRequests < 1 || c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive"))
	}
	if c.DBConnectRetries < 1 {
		errs = append(errs, errors.New("DB_CONNECT_RETRIES must be at least 1"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool { return c.AppEnv == EnvDevelopment }

func (c *Config) IsProduction() bool { return c.AppEnv == EnvProduction }

// FeedbackEnabled reports whether there is anyone to deliver feedback to.
func (c *Config) FeedbackEnabled() bool {
	return c.RedisEnabled && c.FeedbackRecipientEmail != ""
}
