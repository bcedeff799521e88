package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// DefaultEnvFiles are tried from the working directory upwards
var DefaultEnvFiles = []string{".env", "../.env", "../../.env"}

type DatabaseOptions struct {
	URL      string `env:"DATABASE_URL"`
	DataPath string `env:"DATA_PATH" envDefault:"api_keys.db"`
}

type AuthOptions struct {
	JWTSecret     string        `env:"JWT_SECRET"`
	MasterSecret  string        `env:"API_MASTER_SECRET"`
	TokenTTL      time.Duration `env:"JWT_TOKEN_TTL" envDefault:"24h"`
	AdminUsername string        `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string        `env:"ADMIN_PASSWORD" envDefault:"admin123"`
	BcryptCost    int           `env:"BCRYPT_COST" envDefault:"14"`
}

type LogOptions struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

type UploadOptions struct {
	MaxBytes int64 `env:"UPLOAD_MAX_BYTES" envDefault:"10485760"`
}

type SessionOptions struct {
	TTL           time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"5m"`
}

type ReportOptions struct {
	PageSize    int `env:"REPORT_PAGE_SIZE" envDefault:"10"`
	MaxPageSize int `env:"REPORT_MAX_PAGE_SIZE" envDefault:"100"`
}

type RateLimitOptions struct {
	Enabled  bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	Rate     string `env:"RATE_LIMIT_RATE" envDefault:"300-M"`
	Storage  string `env:"RATE_LIMIT_STORAGE" envDefault:"memory"` // memory or redis
	RedisURL string `env:"RATE_LIMIT_REDIS_URL"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/metrics"`
}

// Config is the service configuration read from the environment
type Config struct {
	Port        string   `env:"PORT" envDefault:"8000"`
	GinMode     string   `env:"GIN_MODE"`
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	Database   DatabaseOptions
	Auth       AuthOptions
	Log        LogOptions
	Upload     UploadOptions
	Session    SessionOptions
	Report     ReportOptions
	RateLimit  RateLimitOptions
	Prometheus PrometheusOptions
}

// LoadEnv loads the first of the given .env files that exists
func LoadEnv(envFiles []string) (string, error) {
	for _, p := range envFiles {
		if _, err := os.Stat(p); err == nil {
			return p, godotenv.Load(p)
		}
	}
	return "", nil
}

// Load reads .env files, then the environment
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = DefaultEnvFiles
	}
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, errors.Wrap(err, "load env file")
	}
	return Parse()
}

// Parse reads the configuration from the process environment only
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks option combinations that env tags cannot express
func (c *Config) Validate() error {
	if c.Upload.MaxBytes <= 0 {
		return errors.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", c.Upload.MaxBytes)
	}
	if c.Report.PageSize <= 0 || c.Report.MaxPageSize < c.Report.PageSize {
		return errors.Errorf("invalid report page sizes %d/%d", c.Report.PageSize, c.Report.MaxPageSize)
	}
	if c.Session.TTL <= 0 || c.Session.SweepInterval <= 0 {
		return errors.New("SESSION_TTL and SESSION_SWEEP_INTERVAL must be positive")
	}
	if c.RateLimit.Storage != "memory" && c.RateLimit.Storage != "redis" {
		return errors.Errorf("RATE_LIMIT_STORAGE must be 'memory' or 'redis', got '%s'", c.RateLimit.Storage)
	}
	if c.RateLimit.Storage == "redis" && c.RateLimit.RedisURL == "" {
		return errors.New("RATE_LIMIT_REDIS_URL is required when RATE_LIMIT_STORAGE is 'redis'")
	}
	// an empty key lets anyone sign admin tokens and API keys
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Auth.MasterSecret == "" {
		return errors.New("API_MASTER_SECRET is required")
	}
	return nil
}
