package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Backend   BackendConfig
	Store     StoreConfig
	RateLimit RateLimitConfig
	Auth      AuthConfig
	Log       LogConfig
	Tracing   TracingConfig

	// EnvFileLoaded reports whether a .env file was found.
	EnvFileLoaded bool
}

type ServerConfig struct {
	Port           string        `validate:"required,numeric"`
	Env            string        `validate:"required"`
	SessionCookie  string        `validate:"required"`
	MaxFileSize    int64         `validate:"gt=0"`
	RequestTimeout time.Duration `validate:"gt=0"`
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type BackendConfig struct {
	URL                string        `validate:"required,url"`
	ProxyEndpoint      string        `validate:"required,url"`
	BreakerEnabled     bool
	BreakerMaxFailures uint32        `validate:"gte=1"`
	BreakerTimeout     time.Duration `validate:"gt=0"`
}

type StoreConfig struct {
	Driver        string        `validate:"oneof=memory postgres file"`
	Path          string        `validate:"required_if=Driver file"`
	SweepInterval time.Duration `validate:"gt=0"`
	SessionIdle   time.Duration `validate:"gt=0"`
}

type RateLimitConfig struct {
	PerMinute int `validate:"gte=1"`
	Burst     int `validate:"gte=1"`
}

// AuthConfig holds the hosted sign-in and sign-up pages of the auth
// provider. The header leaves out links that are not configured.
type AuthConfig struct {
	SignInURL string `validate:"omitempty,url"`
	SignUpURL string `validate:"omitempty,url"`
}

type LogConfig struct {
	JSON  bool
	Debug bool
}

type TracingConfig struct {
	Enabled bool
}

func init() {
	SetDefaults(viper.GetViper())
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("ENV", "development")
	v.SetDefault("SESSION_COOKIE", "cv_session")
	v.SetDefault("MAX_FILE_SIZE", 10485760)
	v.SetDefault("REQUEST_TIMEOUT", "120s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "cv_analyzer_web")

	v.SetDefault("BACKEND_URL", "http://localhost:8000")
	v.SetDefault("PROXY_ENDPOINT", "")
	v.SetDefault("BREAKER_ENABLED", true)
	v.SetDefault("BREAKER_MAX_FAILURES", 5)
	v.SetDefault("BREAKER_TIMEOUT", "30s")

	v.SetDefault("STORE_DRIVER", "memory")
	v.SetDefault("STORE_PATH", "./data/slots")
	v.SetDefault("SWEEP_INTERVAL", "1m")
	v.SetDefault("SESSION_IDLE_TIMEOUT", "2h")

	v.SetDefault("RATE_LIMIT_PER_MINUTE", 30)
	v.SetDefault("RATE_LIMIT_BURST", 5)

	v.SetDefault("AUTH_SIGN_IN_URL", "")
	v.SetDefault("AUTH_SIGN_UP_URL", "")

	v.SetDefault("LOG_JSON", false)
	v.SetDefault("LOG_DEBUG", false)
	v.SetDefault("TRACING_ENABLED", false)
}

// Load reads .env (if any) and the environment once.
func Load() (*Config, error) {
	envLoaded := godotenv.Load() == nil

	cfg, err := FromViper(viper.GetViper())
	if err != nil {
		return nil, err
	}
	cfg.EnvFileLoaded = envLoaded

	return cfg, nil
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	port := v.GetString("PORT")
	proxyEndpoint := v.GetString("PROXY_ENDPOINT")
	if proxyEndpoint == "" {
		proxyEndpoint = fmt.Sprintf("http://127.0.0.1:%s/api/analyze-cv", port)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           port,
			Env:            v.GetString("ENV"),
			SessionCookie:  v.GetString("SESSION_COOKIE"),
			MaxFileSize:    v.GetInt64("MAX_FILE_SIZE"),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
		},
		Backend: BackendConfig{
			URL:                v.GetString("BACKEND_URL"),
			ProxyEndpoint:      proxyEndpoint,
			BreakerEnabled:     v.GetBool("BREAKER_ENABLED"),
			BreakerMaxFailures: v.GetUint32("BREAKER_MAX_FAILURES"),
			BreakerTimeout:     v.GetDuration("BREAKER_TIMEOUT"),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(v.GetString("STORE_DRIVER")),
			Path:          v.GetString("STORE_PATH"),
			SweepInterval: v.GetDuration("SWEEP_INTERVAL"),
			SessionIdle:   v.GetDuration("SESSION_IDLE_TIMEOUT"),
		},
		RateLimit: RateLimitConfig{
			PerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
			Burst:     v.GetInt("RATE_LIMIT_BURST"),
		},
		Auth: AuthConfig{
			SignInURL: v.GetString("AUTH_SIGN_IN_URL"),
			SignUpURL: v.GetString("AUTH_SIGN_UP_URL"),
		},
		Log: LogConfig{
			JSON:  v.GetBool("LOG_JSON"),
			Debug: v.GetBool("LOG_DEBUG"),
		},
		Tracing: TracingConfig{
			Enabled: v.GetBool("TRACING_ENABLED"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}
