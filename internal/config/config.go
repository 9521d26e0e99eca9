package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath     = "MYSTERY_CONFIG_PATH"
	defaultConfigPath = "config/config.yaml"
)

type Config struct {
	LogMode      string `yaml:"log_mode" envconfig:"LOG_MODE"`
	LogRedaction bool   `yaml:"log_redaction" envconfig:"LOG_REDACTION_ENABLED"`
	LogHashSalt  string `yaml:"log_hash_salt" envconfig:"LOG_HASH_SALT"`

	HTTP       HTTPConfig       `yaml:"http"`
	DB         DBConfig         `yaml:"db"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	Generation GenerationConfig `yaml:"generation"`
	Status     StatusConfig     `yaml:"status"`
	Email      EmailConfig      `yaml:"email"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	AppBaseURL string `yaml:"app_base_url" envconfig:"APP_BASE_URL"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr" envconfig:"HTTP_ADDR"`
	AllowedOrigins  []string      `yaml:"allowed_origins" envconfig:"CORS_ALLOWED_ORIGINS"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"HTTP_SHUTDOWN_TIMEOUT"`
	SSEHeartbeat    time.Duration `yaml:"sse_heartbeat" envconfig:"SSE_HEARTBEAT"`
	// InternalSecret guards the writer callback routes.
	InternalSecret string `yaml:"internal_secret" envconfig:"INTERNAL_API_SECRET"`
}

type DBConfig struct {
	Driver        string        `yaml:"driver" envconfig:"DB_DRIVER"`
	DSN           string        `yaml:"dsn" envconfig:"POSTGRES_DSN"`
	LogLevel      string        `yaml:"log_level" envconfig:"DB_LOG_LEVEL"`
	SlowThreshold time.Duration `yaml:"slow_threshold" envconfig:"DB_SLOW_THRESHOLD"`
	AutoMigrate   bool          `yaml:"auto_migrate" envconfig:"DB_AUTO_MIGRATE"`
}

type RedisConfig struct {
	Addr       string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password   string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB         int    `yaml:"db" envconfig:"REDIS_DB"`
	SSEChannel string `yaml:"sse_channel" envconfig:"REDIS_SSE_CHANNEL"`
}

type AuthConfig struct {
	JWTSecretKey   string        `yaml:"jwt_secret_key" envconfig:"JWT_SECRET_KEY"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" envconfig:"ACCESS_TOKEN_TTL"`
}

type GenerationConfig struct {
	WebhookURL            string        `yaml:"webhook_url" envconfig:"GENERATION_WEBHOOK_URL"`
	WebhookSecret         string        `yaml:"webhook_secret" envconfig:"GENERATION_WEBHOOK_SECRET"`
	Timeout               time.Duration `yaml:"timeout" envconfig:"GENERATION_TIMEOUT"`
	MaxRetries            int           `yaml:"max_retries" envconfig:"GENERATION_MAX_RETRIES"`
	TestMode              bool          `yaml:"test_mode" envconfig:"GENERATION_TEST_MODE"`
	AllowTestModeOverride bool          `yaml:"allow_test_mode_override" envconfig:"GENERATION_ALLOW_TEST_MODE_OVERRIDE"`
}

type StatusConfig struct {
	// PollInterval drives the fallback poll while no push channel is up.
	PollInterval time.Duration `yaml:"poll_interval" envconfig:"STATUS_POLL_INTERVAL"`
	// RecheckInterval is the minimum gap between manual rechecks of one watch.
	RecheckInterval time.Duration `yaml:"recheck_interval" envconfig:"STATUS_RECHECK_INTERVAL"`
	NotifyChannel   string        `yaml:"notify_channel" envconfig:"STATUS_NOTIFY_CHANNEL"`
}

type EmailConfig struct {
	SendGridAPIKey string        `yaml:"sendgrid_api_key" envconfig:"SENDGRID_API_KEY"`
	SendGridURL    string        `yaml:"sendgrid_base_url" envconfig:"SENDGRID_BASE_URL"`
	FromEmail      string        `yaml:"from_email" envconfig:"SENDGRID_FROM_EMAIL"`
	FromName       string        `yaml:"from_name" envconfig:"SENDGRID_FROM_NAME"`
	Timeout        time.Duration `yaml:"timeout" envconfig:"SENDGRID_TIMEOUT"`
	MaxRetries     int           `yaml:"max_retries" envconfig:"SENDGRID_MAX_RETRIES"`
	SandboxMode    bool          `yaml:"sandbox_mode" envconfig:"SENDGRID_SANDBOX_MODE"`
}

type TelemetryConfig struct {
	MetricsEnabled bool    `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
	OTelEnabled    bool    `yaml:"otel_enabled" envconfig:"OTEL_ENABLED"`
	ServiceName    string  `yaml:"service_name" envconfig:"OTEL_SERVICE_NAME"`
	Environment    string  `yaml:"environment" envconfig:"APP_ENV"`
	Version        string  `yaml:"version" envconfig:"APP_VERSION"`
	OTLPEndpoint   string  `yaml:"otlp_endpoint" envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPHeaders    string  `yaml:"otlp_headers" envconfig:"OTEL_EXPORTER_OTLP_HEADERS"`
	OTLPInsecure   bool    `yaml:"otlp_insecure" envconfig:"OTEL_EXPORTER_OTLP_INSECURE"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"OTEL_SAMPLE_RATIO"`
}

func Default() Config {
	return Config{
		LogMode:      "development",
		LogRedaction: true,
		HTTP: HTTPConfig{
			Addr: ":8080",
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			},
			ShutdownTimeout: 15 * time.Second,
			SSEHeartbeat:    25 * time.Second,
		},
		DB: DBConfig{
			Driver:        "postgres",
			LogLevel:      "warn",
			SlowThreshold: 500 * time.Millisecond,
			AutoMigrate:   true,
		},
		Redis: RedisConfig{SSEChannel: "mystery:sse"},
		Auth: AuthConfig{
			AccessTokenTTL: time.Hour,
		},
		Generation: GenerationConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 2,
		},
		Status: StatusConfig{
			PollInterval:    5 * time.Second,
			RecheckInterval: 3 * time.Second,
			NotifyChannel:   "generation_job_changed",
		},
		Email: EmailConfig{
			FromName:   "Mystery Party",
			Timeout:    15 * time.Second,
			MaxRetries: 2,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "mysteryparty-backend",
			Environment: "development",
			SampleRatio: 1,
		},
		AppBaseURL: "http://localhost:5173",
	}
}

// Load builds the configuration from defaults, then the YAML file, then
// .env, then the process environment. Later sources win.
func Load() (Config, error) {
	cfg := Default()

	path := strings.TrimSpace(os.Getenv(EnvConfigPath))
	required := path != ""
	if path == "" {
		path = defaultConfigPath
	}
	if err := mergeYAML(&cfg, path, required); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeYAML(cfg *Config, path string, required bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) normalize() {
	c.DB.Driver = strings.ToLower(strings.TrimSpace(c.DB.Driver))
	c.HTTP.Addr = strings.TrimSpace(c.HTTP.Addr)
	c.AppBaseURL = strings.TrimRight(strings.TrimSpace(c.AppBaseURL), "/")
	origins := c.HTTP.AllowedOrigins[:0]
	for _, o := range c.HTTP.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.HTTP.AllowedOrigins = origins
}

func (c Config) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("db.driver %q is not supported", c.DB.Driver))
	}
	if c.Status.RecheckInterval <= 0 {
		errs = append(errs, errors.New("status.recheck_interval must be positive"))
	}
	if c.Status.PollInterval <= 0 {
		errs = append(errs, errors.New("status.poll_interval must be positive"))
	}
	return errors.Join(errs...)
}

// PushAvailable reports whether the database can deliver change notifications.
func (c Config) PushAvailable() bool {
	return c.DB.Driver == "postgres" && strings.TrimSpace(c.DB.DSN) != ""
}
