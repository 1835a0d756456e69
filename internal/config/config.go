package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hackbox-events/server/internal/validation"
)

const (
	DatabaseDriverPostgres = "postgres"
	DatabaseDriverMemory   = "memory"

	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"

	EmailProviderSMTP   = "smtp"
	EmailProviderResend = "resend"
	EmailProviderLog    = "log"
)

type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Database       DatabaseConfig       `yaml:"database"`
	Auth           AuthConfig           `yaml:"auth"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	AdminBootstrap AdminBootstrapConfig `yaml:"admin_bootstrap"`
	Logging        LoggingConfig        `yaml:"logging"`
	Email          EmailConfig          `yaml:"email"`
	Storage        StorageConfig        `yaml:"storage"`
	Jobs           JobsConfig           `yaml:"jobs"`
	Photos         PhotosConfig         `yaml:"photos"`
	Certificates   CertificatesConfig   `yaml:"certificates"`
	Tracing        TracingConfig        `yaml:"tracing"`
	Environment    string               `yaml:"environment"`
}

// ServerConfig holds the HTTP listener settings. ReadTimeout bounds reading a
// whole request including photo uploads; WriteTimeout bounds a whole response
// including synchronous certificate dispatch.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	BaseURL        string        `yaml:"base_url"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Driver         string `yaml:"driver"`
	URL            string `yaml:"url"`
	MaxConnections int    `yaml:"max_connections"`
	MigrationsPath string `yaml:"migrations_path"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	JWTExpiry time.Duration `yaml:"jwt_expiry"`
	Issuer    string        `yaml:"issuer"`
}

type RateLimitConfig struct {
	PublicPerMinute        int `yaml:"public_per_minute"`
	LoginPerMinute         int `yaml:"login_per_minute"`
	AuthenticatedPerMinute int `yaml:"authenticated_per_minute"`
	// TrustedProxyCIDRs are the proxies whose X-Forwarded-For is believed.
	TrustedProxyCIDRs []string `yaml:"trusted_proxy_cidrs"`
}

type AdminBootstrapConfig struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type EmailConfig struct {
	Provider        string `yaml:"provider"`
	From            string `yaml:"from"`
	FromName        string `yaml:"from_name"`
	SMTPHost        string `yaml:"smtp_host"`
	SMTPPort        int    `yaml:"smtp_port"`
	SMTPUser        string `yaml:"smtp_user"`
	SMTPPassword    string `yaml:"smtp_password"`
	SMTPImplicitTLS bool   `yaml:"smtp_implicit_tls"`
	ResendAPIKey    string `yaml:"resend_api_key"`
}

type StorageConfig struct {
	Driver         string `yaml:"driver"`
	LocalRoot      string `yaml:"local_root"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	MaxPhotoBytes  int64  `yaml:"max_photo_bytes"`
	S3Bucket       string `yaml:"s3_bucket"`
	S3Region       string `yaml:"s3_region"`
	S3Endpoint     string `yaml:"s3_endpoint"`
	S3AccessKey    string `yaml:"s3_access_key"`
	S3SecretKey    string `yaml:"s3_secret_key"`
}

type JobsConfig struct {
	Enabled          bool `yaml:"enabled"`
	MaxWorkers       int  `yaml:"max_workers"`
	EmailMaxAttempts int  `yaml:"email_max_attempts"`
	PhotoMaxAttempts int  `yaml:"photo_max_attempts"`
}

type PhotosConfig struct {
	MaxWidth  int `yaml:"max_width"`
	MaxHeight int `yaml:"max_height"`
	Quality   int `yaml:"quality"`
}

type CertificatesConfig struct {
	Issuer      string `yaml:"issuer"`
	Concurrency int    `yaml:"concurrency"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	ServiceName  string  `yaml:"service_name"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
}

// Defaults returns the configuration used when neither a file nor the
// environment sets a value.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			BaseURL:      "http://localhost:8080",
			ReadTimeout:  5 * time.Minute,
			WriteTimeout: 10 * time.Minute,
		},
		Database: DatabaseConfig{
			Driver:         DatabaseDriverPostgres,
			MaxConnections: 25,
			MigrationsPath: "internal/storage/postgres/migrations",
		},
		Auth: AuthConfig{
			JWTExpiry: 24 * time.Hour,
			Issuer:    "hackbox-events",
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute:        60,
			LoginPerMinute:         10,
			AuthenticatedPerMinute: 300,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Email: EmailConfig{
			Provider: EmailProviderLog,
			FromName: "Team Hackbox",
			SMTPPort: 587,
		},
		Storage: StorageConfig{
			Driver:         StorageDriverLocal,
			LocalRoot:      "uploads",
			MaxUploadBytes: 1 << 20,
			MaxPhotoBytes:  10 << 20,
			S3Region:       "auto",
		},
		Jobs: JobsConfig{
			Enabled:          true,
			MaxWorkers:       10,
			EmailMaxAttempts: 5,
			PhotoMaxAttempts: 3,
		},
		Photos:       PhotosConfig{MaxWidth: 1600, MaxHeight: 1600, Quality: 75},
		Certificates: CertificatesConfig{Issuer: "Team Hackbox", Concurrency: 4},
		Tracing: TracingConfig{
			Exporter:    "stdout",
			ServiceName: "hackbox-events",
			SampleRate:  1.0,
		},
		Environment: "development",
	}
}

// Load reads configuration from the environment on top of Defaults.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile layers defaults, the optional YAML file at path, a local .env file
// and finally the process environment.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("SERVER_PORT", c.Server.Port)
	c.Server.BaseURL = getEnv("SERVER_BASE_URL", c.Server.BaseURL)
	c.Server.AllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", c.Server.AllowedOrigins)
	if secs := getEnvInt("SERVER_READ_TIMEOUT_SECONDS", 0); secs > 0 {
		c.Server.ReadTimeout = time.Duration(secs) * time.Second
	}
	if secs := getEnvInt("SERVER_WRITE_TIMEOUT_SECONDS", 0); secs > 0 {
		c.Server.WriteTimeout = time.Duration(secs) * time.Second
	}

	c.Database.Driver = getEnv("DATABASE_DRIVER", c.Database.Driver)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.MaxConnections = getEnvInt("DATABASE_MAX_CONNECTIONS", c.Database.MaxConnections)
	c.Database.MigrationsPath = getEnv("MIGRATIONS_PATH", c.Database.MigrationsPath)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	if hours := getEnvInt("JWT_EXPIRY_HOURS", 0); hours > 0 {
		c.Auth.JWTExpiry = time.Duration(hours) * time.Hour
	}
	c.Auth.Issuer = getEnv("JWT_ISSUER", c.Auth.Issuer)

	c.RateLimit.PublicPerMinute = getEnvInt("RATE_LIMIT_PUBLIC", c.RateLimit.PublicPerMinute)
	c.RateLimit.LoginPerMinute = getEnvInt("RATE_LIMIT_LOGIN", c.RateLimit.LoginPerMinute)
	c.RateLimit.AuthenticatedPerMinute = getEnvInt("RATE_LIMIT_AUTHENTICATED", c.RateLimit.AuthenticatedPerMinute)
	c.RateLimit.TrustedProxyCIDRs = getEnvList("TRUSTED_PROXY_CIDRS", c.RateLimit.TrustedProxyCIDRs)

	c.AdminBootstrap.Name = getEnv("ADMIN_NAME", c.AdminBootstrap.Name)
	c.AdminBootstrap.Email = getEnv("ADMIN_EMAIL", c.AdminBootstrap.Email)
	c.AdminBootstrap.Password = getEnv("ADMIN_PASSWORD", c.AdminBootstrap.Password)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)

	c.Email.Provider = getEnv("EMAIL_PROVIDER", c.Email.Provider)
	c.Email.From = getEnv("EMAIL_FROM", c.Email.From)
	c.Email.FromName = getEnv("EMAIL_FROM_NAME", c.Email.FromName)
	c.Email.SMTPHost = getEnv("SMTP_HOST", c.Email.SMTPHost)
	c.Email.SMTPPort = getEnvInt("SMTP_PORT", c.Email.SMTPPort)
	c.Email.SMTPUser = getEnv("SMTP_USER", c.Email.SMTPUser)
	c.Email.SMTPPassword = getEnv("SMTP_PASSWORD", c.Email.SMTPPassword)
	c.Email.SMTPImplicitTLS = getEnvBool("SMTP_IMPLICIT_TLS", c.Email.SMTPImplicitTLS)
	c.Email.ResendAPIKey = getEnv("RESEND_API_KEY", c.Email.ResendAPIKey)

	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.LocalRoot = getEnv("STORAGE_LOCAL_ROOT", c.Storage.LocalRoot)
	c.Storage.MaxUploadBytes = int64(getEnvInt("STORAGE_MAX_UPLOAD_BYTES", int(c.Storage.MaxUploadBytes)))
	c.Storage.MaxPhotoBytes = int64(getEnvInt("STORAGE_MAX_PHOTO_BYTES", int(c.Storage.MaxPhotoBytes)))
	c.Storage.S3Bucket = getEnv("S3_BUCKET", c.Storage.S3Bucket)
	c.Storage.S3Region = getEnv("S3_REGION", c.Storage.S3Region)
	c.Storage.S3Endpoint = getEnv("S3_ENDPOINT", c.Storage.S3Endpoint)
	c.Storage.S3AccessKey = getEnv("S3_ACCESS_KEY", c.Storage.S3AccessKey)
	c.Storage.S3SecretKey = getEnv("S3_SECRET_KEY", c.Storage.S3SecretKey)

	c.Jobs.Enabled = getEnvBool("JOBS_ENABLED", c.Jobs.Enabled)
	c.Jobs.MaxWorkers = getEnvInt("JOBS_MAX_WORKERS", c.Jobs.MaxWorkers)
	c.Jobs.EmailMaxAttempts = getEnvInt("JOB_RETRY_EMAIL", c.Jobs.EmailMaxAttempts)
	c.Jobs.PhotoMaxAttempts = getEnvInt("JOB_RETRY_PHOTO", c.Jobs.PhotoMaxAttempts)

	c.Photos.MaxWidth = getEnvInt("PHOTO_MAX_WIDTH", c.Photos.MaxWidth)
	c.Photos.MaxHeight = getEnvInt("PHOTO_MAX_HEIGHT", c.Photos.MaxHeight)
	c.Photos.Quality = getEnvInt("PHOTO_QUALITY", c.Photos.Quality)

	c.Certificates.Issuer = getEnv("CERTIFICATE_ISSUER", c.Certificates.Issuer)
	c.Certificates.Concurrency = getEnvInt("CERTIFICATE_CONCURRENCY", c.Certificates.Concurrency)

	c.Tracing.Enabled = getEnvBool("TRACING_ENABLED", c.Tracing.Enabled)
	c.Tracing.Exporter = getEnv("TRACING_EXPORTER", c.Tracing.Exporter)
	c.Tracing.ServiceName = getEnv("TRACING_SERVICE_NAME", c.Tracing.ServiceName)
	c.Tracing.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.OTLPEndpoint)

	c.Environment = getEnv("ENVIRONMENT", c.Environment)
}

// Validate reports the first missing or inconsistent setting.
func (c Config) Validate() error {
	if err := validation.ValidateBaseURL(c.Server.BaseURL, "SERVER_BASE_URL"); err != nil {
		return err
	}
	if err := validation.ValidateBaseURL(c.Storage.S3Endpoint, "S3_ENDPOINT"); err != nil {
		return err
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server read and write timeouts must be positive")
	}
	switch c.Database.Driver {
	case DatabaseDriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case DatabaseDriverMemory:
		if c.Environment == "production" {
			return fmt.Errorf("DATABASE_DRIVER=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Storage.Driver {
	case StorageDriverLocal:
		if c.Storage.LocalRoot == "" {
			return fmt.Errorf("STORAGE_LOCAL_ROOT is required for the local storage driver")
		}
	case StorageDriverS3:
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	switch c.Email.Provider {
	case EmailProviderLog:
	case EmailProviderSMTP:
		if c.Email.SMTPHost == "" || c.Email.From == "" {
			return fmt.Errorf("SMTP_HOST and EMAIL_FROM are required for the smtp email provider")
		}
	case EmailProviderResend:
		if c.Email.ResendAPIKey == "" || c.Email.From == "" {
			return fmt.Errorf("RESEND_API_KEY and EMAIL_FROM are required for the resend email provider")
		}
	default:
		return fmt.Errorf("unknown EMAIL_PROVIDER %q", c.Email.Provider)
	}
	if c.Environment == "production" && len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS is required in production")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
