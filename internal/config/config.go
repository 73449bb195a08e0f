package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Auth      AuthConfig
	S3        S3Config
	Quality   QualityConfig
	Triage    TriageConfig
	Extractor ExtractorConfig
	Queue     QueueConfig
	CORS      CORSConfig
	Notify    NotifyConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// AuthConfig holds caller-identity token verification settings. Tokens are
// issued by an external identity collaborator; this service only verifies
// them and reads the subject claim.
type AuthConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings for raw upload storage.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// QualityConfig holds the image guardrail thresholds.
type QualityConfig struct {
	// SharpnessThreshold is the minimum variance of the Laplacian response
	// on an 8-bit scale; images below it are flagged blurry.
	SharpnessThreshold float64 `mapstructure:"sharpness_threshold"`
	// ContrastThreshold is the minimum p95-p5 luminance spread; images below
	// it are flagged low_contrast.
	ContrastThreshold float64 `mapstructure:"contrast_threshold"`
}

// TriageConfig holds the routing policy settings.
type TriageConfig struct {
	// AutoApproveThreshold is the overall-confidence cutoff (0..100,
	// inclusive) separating automatic acceptance from human review.
	AutoApproveThreshold float64 `mapstructure:"auto_approve_threshold"`
}

// ExtractorProviderConfig holds settings for a single extraction provider.
type ExtractorProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ExtractorConfig holds semantic-extraction service settings.
type ExtractorConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// PrimaryConfig returns the extractor settings as a provider config.
func (e *ExtractorConfig) PrimaryConfig() *ExtractorProviderConfig {
	return &ExtractorProviderConfig{
		Provider:     e.Provider,
		APIKey:       e.APIKey,
		DefaultModel: e.DefaultModel,
		TimeoutSecs:  e.TimeoutSecs,
	}
}

// QueueConfig holds extraction retry worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxAttempts      int `mapstructure:"max_attempts"`
	Concurrency      int `mapstructure:"concurrency"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// NotifyConfig holds review notification settings.
type NotifyConfig struct {
	Provider        string `mapstructure:"provider"`
	Region          string `mapstructure:"region"`
	FromAddress     string `mapstructure:"from_address"`
	FromName        string `mapstructure:"from_name"`
	ReviewerAddress string `mapstructure:"reviewer_address"`
	FrontendURL     string `mapstructure:"frontend_url"`
}

// Load reads configuration from environment variables with the INVOX_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INVOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "invox")
	v.SetDefault("db.password", "invox_secret")
	v.SetDefault("db.name", "invox_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Auth defaults
	v.SetDefault("auth.secret", "change-me-in-production")
	v.SetDefault("auth.issuer", "invox")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "invox-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 10)
	v.SetDefault("s3.presign_expiry", 3600)

	// Quality guardrail defaults
	v.SetDefault("quality.sharpness_threshold", 100.0)
	v.SetDefault("quality.contrast_threshold", 40.0)

	// Triage defaults
	v.SetDefault("triage.auto_approve_threshold", 85.0)

	// Extractor defaults
	v.SetDefault("extractor.provider", "groq")
	v.SetDefault("extractor.api_key", "")
	v.SetDefault("extractor.default_model", "llama-3.2-90b-vision-preview")
	v.SetDefault("extractor.timeout_secs", 60)

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.max_attempts", 5)
	v.SetDefault("queue.concurrency", 5)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Notify defaults
	v.SetDefault("notify.provider", "noop")
	v.SetDefault("notify.region", "us-east-1")
	v.SetDefault("notify.from_address", "noreply@invox.local")
	v.SetDefault("notify.from_name", "Invox")
	v.SetDefault("notify.reviewer_address", "")
	v.SetDefault("notify.frontend_url", "http://localhost:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                   "INVOX_SERVER_PORT",
		"server.read_timeout":           "INVOX_SERVER_READ_TIMEOUT",
		"server.write_timeout":          "INVOX_SERVER_WRITE_TIMEOUT",
		"server.environment":            "INVOX_SERVER_ENVIRONMENT",
		"db.host":                       "INVOX_DB_HOST",
		"db.port":                       "INVOX_DB_PORT",
		"db.user":                       "INVOX_DB_USER",
		"db.password":                   "INVOX_DB_PASSWORD",
		"db.name":                       "INVOX_DB_NAME",
		"db.sslmode":                    "INVOX_DB_SSLMODE",
		"db.max_open":                   "INVOX_DB_MAX_OPEN",
		"db.max_idle":                   "INVOX_DB_MAX_IDLE",
		"auth.secret":                   "INVOX_AUTH_SECRET",
		"auth.issuer":                   "INVOX_AUTH_ISSUER",
		"s3.region":                     "INVOX_S3_REGION",
		"s3.bucket":                     "INVOX_S3_BUCKET",
		"s3.endpoint":                   "INVOX_S3_ENDPOINT",
		"s3.access_key":                 "INVOX_S3_ACCESS_KEY",
		"s3.secret_key":                 "INVOX_S3_SECRET_KEY",
		"s3.max_file_size_mb":           "INVOX_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":             "INVOX_S3_PRESIGN_EXPIRY",
		"quality.sharpness_threshold":   "INVOX_QUALITY_SHARPNESS_THRESHOLD",
		"quality.contrast_threshold":    "INVOX_QUALITY_CONTRAST_THRESHOLD",
		"triage.auto_approve_threshold": "INVOX_TRIAGE_AUTO_APPROVE_THRESHOLD",
		"extractor.provider":            "INVOX_EXTRACTOR_PROVIDER",
		"extractor.api_key":             "INVOX_EXTRACTOR_API_KEY",
		"extractor.default_model":       "INVOX_EXTRACTOR_DEFAULT_MODEL",
		"extractor.timeout_secs":        "INVOX_EXTRACTOR_TIMEOUT_SECS",
		"queue.poll_interval_secs":      "INVOX_QUEUE_POLL_INTERVAL_SECS",
		"queue.max_attempts":            "INVOX_QUEUE_MAX_ATTEMPTS",
		"queue.concurrency":             "INVOX_QUEUE_CONCURRENCY",
		"cors.allowed_origins":          "INVOX_CORS_ALLOWED_ORIGINS",
		"notify.provider":               "INVOX_NOTIFY_PROVIDER",
		"notify.region":                 "INVOX_NOTIFY_REGION",
		"notify.from_address":           "INVOX_NOTIFY_FROM_ADDRESS",
		"notify.from_name":              "INVOX_NOTIFY_FROM_NAME",
		"notify.reviewer_address":       "INVOX_NOTIFY_REVIEWER_ADDRESS",
		"notify.frontend_url":           "INVOX_NOTIFY_FRONTEND_URL",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if INVOX_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("INVOX_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Auth = AuthConfig{
		Secret: v.GetString("auth.secret"),
		Issuer: v.GetString("auth.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Quality = QualityConfig{
		SharpnessThreshold: v.GetFloat64("quality.sharpness_threshold"),
		ContrastThreshold:  v.GetFloat64("quality.contrast_threshold"),
	}
	cfg.Triage = TriageConfig{
		AutoApproveThreshold: v.GetFloat64("triage.auto_approve_threshold"),
	}
	cfg.Extractor = ExtractorConfig{
		Provider:     v.GetString("extractor.provider"),
		APIKey:       v.GetString("extractor.api_key"),
		DefaultModel: v.GetString("extractor.default_model"),
		TimeoutSecs:  v.GetInt("extractor.timeout_secs"),
	}
	cfg.Queue = QueueConfig{
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		MaxAttempts:      v.GetInt("queue.max_attempts"),
		Concurrency:      v.GetInt("queue.concurrency"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Notify = NotifyConfig{
		Provider:        v.GetString("notify.provider"),
		Region:          v.GetString("notify.region"),
		FromAddress:     v.GetString("notify.from_address"),
		FromName:        v.GetString("notify.from_name"),
		ReviewerAddress: v.GetString("notify.reviewer_address"),
		FrontendURL:     v.GetString("notify.frontend_url"),
	}

	return cfg, nil
}
