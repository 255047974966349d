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
	Server   ServerConfig
	DB       DBConfig
	JWT      JWTConfig
	S3       S3Config
	Log      LogConfig
	CORS     CORSConfig
	Exchange ExchangeConfig
	Sync     SyncConfig
	Reminder ReminderConfig
	Email    EmailConfig
	Identity IdentityConfig
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

// JWTConfig holds token verification settings. Tokens are issued by the
// surrounding application; this subsystem only verifies them.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// S3Config holds attachment storage settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ExchangeConfig holds e-invoicing exchange connector settings.
type ExchangeConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	Token       string `mapstructure:"token"`
	PageSize    int    `mapstructure:"page_size"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// SyncConfig holds synchronization coordinator settings.
type SyncConfig struct {
	// LookbackHours bounds the initial pull window when no completed run
	// exists yet.
	LookbackHours int `mapstructure:"lookback_hours"`
	// OverlapMinutes widens the since-window to tolerate exchange clock
	// skew; overlap is harmless because ingestion is idempotent.
	OverlapMinutes int `mapstructure:"overlap_minutes"`
}

// ReminderConfig holds linking reminder worker settings.
type ReminderConfig struct {
	IntervalHours int `mapstructure:"interval_hours"`
	BatchSize     int `mapstructure:"batch_size"`
}

// EmailConfig holds reminder delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// IdentityConfig holds the static user directory used to resolve reminder
// recipients, plus a fallback address for invoices nobody is assigned to.
type IdentityConfig struct {
	// Users is a semicolon-separated list of id=email|name entries.
	Users         string `mapstructure:"users"`
	FallbackEmail string `mapstructure:"fallback_email"`
	FallbackName  string `mapstructure:"fallback_name"`
}

// Load reads configuration from environment variables with the FARMBOOKS_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FARMBOOKS")
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
	v.SetDefault("db.user", "farmbooks")
	v.SetDefault("db.password", "farmbooks_secret")
	v.SetDefault("db.name", "farmbooks_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "farmbooks")

	// S3 defaults
	v.SetDefault("s3.region", "eu-central-1")
	v.SetDefault("s3.bucket", "farmbooks-attachments")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 25)
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Exchange defaults
	v.SetDefault("exchange.base_url", "https://ksef-test.mf.gov.pl")
	v.SetDefault("exchange.token", "")
	v.SetDefault("exchange.page_size", 100)
	v.SetDefault("exchange.timeout_secs", 60)

	// Sync defaults
	v.SetDefault("sync.lookback_hours", 72)
	v.SetDefault("sync.overlap_minutes", 30)

	// Reminder defaults
	v.SetDefault("reminder.interval_hours", 24)
	v.SetDefault("reminder.batch_size", 200)

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "eu-central-1")
	v.SetDefault("email.from_address", "noreply@farmbooks.local")
	v.SetDefault("email.from_name", "Farmbooks")
	v.SetDefault("email.frontend_url", "http://localhost:3000")

	// Identity defaults
	v.SetDefault("identity.users", "")
	v.SetDefault("identity.fallback_email", "ksiegowosc@farmbooks.local")
	v.SetDefault("identity.fallback_name", "Bookkeeping")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":             "FARMBOOKS_SERVER_PORT",
		"server.read_timeout":     "FARMBOOKS_SERVER_READ_TIMEOUT",
		"server.write_timeout":    "FARMBOOKS_SERVER_WRITE_TIMEOUT",
		"server.environment":      "FARMBOOKS_SERVER_ENVIRONMENT",
		"db.host":                 "FARMBOOKS_DB_HOST",
		"db.port":                 "FARMBOOKS_DB_PORT",
		"db.user":                 "FARMBOOKS_DB_USER",
		"db.password":             "FARMBOOKS_DB_PASSWORD",
		"db.name":                 "FARMBOOKS_DB_NAME",
		"db.sslmode":              "FARMBOOKS_DB_SSLMODE",
		"db.max_open":             "FARMBOOKS_DB_MAX_OPEN",
		"db.max_idle":             "FARMBOOKS_DB_MAX_IDLE",
		"jwt.secret":              "FARMBOOKS_JWT_SECRET",
		"jwt.issuer":              "FARMBOOKS_JWT_ISSUER",
		"s3.region":               "FARMBOOKS_S3_REGION",
		"s3.bucket":               "FARMBOOKS_S3_BUCKET",
		"s3.endpoint":             "FARMBOOKS_S3_ENDPOINT",
		"s3.access_key":           "FARMBOOKS_S3_ACCESS_KEY",
		"s3.secret_key":           "FARMBOOKS_S3_SECRET_KEY",
		"s3.max_file_size_mb":     "FARMBOOKS_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":       "FARMBOOKS_S3_PRESIGN_EXPIRY",
		"log.level":               "FARMBOOKS_LOG_LEVEL",
		"log.format":              "FARMBOOKS_LOG_FORMAT",
		"cors.allowed_origins":    "FARMBOOKS_CORS_ALLOWED_ORIGINS",
		"exchange.base_url":       "FARMBOOKS_EXCHANGE_BASE_URL",
		"exchange.token":          "FARMBOOKS_EXCHANGE_TOKEN",
		"exchange.page_size":      "FARMBOOKS_EXCHANGE_PAGE_SIZE",
		"exchange.timeout_secs":   "FARMBOOKS_EXCHANGE_TIMEOUT_SECS",
		"sync.lookback_hours":     "FARMBOOKS_SYNC_LOOKBACK_HOURS",
		"sync.overlap_minutes":    "FARMBOOKS_SYNC_OVERLAP_MINUTES",
		"reminder.interval_hours": "FARMBOOKS_REMINDER_INTERVAL_HOURS",
		"reminder.batch_size":     "FARMBOOKS_REMINDER_BATCH_SIZE",
		"email.provider":          "FARMBOOKS_EMAIL_PROVIDER",
		"email.region":            "FARMBOOKS_EMAIL_REGION",
		"email.from_address":      "FARMBOOKS_EMAIL_FROM_ADDRESS",
		"email.from_name":         "FARMBOOKS_EMAIL_FROM_NAME",
		"email.frontend_url":      "FARMBOOKS_EMAIL_FRONTEND_URL",
		"identity.users":          "FARMBOOKS_IDENTITY_USERS",
		"identity.fallback_email": "FARMBOOKS_IDENTITY_FALLBACK_EMAIL",
		"identity.fallback_name":  "FARMBOOKS_IDENTITY_FALLBACK_NAME",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if FARMBOOKS_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("FARMBOOKS_SERVER_PORT") == "" {
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
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
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
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Exchange = ExchangeConfig{
		BaseURL:     v.GetString("exchange.base_url"),
		Token:       v.GetString("exchange.token"),
		PageSize:    v.GetInt("exchange.page_size"),
		TimeoutSecs: v.GetInt("exchange.timeout_secs"),
	}
	cfg.Sync = SyncConfig{
		LookbackHours:  v.GetInt("sync.lookback_hours"),
		OverlapMinutes: v.GetInt("sync.overlap_minutes"),
	}
	cfg.Reminder = ReminderConfig{
		IntervalHours: v.GetInt("reminder.interval_hours"),
		BatchSize:     v.GetInt("reminder.batch_size"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		FrontendURL: v.GetString("email.frontend_url"),
	}
	cfg.Identity = IdentityConfig{
		Users:         v.GetString("identity.users"),
		FallbackEmail: v.GetString("identity.fallback_email"),
		FallbackName:  v.GetString("identity.fallback_name"),
	}

	return cfg, nil
}
