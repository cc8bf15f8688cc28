package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Captcha       CaptchaConfig
	Mail          MailConfig
	Storage       StorageConfig
	Uploads       UploadsConfig
	Access        AccessConfig
	RateLimit     RateLimitConfig
	Notifications NotificationsConfig
	Cache         CacheConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CaptchaConfig points at the hCaptcha siteverify endpoint used to gate
// public access requests. When Secret is empty the verifier rejects
// everything, which keeps the endpoint fail-closed in misconfigured
// deployments.
type CaptchaConfig struct {
	Secret    string
	VerifyURL string
	Timeout   time.Duration
}

// MailConfig configures the Resend-compatible notification sender.
type MailConfig struct {
	Enabled      bool
	APIKey       string
	BaseURL      string
	FromAddress  string
	AdminAddress string
	Timeout      time.Duration
}

// StorageConfig selects and configures the blob store backend.
type StorageConfig struct {
	Driver   string // "local" or "s3"
	LocalDir string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3KeyPrefix string
	S3AccessKey string
	S3SecretKey string
}

// UploadsConfig bounds study material uploads.
type UploadsConfig struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// AccessConfig enumerates the class/subject values the approval flow accepts.
type AccessConfig struct {
	ClassLevels []string
	Subjects    []string
}

// RateLimitConfig holds the fixed-window throttle policies for the two
// public write endpoints.
type RateLimitConfig struct {
	RequestAccessLimit  int
	RequestAccessWindow time.Duration
	StatusCheckLimit    int
	StatusCheckWindow   time.Duration
}

// NotificationsConfig tunes the background mail dispatch queue.
type NotificationsConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// CacheConfig tunes the student document listing cache.
type CacheConfig struct {
	DocumentListTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Captcha = CaptchaConfig{
		Secret:    v.GetString("HCAPTCHA_SECRET"),
		VerifyURL: v.GetString("HCAPTCHA_VERIFY_URL"),
		Timeout:   parseDuration(v.GetString("HCAPTCHA_TIMEOUT"), 10*time.Second),
	}

	cfg.Mail = MailConfig{
		Enabled:      v.GetBool("MAIL_ENABLED"),
		APIKey:       v.GetString("MAIL_API_KEY"),
		BaseURL:      v.GetString("MAIL_BASE_URL"),
		FromAddress:  v.GetString("MAIL_FROM_ADDRESS"),
		AdminAddress: v.GetString("MAIL_ADMIN_ADDRESS"),
		Timeout:      parseDuration(v.GetString("MAIL_TIMEOUT"), 10*time.Second),
	}

	cfg.Storage = StorageConfig{
		Driver:      v.GetString("STORAGE_DRIVER"),
		LocalDir:    v.GetString("STORAGE_LOCAL_DIR"),
		S3Bucket:    v.GetString("STORAGE_S3_BUCKET"),
		S3Region:    v.GetString("STORAGE_S3_REGION"),
		S3Endpoint:  v.GetString("STORAGE_S3_ENDPOINT"),
		S3KeyPrefix: v.GetString("STORAGE_S3_KEY_PREFIX"),
		S3AccessKey: v.GetString("STORAGE_S3_ACCESS_KEY"),
		S3SecretKey: v.GetString("STORAGE_S3_SECRET_KEY"),
	}

	maxUploadSize := v.GetInt64("UPLOADS_MAX_FILE_SIZE")
	if maxUploadSize <= 0 {
		maxUploadSize = 10 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		MaxFileSizeBytes: maxUploadSize,
		AllowedMIMEs:     splitAndTrim(v.GetString("UPLOADS_ALLOWED_MIME_TYPES")),
	}

	cfg.Access = AccessConfig{
		ClassLevels: splitAndTrim(v.GetString("ACCESS_CLASS_LEVELS")),
		Subjects:    splitAndTrim(v.GetString("ACCESS_SUBJECTS")),
	}

	cfg.RateLimit = RateLimitConfig{
		RequestAccessLimit:  v.GetInt("RATE_LIMIT_REQUEST_ACCESS"),
		RequestAccessWindow: parseDuration(v.GetString("RATE_LIMIT_REQUEST_ACCESS_WINDOW"), 10*time.Minute),
		StatusCheckLimit:    v.GetInt("RATE_LIMIT_STATUS_CHECK"),
		StatusCheckWindow:   parseDuration(v.GetString("RATE_LIMIT_STATUS_CHECK_WINDOW"), time.Minute),
	}

	cfg.Notifications = NotificationsConfig{
		Workers:    v.GetInt("NOTIFICATIONS_WORKERS"),
		MaxRetries: v.GetInt("NOTIFICATIONS_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFICATIONS_RETRY_DELAY"), 5*time.Second),
	}

	cfg.Cache = CacheConfig{
		DocumentListTTL: parseDuration(v.GetString("DOCUMENT_LIST_CACHE_TTL"), 5*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "aims_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "aims-portal")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("HCAPTCHA_SECRET", "")
	v.SetDefault("HCAPTCHA_VERIFY_URL", "https://hcaptcha.com/siteverify")
	v.SetDefault("HCAPTCHA_TIMEOUT", "10s")

	v.SetDefault("MAIL_ENABLED", false)
	v.SetDefault("MAIL_API_KEY", "")
	v.SetDefault("MAIL_BASE_URL", "https://api.resend.com")
	v.SetDefault("MAIL_FROM_ADDRESS", "no-reply@aims.example")
	v.SetDefault("MAIL_ADMIN_ADDRESS", "")
	v.SetDefault("MAIL_TIMEOUT", "10s")

	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("STORAGE_LOCAL_DIR", "./materials")
	v.SetDefault("STORAGE_S3_BUCKET", "")
	v.SetDefault("STORAGE_S3_REGION", "")
	v.SetDefault("STORAGE_S3_ENDPOINT", "")
	v.SetDefault("STORAGE_S3_KEY_PREFIX", "materials/")
	v.SetDefault("STORAGE_S3_ACCESS_KEY", "")
	v.SetDefault("STORAGE_S3_SECRET_KEY", "")

	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("UPLOADS_ALLOWED_MIME_TYPES", "application/pdf")

	v.SetDefault("ACCESS_CLASS_LEVELS", "Class 10,Class 12")
	v.SetDefault("ACCESS_SUBJECTS", "Math,Physics")

	v.SetDefault("RATE_LIMIT_REQUEST_ACCESS", 5)
	v.SetDefault("RATE_LIMIT_REQUEST_ACCESS_WINDOW", "10m")
	v.SetDefault("RATE_LIMIT_STATUS_CHECK", 10)
	v.SetDefault("RATE_LIMIT_STATUS_CHECK_WINDOW", "1m")

	v.SetDefault("NOTIFICATIONS_WORKERS", 1)
	v.SetDefault("NOTIFICATIONS_MAX_RETRIES", 3)
	v.SetDefault("NOTIFICATIONS_RETRY_DELAY", "5s")

	v.SetDefault("DOCUMENT_LIST_CACHE_TTL", "5m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
