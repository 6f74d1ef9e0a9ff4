package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr     string
	DataDir        string
	TemplateDir    string
	OutputDir      string
	FontPath       string
	LogLevel       string
	LogFormat      string
	MaxUploadBytes int64

	// ConfigStore selects where the render layout is persisted:
	// file, sqlite or redis.
	ConfigStore   string
	ConfigPath    string
	ConfigProfile string
	RedisAddr     string

	MinIOEndpoint        string
	MinIOAccessKeyID     string
	MinIOSecretAccessKey string
	MinIOBucket          string
	MinIOUseSSL          bool
	MinIOPrefix          string

	RetentionHours      int
	CleanupIntervalMins int
	AuthTokenHash       string
	RateLimitPerMin     int

	JobWebhookURL    string
	JobWebhookSecret string
}

// Load reads the configuration from the environment. Variables from a .env
// file in the working directory are applied first without overriding
// anything already set.
func Load() *Config {
	_ = godotenv.Load()

	dataDir := envOr("DATA_DIR", "./data")
	return &Config{
		ListenAddr:     envOr("LISTEN_ADDR", ":8080"),
		DataDir:        dataDir,
		TemplateDir:    envOr("TEMPLATE_DIR", filepath.Join(dataDir, "templates")),
		OutputDir:      envOr("OUTPUT_DIR", filepath.Join(dataDir, "output")),
		FontPath:       envOr("FONT_PATH", "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		LogFormat:      envOr("LOG_FORMAT", "text"),
		MaxUploadBytes: envInt64Or("MAX_UPLOAD_BYTES", 32<<20),

		ConfigStore:   envOr("CONFIG_STORE", "file"),
		ConfigPath:    envOr("CONFIG_PATH", filepath.Join(dataDir, "certificate_config.json")),
		ConfigProfile: envOr("CONFIG_PROFILE", "default"),
		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),

		MinIOEndpoint:        os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKeyID:     os.Getenv("MINIO_ACCESS_KEY_ID"),
		MinIOSecretAccessKey: os.Getenv("MINIO_SECRET_ACCESS_KEY"),
		MinIOBucket:          envOr("MINIO_BUCKET", "certificates"),
		MinIOUseSSL:          envBoolOr("MINIO_USE_SSL", false),
		MinIOPrefix:          os.Getenv("MINIO_PREFIX"),

		RetentionHours:      envIntOr("RETENTION_HOURS", 72),
		CleanupIntervalMins: envIntOr("CLEANUP_INTERVAL_MINS", 60),
		AuthTokenHash:       os.Getenv("AUTH_TOKEN_HASH"),
		RateLimitPerMin:     envIntOr("RATE_LIMIT_PER_MIN", 30),

		JobWebhookURL:    os.Getenv("JOB_WEBHOOK_URL"),
		JobWebhookSecret: os.Getenv("JOB_WEBHOOK_SECRET"),
	}
}

func (c *Config) ArchiveDir() string {
	return filepath.Join(c.DataDir, "archives")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64Or(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
