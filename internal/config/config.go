package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	Environment string `env:"ENVIRONMENT" env-default:"local"`
	Port        string `env:"PORT" env-default:"8080"`

	DatabaseURL       string `env:"DATABASE_URL" env-required:"true"`
	JWTSecret         string `env:"JWT_SECRET" env-required:"true"`
	JWTIssuer         string `env:"JWT_ISSUER" env-default:"keep"`
	AccessTTLSeconds  int64  `env:"ACCESS_TTL_SECONDS" env-default:"14400"`
	RefreshTTLSeconds int64  `env:"REFRESH_TTL_SECONDS" env-default:"1209600"`

	// PublicBaseURL is the origin of the web client; QR codes point at
	// PublicBaseURL + "/found/" + token.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" env-default:"http://localhost:5173"`

	Storage StorageConfig

	RedisAddr         string `env:"REDIS_ADDR" env-default:""`
	RedisPassword     string `env:"REDIS_PASSWORD" env-default:""`
	StatsCacheSeconds int    `env:"STATS_CACHE_SECONDS" env-default:"300"`

	LogDir           string `env:"LOG_DIR" env-default:"storage/logs"`
	LogRetentionDays int    `env:"LOG_RETENTION_DAYS" env-default:"7"`
	LogLevel         string `env:"LOG_LEVEL" env-default:"info"`

	CorsOrigins []string `env:"CORS_ORIGINS" env-separator:"," env-default:""`
}

// StorageConfig selects and tunes the object store used for photos and documents.
type StorageConfig struct {
	Driver           string `env:"STORAGE_DRIVER" env-default:"local"`
	LocalPath        string `env:"MEDIA_STORAGE_PATH" env-default:"storage/media"`
	PhotoBucket      string `env:"PHOTO_BUCKET" env-default:"asset-photos"`
	DocumentBucket   string `env:"DOCUMENT_BUCKET" env-default:"asset-documents"`
	GCSCredentials   string `env:"GCS_CREDENTIALS_FILE" env-default:""`
	MaxPhotoBytes    int64  `env:"MAX_PHOTO_BYTES" env-default:"5242880"`
	MaxDocumentBytes int64  `env:"MAX_DOCUMENT_BYTES" env-default:"10485760"`
	MinFreeBytes     uint64 `env:"STORAGE_MIN_FREE_BYTES" env-default:"536870912"`
}

func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" || strings.TrimSpace(cfg.JWTSecret) == "" {
		return Config{}, fmt.Errorf("DATABASE_URL and JWT_SECRET are required")
	}
	cfg.CorsOrigins = cleanList(cfg.CorsOrigins)
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	if cfg.LogRetentionDays < 1 || cfg.LogRetentionDays > 7 {
		cfg.LogRetentionDays = 7
	}
	switch cfg.Storage.Driver {
	case "local", "gcs":
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "prod" || c.Environment == "production"
}

func cleanList(raw []string) []string {
	items := make([]string, 0, len(raw))
	for _, part := range raw {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	if len(items) == 0 {
		return nil
	}
	return items
}
