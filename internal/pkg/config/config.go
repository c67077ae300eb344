package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth       AuthConfig
	Mongo      MongoConfig
	Redis      RedisConfig
	Minio      MinioConfig
	SMTP       SMTPConfig
	Onboarding OnboardingConfig
}

// AuthConfig drives the identity provider.
type AuthConfig struct {
	JWTSecret       string        `env:"JWT_SECRET, required"`
	SessionTTL      time.Duration `env:"SESSION_TTL, default=24h"`
	VerificationTTL time.Duration `env:"VERIFICATION_TTL, default=24h"`
	BcryptCost      int           `env:"BCRYPT_COST, default=10"`
	// PublicBaseURL is where emailed links point to. It is also the only
	// origin allowed on the verification watch when set.
	PublicBaseURL string   `env:"PUBLIC_BASE_URL, default=http://localhost:3000"`
	AdminEmails   []string `env:"ADMIN_EMAILS"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=creator_onboarding"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type MinioConfig struct {
	Endpoint        string `env:"MINIO_ENDPOINT,         default=localhost:9000"`
	AccessKey       string `env:"MINIO_ACCESS_KEY,       default=minioadmin"`
	SecretKey       string `env:"MINIO_SECRET_KEY,       default=minioadmin"`
	UseSSL          bool   `env:"MINIO_USE_SSL,          default=false"`
	DocumentsBucket string `env:"MINIO_DOCUMENTS_BUCKET, default=documents"`
	AvatarsBucket   string `env:"MINIO_AVATARS_BUCKET,   default=avatars"`
	PublicURL       string `env:"MINIO_PUBLIC_URL"`
}

// SMTPConfig is optional. Without a host, verification emails are logged.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     string `env:"SMTP_PORT,     default=465"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM,     default=no-reply@localhost"`
	Workers  int    `env:"MAIL_WORKERS,  default=2"`
}

type OnboardingConfig struct {
	RequireIDImages bool          `env:"ONBOARDING_REQUIRE_ID_IMAGES, default=false"`
	ReviewCountdown time.Duration `env:"ONBOARDING_REVIEW_COUNTDOWN,  default=600s"`
	MaxUploadBytes  int64         `env:"ONBOARDING_MAX_UPLOAD_BYTES,  default=5242880"`
	RedirectDelay   time.Duration `env:"VERIFY_REDIRECT_DELAY,        default=5s"`
	SignedURLTTL    time.Duration `env:"SIGNED_URL_TTL,               default=3600s"`
}

// IsDevelopment reports whether human-friendly logs should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from the given lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
