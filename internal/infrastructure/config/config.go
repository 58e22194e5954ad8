package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Pake      PakeConfig
	AuthLimit AuthLimitConfig
	Device    DeviceConfig
	Pairing   PairingConfig
	Sync      SyncConfig
	S3        S3Config
	Log       LogConfig
	RateLimit RateLimitConfig
	Prune     PruneConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"120s"`
	Environment     string        `envconfig:"ENVIRONMENT" default:"development"`
}

type DatabaseConfig struct {
	Host            string        `envconfig:"DB_HOST" default:"localhost"`
	Port            int           `envconfig:"DB_PORT" default:"5432"`
	User            string        `envconfig:"DB_USER" required:"true"`
	Password        string        `envconfig:"DB_PASSWORD" required:"true"`
	Name            string        `envconfig:"DB_NAME" required:"true"`
	SSLMode         string        `envconfig:"DB_SSL_MODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	AutoMigrate     bool          `envconfig:"DB_AUTO_MIGRATE" default:"true"`
	ConnectAttempts int           `envconfig:"DB_CONNECT_ATTEMPTS" default:"5"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type JWTConfig struct {
	SecretKey       string        `envconfig:"JWT_SECRET_KEY" required:"true"`
	AccessTokenTTL  time.Duration `envconfig:"JWT_ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTokenTTL time.Duration `envconfig:"JWT_REFRESH_TOKEN_TTL" default:"720h"`
	Issuer          string        `envconfig:"JWT_ISSUER" default:"focusdeck"`
}

type PakeConfig struct {
	ServerSecret   string        `envconfig:"PAKE_SERVER_SECRET" required:"true"`
	SessionTTL     time.Duration `envconfig:"PAKE_SESSION_TTL" default:"5m"`
	KDFTime        uint32        `envconfig:"PAKE_KDF_TIME" default:"3"`
	KDFMemoryKiB   uint32        `envconfig:"PAKE_KDF_MEMORY_KIB" default:"65536"`
	KDFParallelism uint8         `envconfig:"PAKE_KDF_PARALLELISM" default:"2"`
}

type AuthLimitConfig struct {
	MaxFailures int           `envconfig:"AUTH_LIMIT_MAX_FAILURES" default:"5"`
	Window      time.Duration `envconfig:"AUTH_LIMIT_WINDOW" default:"10m"`
	BlockFor    time.Duration `envconfig:"AUTH_LIMIT_BLOCK_FOR" default:"15m"`
}

type DeviceConfig struct {
	TTL time.Duration `envconfig:"DEVICE_TTL" default:"2160h"`
}

type PairingConfig struct {
	CodeTTL        time.Duration `envconfig:"PAIRING_CODE_TTL" default:"10m"`
	CodeLength     int           `envconfig:"PAIRING_CODE_LENGTH" default:"6"`
	MaxAttempts    int           `envconfig:"PAIRING_MAX_ATTEMPTS" default:"5"`
	DeepLinkScheme string        `envconfig:"PAIRING_DEEP_LINK_SCHEME" default:"app"`
}

type SyncConfig struct {
	PullDefaultLimit int `envconfig:"SYNC_PULL_DEFAULT_LIMIT" default:"100"`
	PullMaxLimit     int `envconfig:"SYNC_PULL_MAX_LIMIT" default:"500"`
	MaxPushBatch     int `envconfig:"SYNC_MAX_PUSH_BATCH" default:"500"`
}

type S3Config struct {
	ArchiveEnabled  bool   `envconfig:"S3_ARCHIVE_ENABLED" default:"false"`
	Endpoint        string `envconfig:"S3_ENDPOINT"`
	Region          string `envconfig:"S3_REGION" default:"us-east-1"`
	Bucket          string `envconfig:"S3_BUCKET"`
	AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `envconfig:"S3_USE_PATH_STYLE" default:"false"`
	ArchivePrefix   string `envconfig:"S3_ARCHIVE_PREFIX" default:"conflicts"`
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

type RedisConfig struct {
	Enabled       bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host          string `envconfig:"REDIS_HOST" default:"localhost"`
	Port          int    `envconfig:"REDIS_PORT" default:"6379"`
	Password      string `envconfig:"REDIS_PASSWORD" default:""`
	DB            int    `envconfig:"REDIS_DB" default:"0"`
	EventsChannel string `envconfig:"REDIS_EVENTS_CHANNEL" default:"focusdeck:events"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RateLimitConfig struct {
	Enabled        bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMin int  `envconfig:"RATE_LIMIT_REQUESTS_PER_MIN" default:"100"`
}

type PruneConfig struct {
	Interval  time.Duration `envconfig:"PRUNE_INTERVAL" default:"1h"`
	Retention time.Duration `envconfig:"PRUNE_RETENTION" default:"168h"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.S3.ArchiveEnabled && cfg.S3.Bucket == "" {
		return nil, fmt.Errorf("loading config: S3_BUCKET is required when S3_ARCHIVE_ENABLED is set")
	}
	return &cfg, nil
}
