package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Treasury TreasuryConfig
	GCP      GCPConfig
	PubSub   PubSubConfig
	Outbox   OutboxConfig
	Flags    FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CROWDVAULT_APP_ENV" required:"true"`
	Port         string `envconfig:"CROWDVAULT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CROWDVAULT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CROWDVAULT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"CROWDVAULT_DB_DSN"`

	Host     string `envconfig:"CROWDVAULT_DB_HOST"`
	Port     int    `envconfig:"CROWDVAULT_DB_PORT" default:"5432"`
	User     string `envconfig:"CROWDVAULT_DB_USER"`
	Password string `envconfig:"CROWDVAULT_DB_PASSWORD"`
	Name     string `envconfig:"CROWDVAULT_DB_NAME"`
	SSLMode  string `envconfig:"CROWDVAULT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CROWDVAULT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CROWDVAULT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CROWDVAULT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CROWDVAULT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either CROWDVAULT_DB_DSN or host/user/name settings are required")
	}
	userInfo := url.User(d.User)
	if d.Password != "" {
		userInfo = url.UserPassword(d.User, d.Password)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"CROWDVAULT_REDIS_URL"`
	Address      string        `envconfig:"CROWDVAULT_REDIS_ADDR"`
	Password     string        `envconfig:"CROWDVAULT_REDIS_PASSWORD"`
	DB           int           `envconfig:"CROWDVAULT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CROWDVAULT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CROWDVAULT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CROWDVAULT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CROWDVAULT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CROWDVAULT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CROWDVAULT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CROWDVAULT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CROWDVAULT_JWT_EXPIRATION_MINUTES" default:"60"`
}

// TreasuryConfig tunes the custody account substrate.
type TreasuryConfig struct {
	// RecordReserveUnits is the minimum balance a campaign custody account
	// must retain to stay alive, in smallest denomination units.
	RecordReserveUnits int64 `envconfig:"CROWDVAULT_TREASURY_RECORD_RESERVE_UNITS" default:"2039280"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CROWDVAULT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"CROWDVAULT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CROWDVAULT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"CROWDVAULT_PUBSUB_DOMAIN_TOPIC" default:"cv-domain-events"`
	DomainSubscription string `envconfig:"CROWDVAULT_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CROWDVAULT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CROWDVAULT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CROWDVAULT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CROWDVAULT_AUTO_MIGRATE" default:"false"`
}
