package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "aptpulse"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "APTPULSE_DB_DSN"
	EnvDBHost = "APTPULSE_DB_HOST"
	EnvDBUser = "APTPULSE_DB_USER"
	EnvDBName = "APTPULSE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App      AppConfig
	Service  ServiceConfig
	DB       DBConfig
	Redis    RedisConfig
	Molit    MolitConfig
	Ingest   IngestConfig
	Features FeatureFlagsConfig
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
	Env          string `envconfig:"APTPULSE_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"APTPULSE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"APTPULSE_LOG_WARN_STACK" default:"false"`
	OpsPort      string `envconfig:"APTPULSE_OPS_PORT" default:"9090"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"APTPULSE_SERVICE_KIND" default:"ingest-worker"`
}

type DBConfig struct {
	DSN    string `envconfig:"APTPULSE_DB_DSN"`
	Driver string `envconfig:"APTPULSE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"APTPULSE_DB_HOST"`
	LegacyPort     int    `envconfig:"APTPULSE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"APTPULSE_DB_USER"`
	LegacyPassword string `envconfig:"APTPULSE_DB_PASSWORD"`
	LegacyName     string `envconfig:"APTPULSE_DB_NAME"`
	LegacySSLMode  string `envconfig:"APTPULSE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"APTPULSE_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"APTPULSE_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"APTPULSE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"APTPULSE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"APTPULSE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"APTPULSE_REDIS_ADDR"`
	Password     string        `envconfig:"APTPULSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"APTPULSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"APTPULSE_REDIS_POOL_SIZE" default:"5"`
	MinIdleConns int           `envconfig:"APTPULSE_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"APTPULSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"APTPULSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"APTPULSE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// MolitConfig carries credentials and tuning for the MOLIT
// transaction-price API.
type MolitConfig struct {
	ServiceKey  string        `envconfig:"APTPULSE_MOLIT_SERVICE_KEY" required:"true"`
	BaseURL     string        `envconfig:"APTPULSE_MOLIT_BASE_URL"`
	CallTimeout time.Duration `envconfig:"APTPULSE_MOLIT_CALL_TIMEOUT" default:"30s"`
	PageSize    int           `envconfig:"APTPULSE_MOLIT_PAGE_SIZE" default:"1000"`
}

type IngestConfig struct {
	// Interval between scheduled cycles. The monthly jobs target the
	// period immediately preceding the cycle's run time, so re-running
	// within the same month is a no-op by construction.
	Interval time.Duration `envconfig:"APTPULSE_INGEST_INTERVAL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"APTPULSE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
