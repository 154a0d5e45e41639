package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "festeja"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv   = "FESTEJA_APP_ENV"
	EnvPort     = "FESTEJA_APP_PORT"
	EnvDBDSN    = "FESTEJA_DB_DSN"
	EnvDBHost   = "FESTEJA_DB_HOST"
	EnvDBUser   = "FESTEJA_DB_USER"
	EnvDBName   = "FESTEJA_DB_NAME"
	EnvRedisURL = "FESTEJA_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Availability AvailabilityConfig
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
	Env          string `envconfig:"FESTEJA_APP_ENV" required:"true"`
	Port         string `envconfig:"FESTEJA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FESTEJA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FESTEJA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FESTEJA_DB_DSN"`
	Driver string `envconfig:"FESTEJA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FESTEJA_DB_HOST"`
	LegacyPort     int    `envconfig:"FESTEJA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FESTEJA_DB_USER"`
	LegacyPassword string `envconfig:"FESTEJA_DB_PASSWORD"`
	LegacyName     string `envconfig:"FESTEJA_DB_NAME"`
	LegacySSLMode  string `envconfig:"FESTEJA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FESTEJA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FESTEJA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FESTEJA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FESTEJA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FESTEJA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FESTEJA_REDIS_ADDR"`
	Password     string        `envconfig:"FESTEJA_REDIS_PASSWORD"`
	DB           int           `envconfig:"FESTEJA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FESTEJA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FESTEJA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FESTEJA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FESTEJA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FESTEJA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FESTEJA_AUTO_MIGRATE" default:"false"`
}

type AvailabilityConfig struct {
	// IdempotencyTTL bounds how long a replayed availability upsert returns
	// the cached response instead of re-running the write.
	IdempotencyTTL time.Duration `envconfig:"FESTEJA_AVAILABILITY_IDEMPOTENCY_TTL" default:"24h"`
	// MaxRangeDays caps date-range lookups.
	MaxRangeDays int `envconfig:"FESTEJA_AVAILABILITY_MAX_RANGE_DAYS" default:"366"`
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
