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

	EnvDBDSN  = "SALESDESK_DB_DSN"
	EnvDBHost = "SALESDESK_DB_HOST"
	EnvDBUser = "SALESDESK_DB_USER"
	EnvDBName = "SALESDESK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	RateLimit    RateLimitConfig
	Tasks        TasksConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"SALESDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"SALESDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SALESDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SALESDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SALESDESK_DB_DSN"`
	Driver string `envconfig:"SALESDESK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SALESDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"SALESDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SALESDESK_DB_USER"`
	LegacyPassword string `envconfig:"SALESDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"SALESDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"SALESDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SALESDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SALESDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SALESDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SALESDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	QueryTimeout time.Duration `envconfig:"SALESDESK_DB_QUERY_TIMEOUT" default:"15s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SALESDESK_REDIS_URL"`
	Address      string        `envconfig:"SALESDESK_REDIS_ADDR"`
	Password     string        `envconfig:"SALESDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"SALESDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SALESDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SALESDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SALESDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SALESDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SALESDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether redis is configured at all. The rate limiter and
// readiness probe degrade gracefully when it is not.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type RateLimitConfig struct {
	Window      time.Duration `envconfig:"SALESDESK_RATE_LIMIT_WINDOW" default:"1m"`
	TenantLimit int           `envconfig:"SALESDESK_RATE_LIMIT_TENANT_LIMIT" default:"240"`
}

type TasksConfig struct {
	DefaultPageSize int `envconfig:"SALESDESK_TASKS_DEFAULT_PAGE_SIZE" default:"25"`
	MaxPageSize     int `envconfig:"SALESDESK_TASKS_MAX_PAGE_SIZE" default:"100"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SALESDESK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SALESDESK_AUTO_MIGRATE" default:"false"`
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
