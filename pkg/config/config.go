package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "DISPECINK"

type Config struct {
	App      App
	Log      Log
	Database Database
	Redis    Redis
	Auth     Auth
	Paging   Paging
	Files    Files
	ESB      ESB
	Sync     Sync
}

type App struct {
	Env  string `envconfig:"APP_ENV" default:"development"`
	Port int    `envconfig:"PORT" default:"8080"`
}

type Log struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

type Database struct {
	DSN             string        `envconfig:"DB_DSN" required:"true"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
	AutoMigrate     bool          `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

type Redis struct {
	URL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
}

type Auth struct {
	JWTSecret      string        `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer      string        `envconfig:"JWT_ISSUER" default:"dispecink"`
	AccessTokenTTL time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"15m"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	SecureCookies  bool          `envconfig:"SECURE_COOKIES" default:"true"`
	LocalLogin     bool          `envconfig:"LOCAL_LOGIN" default:"false"`
	JWKSPath       string        `envconfig:"AUTH_JWKS_PATH"`
}

type Paging struct {
	PageRows int `envconfig:"PAGE_ROWS" default:"50"`
}

type Files struct {
	StagingDir string `envconfig:"FILES_STAGING_DIR" default:"/tmp/dispecink/staging"`
	PersistDir string `envconfig:"FILES_PERSIST_DIR" default:"/var/lib/dispecink/files"`
	MaxSizeMB  int64  `envconfig:"FILES_MAX_SIZE_MB" default:"20"`
}

type ESB struct {
	BaseURL      string        `envconfig:"ESB_BASE_URL"`
	LoginURL     string        `envconfig:"ESB_LOGIN_URL"`
	TokenURL     string        `envconfig:"ESB_TOKEN_URL"`
	ClientID     string        `envconfig:"ESB_CLIENT_ID"`
	ClientSecret string        `envconfig:"ESB_CLIENT_SECRET"`
	RedirectURI  string        `envconfig:"ESB_REDIRECT_URI"`
	Timeout      time.Duration `envconfig:"ESB_TIMEOUT" default:"15s"`
}

type Sync struct {
	LocationTTL time.Duration `envconfig:"LOCATION_SYNC_TTL" default:"24h"`
	MaxJitter   time.Duration `envconfig:"LOCATION_SYNC_MAX_JITTER" default:"20s"`
}

// Load reads configuration from the environment, optionally seeded from a
// .env file in development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}
