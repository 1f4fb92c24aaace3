package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Device       DeviceConfig
	LocalDB      LocalDBConfig
	RemoteDB     RemoteDBConfig
	Sync         SyncConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SUUQPOS_APP_ENV" default:"dev"`
	Port         string `envconfig:"SUUQPOS_APP_PORT" default:"7070"`
	LogLevel     string `envconfig:"SUUQPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SUUQPOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// DeviceConfig identifies this terminal within the company.
type DeviceConfig struct {
	CompanyID string `envconfig:"SUUQPOS_COMPANY_ID" required:"true"`
	BranchID  string `envconfig:"SUUQPOS_BRANCH_ID" required:"true"`
	UserID    string `envconfig:"SUUQPOS_USER_ID"`
	DeviceID  string `envconfig:"SUUQPOS_DEVICE_ID" default:"pos"`
}

// LocalDBConfig points at the on-device sqlite file backing the ledger store.
type LocalDBConfig struct {
	Path        string `envconfig:"SUUQPOS_LOCAL_DB_PATH" default:"suuqpos.db"`
	BusyTimeout int    `envconfig:"SUUQPOS_LOCAL_DB_BUSY_TIMEOUT_MS" default:"5000"`
}

// DSN renders the sqlite DSN with WAL journaling enabled.
func (l LocalDBConfig) DSN() string {
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d", l.Path, l.BusyTimeout)
}

// RemoteDBConfig points at the shared company Postgres store.
type RemoteDBConfig struct {
	DSN string `envconfig:"SUUQPOS_REMOTE_DB_DSN"`

	MaxOpenConns    int           `envconfig:"SUUQPOS_REMOTE_DB_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"SUUQPOS_REMOTE_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"SUUQPOS_REMOTE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SUUQPOS_REMOTE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type SyncConfig struct {
	Enabled    bool `envconfig:"SUUQPOS_SYNC_ENABLED" default:"true"`
	IntervalMS int  `envconfig:"SUUQPOS_SYNC_INTERVAL_MS" default:"15000"`
	MaxBatch   int  `envconfig:"SUUQPOS_SYNC_MAX_BATCH" default:"10"`
}

// Interval returns the poll interval, falling back to the 15s default.
func (s SyncConfig) Interval() time.Duration {
	if s.IntervalMS <= 0 {
		return 15 * time.Second
	}
	return time.Duration(s.IntervalMS) * time.Millisecond
}

type FeatureFlagsConfig struct {
	AutoMigrateRemote bool `envconfig:"SUUQPOS_AUTO_MIGRATE_REMOTE" default:"false"`
}
