package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Env            string `koanf:"app_env"`
	LogLevel       string `koanf:"log_level"`
	HTTPAddr       string `koanf:"http_addr"`
	DBType         string `koanf:"storage_backend"`
	DBDSN          string `koanf:"postgres_dsn"`
	SQLitePath     string `koanf:"sqlite_path"`
	FileSleep      string `koanf:"sleep_file"`
	FileActive     string `koanf:"active_file"`
	FilePatterns   string `koanf:"pattern_file"`
	AuthToken      string `koanf:"auth_token"`
	AuthServiceURL string `koanf:"auth_service_url"`

	MinRecordsForPattern int    `koanf:"min_records_for_pattern"`
	AnalysisWindow       int    `koanf:"analysis_window"`
	StatsWindow          int    `koanf:"stats_window"`
	TipSeed              uint64 `koanf:"tip_seed"`
}

var (
	cfg     *Config
	loadErr error
	once    sync.Once
)

func Defaults() *Config {
	return &Config{
		Env:                  "development",
		LogLevel:             "info",
		HTTPAddr:             ":8088",
		DBType:               "file",
		SQLitePath:           "data/sleep_tracker.db",
		FileSleep:            "data/sleep_logs.json",
		FileActive:           "data/active_sleeps.json",
		FilePatterns:         "data/patterns.json",
		AuthToken:            "MOCK-TOKEN",
		MinRecordsForPattern: 3,
		AnalysisWindow:       20,
		StatsWindow:          10,
	}
}

// Load reads the config once per process: defaults, then the YAML file named
// by CONFIG_FILE (if any), then environment variables.
func Load() (*Config, error) {
	once.Do(func() {
		cfg, loadErr = LoadFrom(os.Getenv("CONFIG_FILE"))
	})
	return cfg, loadErr
}

// LoadFrom builds a fresh Config without touching the process-wide one.
func LoadFrom(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	// APP_ENV -> app_env; keys are flat so no delimiter mapping is needed.
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	c := Defaults()
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.DBType {
	case "postgres":
		if c.DBDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORAGE_BACKEND=sqlite")
		}
	case "file":
		if c.FileSleep == "" || c.FileActive == "" || c.FilePatterns == "" {
			return errors.New("File storage requires SLEEP_FILE, ACTIVE_FILE and PATTERN_FILE to be set")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: file, postgres, sqlite (got %q)", c.DBType)
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	if c.Env != "development" && c.AuthServiceURL == "" {
		return errors.New("AUTH_SERVICE_URL is required outside development")
	}
	if c.MinRecordsForPattern < 1 {
		return errors.New("MIN_RECORDS_FOR_PATTERN must be positive")
	}
	if c.AnalysisWindow < c.MinRecordsForPattern {
		return errors.New("ANALYSIS_WINDOW must be at least MIN_RECORDS_FOR_PATTERN")
	}
	if c.StatsWindow < 1 {
		return errors.New("STATS_WINDOW must be positive")
	}
	return nil
}
