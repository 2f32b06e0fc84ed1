package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soaringjerry/stackit/internal/utils"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreBadger = "badger"
)

// Config is read from an optional YAML file; STACKIT_* variables win.
type Config struct {
	Addr          string   `yaml:"addr"`
	Store         string   `yaml:"store"`
	SQLitePath    string   `yaml:"sqlite_path"`
	MigrationsDir string   `yaml:"migrations_dir"`
	BadgerPath    string   `yaml:"badger_path"`
	JWTSecret     string   `yaml:"jwt_secret"`
	PageSize      int      `yaml:"page_size"`
	StaticDir     string   `yaml:"static_dir"`
	CORSOrigins   []string `yaml:"cors_origins"`
	LogLevel      string   `yaml:"log_level"`
	Commit        string   `yaml:"-"`
	BuildTime     string   `yaml:"-"`
}

func defaultConfig() Config {
	return Config{
		Addr:       ":8080",
		Store:      StoreSQLite,
		SQLitePath: "data/stackit.db",
		BadgerPath: "data/badger",
		PageSize:   6,
		LogLevel:   "info",
	}
}

// LoadConfig layers defaults, the YAML file at path (if any) and the
// environment.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Addr = utils.SafeEnv("STACKIT_ADDR", cfg.Addr)
	cfg.Store = strings.ToLower(utils.SafeEnv("STACKIT_STORE", cfg.Store))
	cfg.SQLitePath = utils.SafeEnv("STACKIT_SQLITE_PATH", cfg.SQLitePath)
	cfg.MigrationsDir = utils.SafeEnv("STACKIT_MIGRATIONS_DIR", cfg.MigrationsDir)
	cfg.BadgerPath = utils.SafeEnv("STACKIT_BADGER_PATH", cfg.BadgerPath)
	cfg.JWTSecret = utils.SafeEnv("STACKIT_JWT_SECRET", cfg.JWTSecret)
	pageSize, err := utils.SafeEnvInt("STACKIT_PAGE_SIZE", cfg.PageSize)
	if err != nil {
		return Config{}, fmt.Errorf("invalid environment: %w", err)
	}
	cfg.PageSize = pageSize
	cfg.StaticDir = utils.SafeEnv("STACKIT_STATIC_DIR", cfg.StaticDir)
	cfg.CORSOrigins = utils.SafeEnvList("STACKIT_CORS_ORIGINS", cfg.CORSOrigins)
	cfg.LogLevel = utils.SafeEnv("STACKIT_LOG_LEVEL", cfg.LogLevel)
	cfg.Commit = utils.SafeEnv("STACKIT_COMMIT", "")
	cfg.BuildTime = utils.SafeEnv("STACKIT_BUILD_TIME", "")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return errors.New("sqlite_path is required for the sqlite store")
		}
	case StoreBadger:
		if c.BadgerPath == "" {
			return errors.New("badger_path is required for the badger store")
		}
	default:
		return fmt.Errorf("unknown store %q (want memory, sqlite or badger)", c.Store)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	return nil
}
