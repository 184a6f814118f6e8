package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/scharissis/coh3-replay-analyser/internal/filter"
)

// Environment variables that override file and default values.
const (
	EnvConfig    = "COH3_CONFIG"
	EnvDataDir   = "COH3_DATA_DIR"
	EnvDBPath    = "COH3_DB_PATH"
	EnvListen    = "COH3_LISTEN"
	EnvFilter    = "COH3_FILTER"
	EnvLogLevel  = "COH3_LOG_LEVEL"
	EnvLogFormat = "COH3_LOG_FORMAT"
)

type Config struct {
	// DataDir holds units.json, buildings.json and abilities.json. Empty means
	// the built-in lookup table.
	DataDir          string        `yaml:"data_dir"`
	DBPath           string        `yaml:"db_path" validate:"required"`
	Listen           string        `yaml:"listen" validate:"required,hostname_port"`
	Filter           string        `yaml:"filter" validate:"filter_preset"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes" validate:"gt=0"`
	RequestTimeout   time.Duration `yaml:"request_timeout" validate:"gt=0"`
	ArchiveRetention time.Duration `yaml:"archive_retention" validate:"gte=0"`
	Log              LogConfig     `yaml:"log"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

func DefaultConfig() Config {
	return Config{
		DBPath:           defaultDBPath(),
		Listen:           "127.0.0.1:8080",
		Filter:           filter.PresetBuild,
		MaxUploadBytes:   32 << 20,
		RequestTimeout:   30 * time.Second,
		ArchiveRetention: 30 * 24 * time.Hour,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (or $COH3_CONFIG when path is empty), then non-empty environment
// overrides.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	for _, o := range []struct {
		key string
		dst *string
	}{
		{EnvDataDir, &cfg.DataDir},
		{EnvDBPath, &cfg.DBPath},
		{EnvListen, &cfg.Listen},
		{EnvFilter, &cfg.Filter},
		{EnvLogLevel, &cfg.Log.Level},
		{EnvLogFormat, &cfg.Log.Format},
	} {
		if v := strings.TrimSpace(os.Getenv(o.key)); v != "" {
			*o.dst = v
		}
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
}

// LoadDotEnv loads the given .env files into the process environment. Missing
// files are skipped and variables already set are left alone.
func LoadDotEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat %s: %w", p, err)
		}
		existing = append(existing, p)
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Policy resolves the configured filter preset.
func (c Config) Policy() (filter.Policy, error) {
	return filter.Named(c.Filter)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("filter_preset", validateFilterPreset) //nolint:errcheck
	return v
}

func validateFilterPreset(fl validator.FieldLevel) bool {
	_, err := filter.Named(fl.Field().String())
	return err == nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "coh3-reports.db"
	}
	return filepath.Join(home, ".local", "state", "coh3-replay-analyser", "reports.db")
}
