package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr      = ":8080"
	defaultDBPath          = "stash.db"
	defaultMailboxCapacity = 32
	defaultPolicy          = "parity"
	defaultTaskUnit        = time.Second
	defaultNATSPrefix      = "stash"

	// EnvConfigPath names the YAML file read before the environment.
	EnvConfigPath = "STASH_CONFIG"

	envListenAddr      = "STASH_LISTEN_ADDR"
	envDBPath          = "STASH_DB_PATH"
	envLogLevel        = "STASH_LOG_LEVEL"
	envMailboxCapacity = "STASH_MAILBOX_CAPACITY"
	envPolicy          = "STASH_POLICY"
	envTaskUnit        = "STASH_TASK_UNIT"
	envNATSURL         = "STASH_NATS_URL"
	envNATSPrefix      = "STASH_NATS_PREFIX"
)

// Config holds application configuration.
type Config struct {
	ListenAddr      string
	DBPath          string
	LogLevel        slog.Level
	MailboxCapacity int
	Policy          string
	TaskUnit        time.Duration
	NATSURL         string
	NATSPrefix      string
}

// fileConfig mirrors Config as it appears in YAML. Absent keys stay nil and
// leave the default in place.
type fileConfig struct {
	ListenAddr      *string `yaml:"listen_addr"`
	DBPath          *string `yaml:"db_path"`
	LogLevel        *string `yaml:"log_level"`
	MailboxCapacity *int    `yaml:"mailbox_capacity"`
	Policy          *string `yaml:"policy"`
	TaskUnit        *string `yaml:"task_unit"`
	NATSURL         *string `yaml:"nats_url"`
	NATSPrefix      *string `yaml:"nats_prefix"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:      defaultListenAddr,
		DBPath:          defaultDBPath,
		LogLevel:        slog.LevelInfo,
		MailboxCapacity: defaultMailboxCapacity,
		Policy:          defaultPolicy,
		TaskUnit:        defaultTaskUnit,
		NATSPrefix:      defaultNATSPrefix,
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		fc, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := fc.apply(&cfg); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the actor cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.MailboxCapacity <= 0 {
		errs = append(errs, fmt.Errorf("mailbox capacity must be positive, got %d", c.MailboxCapacity))
	}
	if c.TaskUnit <= 0 {
		errs = append(errs, fmt.Errorf("task unit must be positive, got %s", c.TaskUnit))
	}
	if c.Policy == "" {
		errs = append(errs, errors.New("policy must not be empty"))
	}
	return errors.Join(errs...)
}

func readFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &fc, nil
}

func (fc *fileConfig) apply(cfg *Config) error {
	if fc.ListenAddr != nil {
		cfg.ListenAddr = *fc.ListenAddr
	}
	if fc.DBPath != nil {
		cfg.DBPath = *fc.DBPath
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = parseLogLevel(*fc.LogLevel)
	}
	if fc.MailboxCapacity != nil {
		cfg.MailboxCapacity = *fc.MailboxCapacity
	}
	if fc.Policy != nil {
		cfg.Policy = *fc.Policy
	}
	if fc.TaskUnit != nil {
		d, err := time.ParseDuration(*fc.TaskUnit)
		if err != nil {
			return fmt.Errorf("task_unit: %w", err)
		}
		cfg.TaskUnit = d
	}
	if fc.NATSURL != nil {
		cfg.NATSURL = *fc.NATSURL
	}
	if fc.NATSPrefix != nil {
		cfg.NATSPrefix = *fc.NATSPrefix
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(envListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	if v := os.Getenv(envMailboxCapacity); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envMailboxCapacity, err)
		}
		cfg.MailboxCapacity = n
	}
	if v := os.Getenv(envPolicy); v != "" {
		cfg.Policy = v
	}
	if v := os.Getenv(envTaskUnit); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envTaskUnit, err)
		}
		cfg.TaskUnit = d
	}
	if v := os.Getenv(envNATSURL); v != "" {
		cfg.NATSURL = v
	}
	if v := os.Getenv(envNATSPrefix); v != "" {
		cfg.NATSPrefix = v
	}
	return nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured JSON logger writing to w. Passing an
// *slog.LevelVar lets the level change while the process runs.
func NewLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
