package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override (TASKBOARD_SERVER_ADDR, ...).
const EnvPrefix = "TASKBOARD"

// ServerConfig holds settings for the HTTP API server.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// DatabaseConfig selects the relational store.
type DatabaseConfig struct {
	// DSN is either a SQLite file path (or ":memory:") or a
	// postgres:// connection URL.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// ClientConfig holds settings for the board and CLI clients.
type ClientConfig struct {
	// BaseURL is the root URL of the API server.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Author is the name attached to comments posted from this machine.
	Author string `mapstructure:"author" yaml:"author"`
}

// PollConfig holds the polling intervals.
type PollConfig struct {
	// CommentIntervalSec is how often each change request's comments are refreshed.
	CommentIntervalSec int `mapstructure:"comment_interval_sec" yaml:"comment_interval_sec"`

	// UnreadIntervalSec is how often the aggregate unread count is refreshed
	// outside the change request board.
	UnreadIntervalSec int `mapstructure:"unread_interval_sec" yaml:"unread_interval_sec"`
}

// StorageConfig locates durable local key-value storage (read state,
// notification permission).
type StorageConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`

	// File receives log output when set; otherwise logs go to stderr.
	File string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Client   ClientConfig   `mapstructure:"client" yaml:"client"`
	Poll     PollConfig     `mapstructure:"poll" yaml:"poll"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// CommentInterval returns the per-request comment poll interval.
func (c *AppConfig) CommentInterval() time.Duration {
	return secondsOr(c.Poll.CommentIntervalSec, 4)
}

// UnreadInterval returns the aggregate unread poll interval.
func (c *AppConfig) UnreadInterval() time.Duration {
	return secondsOr(c.Poll.UnreadIntervalSec, 6)
}

func secondsOr(sec, fallback int) time.Duration {
	if sec <= 0 {
		sec = fallback
	}
	return time.Duration(sec) * time.Second
}

// ConfigDir returns ~/.config/taskboard, falling back to the working
// directory when the home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "taskboard")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskboard/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{DSN: filepath.Join(dir, "taskboard.db")},
		Client:   ClientConfig{BaseURL: "http://localhost:8080"},
		Poll: PollConfig{
			CommentIntervalSec: 4,
			UnreadIntervalSec:  6,
		},
		Storage: StorageConfig{Dir: filepath.Join(dir, "storage")},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// newViper returns a viper instance with defaults and environment
// overrides registered.
func newViper(path string) *viper.Viper {
	d := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("client.base_url", d.Client.BaseURL)
	v.SetDefault("client.author", d.Client.Author)
	v.SetDefault("poll.comment_interval_sec", d.Poll.CommentIntervalSec)
	v.SetDefault("poll.unread_interval_sec", d.Poll.UnreadIntervalSec)
	v.SetDefault("storage.dir", d.Storage.Dir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// DATABASE_URL is honoured for compatibility with hosted Postgres setups.
	_ = v.BindEnv("database.dsn", EnvPrefix+"_DATABASE_DSN", "DATABASE_URL")

	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults (plus environment overrides) are used.
func LoadConfig(path string) (*AppConfig, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.Database.DSN = expandHome(cfg.Database.DSN)
	cfg.Storage.Dir = expandHome(cfg.Storage.Dir)
	cfg.Log.File = expandHome(cfg.Log.File)

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("database", cfg.Database)
	v.Set("client", cfg.Client)
	v.Set("poll", cfg.Poll)
	v.Set("storage", cfg.Storage)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
