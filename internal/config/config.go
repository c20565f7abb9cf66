package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. QUICKSSH_CODEC_KEY_ONE.
const EnvPrefix = "QUICKSSH"

// Config defines application configuration.
type Config struct {
	Codec     CodecConfig     `yaml:"codec"`
	Store     StoreConfig     `yaml:"store"`
	DB        DBConfig        `yaml:"db"`
	Launcher  LauncherConfig  `yaml:"launcher"`
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	Watch     WatchConfig     `yaml:"watch"`
	Log       LogConfig       `yaml:"log"`
}

// CodecConfig holds the password obfuscation key material.
type CodecConfig struct {
	KeyOne int64  `yaml:"key_one" split_words:"true"`
	KeyTwo string `yaml:"key_two" split_words:"true"`
	Radix  int64  `yaml:"radix"`
}

type StoreConfig struct {
	Backend      string `yaml:"backend"` // "file" or "sqlite"
	SessionsPath string `yaml:"sessions_path" split_words:"true"`
	MenuPath     string `yaml:"menu_path" split_words:"true"`
	Format       string `yaml:"format"`
	Name         string `yaml:"name"` // document name in the sqlite backend
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LauncherConfig struct {
	Command string `yaml:"command"`
	DryRun  bool   `yaml:"dry_run" split_words:"true"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // "stdio" or "http"
}

type AuthConfig struct {
	Token string `yaml:"token"`
}

type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration. It carries no key material,
// so it does not validate until codec.key_one is set.
func Default() Config {
	return Config{
		Codec: CodecConfig{
			Radix: 1114159,
		},
		Store: StoreConfig{
			Backend:      "file",
			SessionsPath: "sessions.json",
			MenuPath:     "Main.sublime-menu",
			Format:       "json",
			Name:         "sessions",
		},
		DB: DBConfig{
			Path: "quickssh.db",
		},
		Launcher: LauncherConfig{
			Command: "putty",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		Watch: WatchConfig{
			Debounce: 150 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from defaults, an optional YAML file and
// environment variables, in that order. An empty path falls back to
// QUICKSSH_CONFIG_PATH.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks key material and enumerated values.
func (c Config) Validate() error {
	var errs []error
	if c.Codec.KeyOne <= 0 {
		errs = append(errs, fmt.Errorf("codec.key_one must be a positive integer, got %d", c.Codec.KeyOne))
	}
	if c.Codec.Radix <= 0 {
		errs = append(errs, fmt.Errorf("codec.radix must be positive, got %d", c.Codec.Radix))
	}
	switch c.Store.Backend {
	case "file":
		if c.Store.SessionsPath == "" {
			errs = append(errs, errors.New("store.sessions_path is required for the file backend"))
		}
	case "sqlite":
		if c.DB.Path == "" || c.Store.Name == "" {
			errs = append(errs, errors.New("db.path and store.name are required for the sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend must be file or sqlite, got %q", c.Store.Backend))
	}
	switch strings.ToLower(c.Store.Format) {
	case "", "json", "yaml", "yml":
	default:
		errs = append(errs, fmt.Errorf("store.format must be json or yaml, got %q", c.Store.Format))
	}
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		errs = append(errs, fmt.Errorf("transport.mode must be stdio or http, got %q", c.Transport.Mode))
	}
	if c.Transport.Mode == "http" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	return errors.Join(errs...)
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
