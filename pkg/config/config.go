package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"

	// DefaultFileName is the config file looked up in the working directory
	// and in the home directory.
	DefaultFileName = "calc.toml"
)

type Config struct {
	Home   string       `mapstructure:"home" toml:"-"`
	Server ServerConfig `mapstructure:"server" toml:"server"`
	Log    LogConfig    `mapstructure:"log" toml:"log"`
	Usage  UsageConfig  `mapstructure:"usage" toml:"usage"`
}

type ServerConfig struct {
	Name      string `mapstructure:"name" toml:"name"`
	Version   string `mapstructure:"version" toml:"version"`
	Transport string `mapstructure:"transport" toml:"transport"`
	Addr      string `mapstructure:"addr" toml:"addr"`
}

type LogConfig struct {
	Name   string `mapstructure:"name" toml:"name"`
	Level  string `mapstructure:"level" toml:"level"`
	File   string `mapstructure:"file" toml:"file"`
	Stderr bool   `mapstructure:"stderr" toml:"stderr"`
}

// UsageConfig controls the SQLite invocation journal.
type UsageConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
	DBPath  string `mapstructure:"db_path" toml:"db_path"`
}

// Default returns the configuration used when no file or env var is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Name:      "add_integers",
			Version:   "1.0.0",
			Transport: TransportStdio,
			Addr:      "localhost:8080",
		},
		Log: LogConfig{
			Name:  "calc",
			Level: "info",
			File:  "mcp.log",
		},
		Usage: UsageConfig{
			DBPath: "./data/usage.db",
		},
	}
}

// Load reads configuration from configPath, or from ./calc.toml or
// ~/.calc/calc.toml when configPath is empty, then applies CALC_* env vars.
// A missing default file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	home := os.Getenv("CALC_HOME")
	if home == "" {
		home = "~/.calc"
	}
	home = expandHomePath(home)

	if configPath != "" {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path %s: %w", configPath, err)
		}
		v.SetConfigFile(absPath)
	} else if _, err := os.Stat(DefaultFileName); err == nil {
		abs, _ := filepath.Abs(DefaultFileName)
		v.SetConfigFile(abs)
	} else {
		v.SetConfigFile(filepath.Join(home, DefaultFileName))
	}

	setDefaults(v)
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if configPath != "" {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if config.Home == "" {
		config.Home = home
	}
	config.expandPaths()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.name", d.Server.Name)
	v.SetDefault("server.version", d.Server.Version)
	v.SetDefault("server.transport", d.Server.Transport)
	v.SetDefault("server.addr", d.Server.Addr)

	v.SetDefault("log.name", d.Log.Name)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.stderr", d.Log.Stderr)

	v.SetDefault("usage.enabled", d.Usage.Enabled)
	v.SetDefault("usage.db_path", d.Usage.DBPath)
}

func bindEnvVars(v *viper.Viper) {
	v.SetEnvPrefix("CALC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Name) == "" {
		return fmt.Errorf("server name cannot be empty")
	}

	switch c.Server.Transport {
	case TransportStdio:
	case TransportHTTP:
		if c.Server.Addr == "" {
			return fmt.Errorf("server addr is required for http transport")
		}
	default:
		return fmt.Errorf("invalid transport: %s (must be stdio or http)", c.Server.Transport)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}

	if c.Usage.Enabled && c.Usage.DBPath == "" {
		return fmt.Errorf("usage db_path cannot be empty when usage is enabled")
	}

	return nil
}

func (c *Config) expandPaths() {
	c.Home = expandHomePath(c.Home)
	c.Log.File = expandHomePath(c.Log.File)
	c.Usage.DBPath = expandHomePath(c.Usage.DBPath)
}

func expandHomePath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}

	return path
}
