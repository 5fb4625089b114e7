// Package config loads the static honeypot configuration from defaults,
// an optional honeypot.yaml, an optional .env file and HONEYPOT_* variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/l3montree-dev/lowpot/packages/types"
	"github.com/spf13/viper"
)

// ServiceConfig binds one emulated protocol to one TCP port.
type ServiceConfig struct {
	Port     int           `mapstructure:"port"`
	Protocol types.Service `mapstructure:"protocol"`
}

type StatsConfig struct {
	// Addr of the local stats endpoint. Empty disables it.
	Addr       string        `mapstructure:"addr"`
	Retention  time.Duration `mapstructure:"retention"`
	MaxEntries int           `mapstructure:"max_entries"`
}

type Config struct {
	BindAddress string          `mapstructure:"bind_address"`
	Services    []ServiceConfig `mapstructure:"services"`
	LogFile     string          `mapstructure:"log_file"`
	LogDir      string          `mapstructure:"log_dir"`
	LogLevel    string          `mapstructure:"log_level"`
	ReadSize    int             `mapstructure:"read_size"`
	// IdleTimeout bounds every read. Zero means no timeout.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// MaxConns caps concurrent connections per listener. Zero means unbounded.
	MaxConns int         `mapstructure:"max_conns"`
	Stats    StatsConfig `mapstructure:"stats"`
}

func DefaultServices() []ServiceConfig {
	return []ServiceConfig{
		{Port: 2222, Protocol: types.ServiceSSH},
		{Port: 8080, Protocol: types.ServiceHTTP},
		{Port: 2121, Protocol: types.ServiceFTP},
	}
}

func Default() *Config {
	return &Config{
		BindAddress: "0.0.0.0",
		Services:    DefaultServices(),
		LogFile:     "honeypot.log",
		LogDir:      "logs",
		LogLevel:    "debug",
		ReadSize:    1024,
		Stats: StatsConfig{
			Retention:  24 * time.Hour,
			MaxEntries: 10000,
		},
	}
}

// Load reads the configuration. A missing .env or config file is not an error.
func Load(dir string) (*Config, error) {
	envFile := ".env"
	if dir != "" {
		envFile = dir + "/.env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	v := viper.New()
	def := Default()
	v.SetDefault("bind_address", def.BindAddress)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("log_dir", def.LogDir)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("read_size", def.ReadSize)
	v.SetDefault("idle_timeout", def.IdleTimeout)
	v.SetDefault("max_conns", def.MaxConns)
	v.SetDefault("stats.addr", def.Stats.Addr)
	v.SetDefault("stats.retention", def.Stats.Retention)
	v.SetDefault("stats.max_entries", def.Stats.MaxEntries)

	v.SetConfigName("honeypot")
	v.SetConfigType("yaml")
	if dir == "" {
		dir = "."
	}
	v.AddConfigPath(dir)

	v.SetEnvPrefix("HONEYPOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	cfg := Default()
	// decoding into a populated slice would keep trailing defaults
	cfg.Services = nil
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if len(cfg.Services) == 0 {
		cfg.Services = DefaultServices()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes protocol names and rejects unusable entries.
func (c *Config) Validate() error {
	if len(c.Services) == 0 {
		return errors.New("no services configured")
	}
	for i, svc := range c.Services {
		if svc.Port < 1 || svc.Port > 65535 {
			return fmt.Errorf("services[%d]: invalid port %d", i, svc.Port)
		}
		protocol, err := types.ParseService(string(svc.Protocol))
		if err != nil {
			return fmt.Errorf("services[%d]: %w", i, err)
		}
		c.Services[i].Protocol = protocol
	}
	if c.ReadSize <= 0 {
		return fmt.Errorf("read_size must be positive, got %d", c.ReadSize)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("idle_timeout must not be negative, got %s", c.IdleTimeout)
	}
	if c.MaxConns < 0 {
		return fmt.Errorf("max_conns must not be negative, got %d", c.MaxConns)
	}
	if c.LogFile == "" {
		return errors.New("log_file must not be empty")
	}
	return nil
}

// ParseLevel maps log_level to a slog level, defaulting to debug.
func (c *Config) ParseLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}
