// Package config loads vibedb settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vibesql/vibedb/internal/dbconn"
	"github.com/vibesql/vibedb/internal/server"
)

const (
	DefaultLogLevel     = "info"
	DefaultQueryTimeout = 5 * time.Second
)

// Config holds everything needed to open the connections and serve them.
type Config struct {
	Driver       string        `yaml:"driver"`
	ReadDSN      string        `yaml:"read_dsn"`
	WriteDSN     string        `yaml:"write_dsn"`
	LogLevel     string        `yaml:"log_level"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	Server       Server        `yaml:"server"`
}

type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Default returns a Config with every optional field filled in.
func Default() *Config {
	return &Config{
		LogLevel:     DefaultLogLevel,
		QueryTimeout: DefaultQueryTimeout,
		Server: Server{
			Host: server.DefaultHost,
			Port: server.DefaultPort,
		},
	}
}

// Load reads path (skipped when empty) on top of the defaults and then
// applies the environment. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := []struct {
		name string
		dst  *string
	}{
		{"VIBEDB_DRIVER", &c.Driver},
		{"VIBEDB_READ_DSN", &c.ReadDSN},
		{"VIBEDB_WRITE_DSN", &c.WriteDSN},
		{"VIBEDB_LOG_LEVEL", &c.LogLevel},
		{"VIBE_BIND_HOST", &c.Server.Host},
	}
	for _, s := range strs {
		if v, ok := lookup(s.name); ok && v != "" {
			*s.dst = v
		}
	}

	if v, ok := lookup("VIBEDB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: VIBEDB_PORT: %w", err)
		}
		c.Server.Port = port
	}

	if v, ok := lookup("VIBEDB_QUERY_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: VIBEDB_QUERY_TIMEOUT: %w", err)
		}
		c.QueryTimeout = d
	}
	return nil
}

// Dialect returns the placeholder dialect of the configured driver.
func (c *Config) Dialect() (dbconn.Dialect, error) {
	return dbconn.ParseDialect(c.Driver)
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.Driver == "" {
		return errors.New("config: driver is required")
	}
	if _, err := c.Dialect(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.ReadDSN == "" {
		return errors.New("config: read_dsn is required")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	if c.QueryTimeout < 0 {
		return fmt.Errorf("config: negative query_timeout %s", c.QueryTimeout)
	}
	return nil
}

// SharedWrite reports whether writes go through the read connection.
func (c *Config) SharedWrite() bool {
	return c.WriteDSN == "" || c.WriteDSN == c.ReadDSN
}
