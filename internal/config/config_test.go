package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibesql/vibedb/internal/dbconn"
	"github.com/vibesql/vibedb/internal/server"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vibedb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, server.DefaultHost, cfg.Server.Host)
	assert.Equal(t, server.DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultQueryTimeout, cfg.QueryTimeout)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
driver: postgres
read_dsn: postgres://replica/app
write_dsn: postgres://primary/app
log_level: debug
query_timeout: 2s
server:
  port: 8080
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, "postgres://replica/app", cfg.ReadDSN)
	assert.Equal(t, "postgres://primary/app", cfg.WriteDSN)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, server.DefaultHost, cfg.Server.Host)
	assert.False(t, cfg.SharedWrite())

	d, err := cfg.Dialect()
	require.NoError(t, err)
	assert.Equal(t, dbconn.Postgres, d)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "driver: postgres\nread_dsn: postgres://replica/app\n")

	t.Setenv("VIBEDB_DRIVER", "sqlite")
	t.Setenv("VIBEDB_READ_DSN", ":memory:")
	t.Setenv("VIBE_BIND_HOST", "0.0.0.0")
	t.Setenv("VIBEDB_PORT", "9000")
	t.Setenv("VIBEDB_QUERY_TIMEOUT", "250ms")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Driver)
	assert.Equal(t, ":memory:", cfg.ReadDSN)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.QueryTimeout)
	assert.True(t, cfg.SharedWrite())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "server: [1, 2"))
	assert.Error(t, err)

	t.Setenv("VIBEDB_PORT", "http")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Driver = "sqlite"
		cfg.ReadDSN = ":memory:"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing driver", func(c *Config) { c.Driver = "" }, true},
		{"unknown driver", func(c *Config) { c.Driver = "mysql" }, true},
		{"missing read dsn", func(c *Config) { c.ReadDSN = "" }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"negative timeout", func(c *Config) { c.QueryTimeout = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
