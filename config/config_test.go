package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwantia/dfs/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()

	assert.Equal(t, 60*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 2*time.Second, cfg.Network.ConnectTimeout)
	assert.Equal(t, 8020, cfg.Protocol(ProtocolHDFS).StandardPort)
	assert.Equal(t, 20000, cfg.Protocol(ProtocolQFS).StandardPort)
	assert.Equal(t, data.Permissions(0664), cfg.Protocol(ProtocolQFS).Permissions(0))
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dfs.yaml")
	content := `
log:
  level: debug
cache:
  ttl: 5s
protocols:
  qfs:
    module_dir: /opt/qfs
    standard_port: 20001
    default_permissions: "0600"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := NewDefault()
	require.NoError(t, cfg.LoadFromFile(path))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "/opt/qfs", cfg.Protocol(ProtocolQFS).ModuleDir)
	assert.Equal(t, 20001, cfg.Protocol(ProtocolQFS).StandardPort)
	assert.Equal(t, data.Permissions(0600), cfg.Protocol(ProtocolQFS).Permissions(0664))
	assert.Equal(t, 8020, cfg.Protocol(ProtocolHDFS).StandardPort)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DFS_CACHE_TTL", "250ms")
	t.Setenv("DFS_HDFS_MODULE_DIR", "/tmp/hdfs-modules")

	cfg := NewDefault()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 250*time.Millisecond, cfg.Cache.TTL)
	assert.Equal(t, "/tmp/hdfs-modules", cfg.Protocol(ProtocolHDFS).ModuleDir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Configuration)
	}{
		{"invalid log level", func(c *Configuration) { c.Log.Level = "loud" }},
		{"negative ttl", func(c *Configuration) { c.Cache.TTL = -time.Second }},
		{"zero connect timeout", func(c *Configuration) { c.Network.ConnectTimeout = 0 }},
		{"invalid port", func(c *Configuration) { c.Protocols[ProtocolHDFS].StandardPort = 70000 }},
		{"invalid permissions", func(c *Configuration) { c.Protocols[ProtocolQFS].DefaultPermissions = "0999" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestProtocolFallback(t *testing.T) {
	cfg := &Configuration{}

	assert.Equal(t, 8020, cfg.Protocol(ProtocolHDFS).StandardPort)
	assert.NotNil(t, cfg.Protocol("unknown").Properties)
}
