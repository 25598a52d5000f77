package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Default()
	cfg.Input.PGN = "games.pgn"
	return cfg
}

func TestDefaultNeedsAnInput(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Validate())
	assert.NoError(t, cfg.ValidateServer())

	cfg = validConfig()
	assert.NoError(t, cfg.Validate())
	cfg.Input.PGN = ""
	cfg.Input.Username = "alice"
	assert.NoError(t, cfg.Validate())
}

func TestDecodeOverridesDefaults(t *testing.T) {
	cfg := Default()
	err := Decode([]byte(`
input:
  username: alice
  from: 2024-01
  to: 2024-03
parse:
  policy: skip
engine:
  enabled: true
  move_time: 250ms
  workers: 3
output:
  database: runs.db
  wal: true
`), &cfg)
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.Input.Username)
	assert.Equal(t, "2024-01", cfg.Input.From)
	assert.Equal(t, "skip", cfg.Parse.Policy)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.MoveTime)
	assert.Equal(t, 3, cfg.Engine.Workers)
	assert.True(t, cfg.Output.WAL)
	// untouched keys keep their defaults
	assert.Equal(t, 18, cfg.Engine.Depth)
	assert.Equal(t, "data", cfg.Output.Dir)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.NoError(t, cfg.Validate())
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	cfg := Default()
	err := Decode([]byte("engine:\n  dept: 12\n"), &cfg)
	assert.Error(t, err)
}

func TestDecodeEmptyDocument(t *testing.T) {
	cfg := Default()
	require.NoError(t, Decode(nil, &cfg))
	assert.Equal(t, Default(), cfg)
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "chesspipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input:\n  pgn: x.pgn\nserver:\n  port: 9000\n"), 0644))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "x.pgn", cfg.Input.PGN)
	assert.Equal(t, 9000, cfg.Server.Port)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad policy", func(c *Config) { c.Parse.Policy = "ignore" }},
		{"bad period", func(c *Config) { c.Input.From = "2024-13" }},
		{"reversed range", func(c *Config) { c.Input.From, c.Input.To = "2024-05", "2024-01" }},
		{"bad base url", func(c *Config) { c.Input.BaseURL = "not a url" }},
		{"too many workers", func(c *Config) { c.Engine.Workers = 65 }},
		{"no workers", func(c *Config) { c.Engine.Workers = 0 }},
		{"engine without limit", func(c *Config) {
			c.Engine.Enabled = true
			c.Engine.Depth = 0
			c.Engine.MoveTime = 0
		}},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateServerIgnoresPipelineSettings(t *testing.T) {
	cfg := Default()
	cfg.Parse.Policy = "bogus"
	assert.NoError(t, cfg.ValidateServer())
	cfg.Server.Host = ""
	assert.Error(t, cfg.ValidateServer())
}
