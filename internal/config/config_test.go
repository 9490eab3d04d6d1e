// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifest = `
contexts:
  - name: render
    devices: [gpu0, gpu1]
    max_queues: 4
  - name: compute
    devices: [acc0]
queue:
  capacity: 256
  compact: true
  property_toggling: true
logging:
  level: debug
  pretty: false
metrics:
  addr: 127.0.0.1:9464
`

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadManifest(t *testing.T) {
	cfg, err := Load(writeManifest(t, manifest))
	require.NoError(t, err)

	require.Len(t, cfg.Contexts, 2)
	assert.Equal(t, "render", cfg.Contexts[0].Name)
	assert.Equal(t, []string{"gpu0", "gpu1"}, cfg.Contexts[0].Devices)
	assert.Equal(t, 4, cfg.Contexts[0].MaxQueues)
	assert.Equal(t, []string{"acc0"}, cfg.Contexts[1].Devices)
	assert.Equal(t, 256, cfg.Queue.Capacity)
	assert.True(t, cfg.Queue.Compact)
	assert.True(t, cfg.Queue.PropertyToggling)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Pretty)
	assert.Equal(t, "127.0.0.1:9464", cfg.Metrics.Addr)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CLQ_LOGGING_LEVEL", "warn")
	cfg, err := Load(writeManifest(t, manifest))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadKeepsDefaultsForMissingSections(t *testing.T) {
	cfg, err := Load(writeManifest(t, "contexts:\n  - name: only\n    devices: [d]\n"))
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Queue.Capacity)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load(writeManifest(t, "contexts:\n  - name: a\n    devices: []\nqueue:\n  capacity: 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one device")
	assert.Contains(t, err.Error(), "queue.capacity")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no contexts", func(c *Config) { c.Contexts = nil }, "at least one context"},
		{"unnamed context", func(c *Config) { c.Contexts[0].Name = "" }, "name is required"},
		{"duplicate context", func(c *Config) {
			c.Contexts = append(c.Contexts, c.Contexts[0])
		}, "duplicate name"},
		{"duplicate device", func(c *Config) {
			c.Contexts[0].Devices = []string{"d", "d"}
		}, "duplicate device"},
		{"negative max queues", func(c *Config) { c.Contexts[0].MaxQueues = -1 }, "max_queues"},
		{"capacity too large", func(c *Config) { c.Queue.Capacity = 1 << 30 }, "queue.capacity"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clq.yaml")
	cfg := DefaultConfig()
	cfg.Queue.Compact = true
	require.NoError(t, Save(path, cfg, false))

	assert.Error(t, Save(path, cfg, false), "existing file must not be overwritten")
	assert.NoError(t, Save(path, cfg, true))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
