package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/deltr/core"
	"github.com/rushteam/deltr/trainer"
)

// TestLoadDefaults 测试不指定文件时使用默认值
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, trainer.DefaultConfig(), cfg.TrainerConfig())
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Metrics.Enabled)
}

// TestLoadFileAndEnv 测试 YAML 文件与环境变量覆盖
func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deltr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
trainer:
  gamma: 2
  iterations: 50
  standardize: true
  seed: 7
store:
  backend: redis
  addr: redis:6379
  ttl: 1h
logging:
  level: debug
  format: json
`), 0o644))

	t.Setenv("DELTR_TRAINER_LEARNING_RATE", "0.01")
	t.Setenv("DELTR_STORE_KEY_PREFIX", "x:")
	t.Setenv("DELTR_METRICS_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	tc := cfg.TrainerConfig()
	assert.Equal(t, 2.0, tc.Gamma)
	assert.Equal(t, 50, tc.Iterations)
	assert.Equal(t, 0.01, tc.LearningRate)
	assert.Equal(t, core.DefaultLambda, tc.Lambda)
	assert.True(t, tc.Standardize)
	assert.Equal(t, uint64(7), tc.Seed)

	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "redis:6379", cfg.Store.Addr)
	assert.Equal(t, "x:", cfg.Store.KeyPrefix)
	assert.Equal(t, time.Hour, cfg.Store.TTL)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
}

// TestLoadInvalid 测试非法配置
func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative gamma", "trainer:\n  gamma: -1\n"},
		{"zero iterations", "trainer:\n  iterations: 0\n"},
		{"unknown backend", "store:\n  backend: etcd\n"},
		{"bad format", "logging:\n  format: xml\n"},
		{"bad yaml", "trainer: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "deltr.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
