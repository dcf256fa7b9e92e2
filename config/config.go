// Package config 加载 deltr 命令行与服务的配置（YAML 文件 + DELTR_* 环境变量覆盖），
// 并维护配置驱动 Pipeline 所用的 Node 注册表。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/deltr/core"
	"github.com/rushteam/deltr/trainer"
)

// Config 是顶层配置。
type Config struct {
	Trainer  TrainerConfig `yaml:"trainer"`
	Store    StoreConfig   `yaml:"store"`
	Logging  LoggingConfig `yaml:"logging"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Pipeline string        `yaml:"pipeline"` // 可选：pipeline 配置路径（YAML 或 .json）
}

// TrainerConfig 对应 trainer.Config 的可配置部分。
type TrainerConfig struct {
	Gamma          float64 `yaml:"gamma"`
	Iterations     int     `yaml:"iterations"`
	LearningRate   float64 `yaml:"learningRate"`
	Lambda         float64 `yaml:"lambda"`
	InitVar        float64 `yaml:"initVar"`
	Standardize    bool    `yaml:"standardize"`
	ProtectedIndex int     `yaml:"protectedIndex"`
	Seed           uint64  `yaml:"seed"`
	Workers        int     `yaml:"workers"`
	LogEvery       int     `yaml:"logEvery"`
}

// StoreConfig 决定模型保存到哪里。
type StoreConfig struct {
	Backend   string        `yaml:"backend"` // memory / redis
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"keyPrefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Load 读取 YAML 配置（path 为空时只用默认值），再应用环境变量覆盖。
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default 返回默认配置。
func Default() *Config {
	tc := trainer.DefaultConfig()
	return &Config{
		Trainer: TrainerConfig{
			Gamma:          tc.Gamma,
			Iterations:     tc.Iterations,
			LearningRate:   tc.LearningRate,
			Lambda:         tc.Lambda,
			InitVar:        tc.InitVar,
			Standardize:    tc.Standardize,
			ProtectedIndex: tc.ProtectedIndex,
			LogEvery:       tc.LogEvery,
		},
		Store: StoreConfig{
			Backend:   "memory",
			Addr:      "localhost:6379",
			KeyPrefix: "deltr:model:",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}

// Validate 校验配置。
func (c *Config) Validate() error {
	if err := c.TrainerConfig().Validate(); err != nil {
		return err
	}
	switch c.Store.Backend {
	case "memory", "redis":
	default:
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput,
			fmt.Sprintf("unknown store backend %q", c.Store.Backend))
	}
	if c.Store.Backend == "redis" && c.Store.Addr == "" {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "redis store requires addr")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics enabled without addr")
	}
	return nil
}

// TrainerConfig 转换为 trainer.Config。
func (c *Config) TrainerConfig() trainer.Config {
	t := c.Trainer
	return trainer.Config{
		Gamma:          t.Gamma,
		Iterations:     t.Iterations,
		LearningRate:   t.LearningRate,
		Lambda:         t.Lambda,
		InitVar:        t.InitVar,
		Standardize:    t.Standardize,
		ProtectedIndex: t.ProtectedIndex,
		Seed:           t.Seed,
		Workers:        t.Workers,
		LogEvery:       t.LogEvery,
	}
}

// applyEnvOverrides reads DELTR_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	setFloat("DELTR_TRAINER_GAMMA", &cfg.Trainer.Gamma)
	setInt("DELTR_TRAINER_ITERATIONS", &cfg.Trainer.Iterations)
	setFloat("DELTR_TRAINER_LEARNING_RATE", &cfg.Trainer.LearningRate)
	setFloat("DELTR_TRAINER_LAMBDA", &cfg.Trainer.Lambda)
	setFloat("DELTR_TRAINER_INIT_VAR", &cfg.Trainer.InitVar)
	if v := os.Getenv("DELTR_TRAINER_STANDARDIZE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Trainer.Standardize = b
		}
	}
	setInt("DELTR_TRAINER_PROTECTED_INDEX", &cfg.Trainer.ProtectedIndex)
	if v := os.Getenv("DELTR_TRAINER_SEED"); v != "" {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Trainer.Seed = seed
		}
	}
	setInt("DELTR_TRAINER_WORKERS", &cfg.Trainer.Workers)

	if v := os.Getenv("DELTR_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("DELTR_STORE_ADDR"); v != "" {
		cfg.Store.Addr = v
	}
	if v := os.Getenv("DELTR_STORE_PASSWORD"); v != "" {
		cfg.Store.Password = v
	}
	setInt("DELTR_STORE_DB", &cfg.Store.DB)
	if v := os.Getenv("DELTR_STORE_KEY_PREFIX"); v != "" {
		cfg.Store.KeyPrefix = v
	}
	if v := os.Getenv("DELTR_STORE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Store.TTL = d
		}
	}

	if v := os.Getenv("DELTR_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DELTR_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("DELTR_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if v := os.Getenv("DELTR_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}

func setFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}
