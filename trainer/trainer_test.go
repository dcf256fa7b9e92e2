package trainer

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mathext/prng"

	"github.com/rushteam/deltr/core"
	"github.com/rushteam/deltr/dataset"
	"github.com/rushteam/deltr/metrics"
)

// TestConfigValidate 测试超参数校验
func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative gamma", func(c *Config) { c.Gamma = -1 }},
		{"zero iterations", func(c *Config) { c.Iterations = 0 }},
		{"zero learning rate", func(c *Config) { c.LearningRate = 0 }},
		{"negative lambda", func(c *Config) { c.Lambda = -0.1 }},
		{"negative init var", func(c *Config) { c.InitVar = -1 }},
		{"infinite gamma", func(c *Config) { c.Gamma = math.Inf(1) }},
		{"nan learning rate", func(c *Config) { c.LearningRate = math.NaN() }},
		{"infinite learning rate", func(c *Config) { c.LearningRate = math.Inf(1) }},
		{"nan lambda", func(c *Config) { c.Lambda = math.NaN() }},
		{"infinite lambda", func(c *Config) { c.Lambda = math.Inf(1) }},
		{"nan init var", func(c *Config) { c.InitVar = math.NaN() }},
		{"infinite init var", func(c *Config) { c.InitVar = math.Inf(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			_, err := New(cfg)
			require.Error(t, err)
			assert.True(t, core.IsInvalidInput(err))
		})
	}
	assert.NoError(t, DefaultConfig().Validate())
}

// TestTrainErrors 测试非法训练数据
func TestTrainErrors(t *testing.T) {
	tr, err := New(DefaultConfig())
	require.NoError(t, err)
	ctx := context.Background()

	err = tr.Train(ctx, nil)
	assert.True(t, core.IsInvalidInput(err))

	err = tr.Train(ctx, []*core.Group{core.NewGroup(1, core.NewItem(1, 1, true, 1, 0.5))})
	assert.True(t, core.IsInvalidInput(err), "single item: %v", err)

	err = tr.Train(ctx, []*core.Group{
		core.NewGroup(1, core.NewItem(1, 1, true, 1, 0.5)),
		core.NewGroup(2, core.NewItem(2, 1, false, 0)),
	})
	assert.True(t, core.IsDimensionMismatch(err))

	_, ok := tr.Weights()
	assert.False(t, ok)
	assert.Empty(t, tr.Log())
}

// TestTrainCancel 测试 context 取消
func TestTrainCancel(t *testing.T) {
	tr, err := New(DefaultConfig())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = tr.Train(ctx, fixtureGroups())
	assert.True(t, errors.Is(err, context.Canceled))
	_, ok := tr.Weights()
	assert.False(t, ok)
}

// TestTrainCostDecreases 测试小学习率下总损失单调不增，且日志条数等于迭代次数
func TestTrainCostDecreases(t *testing.T) {
	for _, gamma := range []float64{0, 1} {
		cfg := DefaultConfig()
		cfg.Gamma = gamma
		cfg.Iterations = 200
		cfg.LearningRate = 0.01
		cfg.Seed = 3
		tr, err := New(cfg)
		require.NoError(t, err)
		require.NoError(t, tr.Train(context.Background(), fixtureGroups()))

		log := tr.Log()
		require.Len(t, log, cfg.Iterations)
		for i := 1; i < len(log); i++ {
			assert.LessOrEqual(t, log[i].TotalCost, log[i-1].TotalCost+1e-12, "gamma=%v iteration %d", gamma, i)
		}
		assert.Less(t, log[len(log)-1].TotalCost, log[0].TotalCost)

		w, ok := tr.Weights()
		require.True(t, ok)
		assert.Len(t, w, 3)
	}
}

// TestTrainDeterministic 测试相同种子的训练结果一致，且与并发度无关
func TestTrainDeterministic(t *testing.T) {
	groups := dataset.NewSynthetic(6, 12, 3, 11).Generate()

	run := func(workers int) []float64 {
		cfg := DefaultConfig()
		cfg.Iterations = 30
		cfg.Seed = 99
		cfg.Workers = workers
		cfg.Standardize = true
		tr, err := New(cfg)
		require.NoError(t, err)
		require.NoError(t, tr.Train(context.Background(), groups))
		w, ok := tr.Weights()
		require.True(t, ok)
		return w
	}

	assert.Equal(t, run(1), run(1))
	assert.Equal(t, run(1), run(4))
}

// TestTrainInitialWeights 测试初始权重在 [0, InitVar) 内
func TestTrainInitialWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = 1
	cfg.InitVar = 0.5
	tr, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, tr.Train(context.Background(), fixtureGroups()))

	for _, w := range tr.Log()[0].Omega {
		assert.GreaterOrEqual(t, w, 0.0)
		assert.Less(t, w, 0.5)
	}
}

// TestTrainInitialWeightsSequence 测试初始权重来自以 Seed 初始化的 MT19937
func TestTrainInitialWeightsSequence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = 1
	cfg.Seed = 2024
	tr, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, tr.Train(context.Background(), fixtureGroups()))

	src := prng.NewMT19937()
	src.Seed(2024)
	r := rand.New(src)
	omega := tr.Log()[0].Omega
	for i := range omega {
		assert.Equal(t, r.Float64()*cfg.InitVar, omega[i], "omega[%d]", i)
	}
}

// TestTrainFavoursProtected 测试两个 Item 的场景：保护组的权重被推高
func TestTrainFavoursProtected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = 10
	tr, err := New(cfg)
	require.NoError(t, err)

	groups := []*core.Group{core.NewGroup(1,
		core.NewItem(1, 1.0, true, 1, 0.962650646167003),
		core.NewItem(2, 0.98, false, 0, 0.940172822166108),
	)}
	require.NoError(t, tr.Train(context.Background(), groups))

	w, ok := tr.Weights()
	require.True(t, ok)
	log := tr.Log()
	assert.Greater(t, w[0], log[0].Omega[0])
	assert.Greater(t, w[0], 0.0)
	for _, step := range log {
		assert.Equal(t, 0.0, step.LossExposure)
	}
}

// TestTrainLogIsCopy 测试 Log 返回副本，且每次 Train 重置日志
func TestTrainLogIsCopy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = 5
	tr, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, tr.Train(context.Background(), fixtureGroups()))

	log := tr.Log()
	log[0] = TrainStep{}
	assert.NotZero(t, tr.Log()[0].TotalCost)

	// 修改返回记录内部的切片与矩阵，不影响 Trainer 持有的日志
	before := tr.Log()[0]
	log = tr.Log()
	log[0].Cost[0] = 12345
	log[0].QueryCost[0] = 12345
	log[0].ExposureGaps[0] = 12345
	log[0].QueryIDs[0] = -1
	log[0].Omega[0] = 777
	log[0].Grad.Set(0, 0, 999)
	after := tr.Log()[0]
	assert.Equal(t, before.Cost, after.Cost)
	assert.Equal(t, before.QueryCost, after.QueryCost)
	assert.Equal(t, before.ExposureGaps, after.ExposureGaps)
	assert.Equal(t, before.QueryIDs, after.QueryIDs)
	assert.Equal(t, before.Omega, after.Omega)
	assert.Equal(t, before.Grad.At(0, 0), after.Grad.At(0, 0))
	assert.NotEqual(t, 999.0, after.Grad.At(0, 0))

	require.NoError(t, tr.Train(context.Background(), fixtureGroups()))
	assert.Len(t, tr.Log(), 5)
}

// TestTrainStandardize 测试标准化参数被保存，且保护列不变
func TestTrainStandardize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = 2
	cfg.Standardize = true
	tr, err := New(cfg)
	require.NoError(t, err)
	groups := fixtureGroups()
	require.NoError(t, tr.Train(context.Background(), groups))

	std := tr.Standardizer()
	require.NotNil(t, std)
	assert.Greater(t, std.Std, 0.0)
	assert.Equal(t, 0, std.ProtectedIndex)
	// 输入数据不被修改
	assert.Equal(t, []float64{0, 0.9, 0.8}, groups[0].Items[0].Features)
}

// TestTrainMetrics 测试训练指标
func TestTrainMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	cfg := DefaultConfig()
	cfg.Iterations = 7
	tr, err := New(cfg, WithMetrics(m))
	require.NoError(t, err)
	require.NoError(t, tr.Train(context.Background(), fixtureGroups()))

	assert.Equal(t, 7.0, testutil.ToFloat64(m.TrainIterationsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TrainRunsTotal.WithLabelValues("ok")))

	_ = tr.Train(context.Background(), nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TrainRunsTotal.WithLabelValues("error")))
}
