// Package trainer 实现 DELTR（Disparate Exposure in Learning To Rank）训练：
// 以 listwise 排序损失加保护组曝光差惩罚为目标，用固定轮数的梯度下降学习线性打分权重。
package trainer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/deltr/core"
	"github.com/rushteam/deltr/dataset"
	"github.com/rushteam/deltr/feature"
	"github.com/rushteam/deltr/metrics"
)

// Config 是训练超参数。
type Config struct {
	Gamma          float64 // 公平性损失权重；0 表示关闭曝光约束
	Iterations     int     // 梯度下降迭代次数，固定执行，不提前停止
	LearningRate   float64
	Lambda         float64 // 预测分数上的 L2 系数，只计入 TrainStep.Objective
	InitVar        float64 // 每个权重从 U[0,1) * InitVar 初始化
	Standardize    bool    // 训练前做全局标准化
	ProtectedIndex int     // 保护属性所在的特征列，标准化时跳过；< 0 表示没有
	Seed           uint64  // 权重初始化的随机种子
	Workers        int     // 每轮迭代中并发计算 query 的 goroutine 数；<= 0 时取 GOMAXPROCS
	LogEvery       int     // 每隔多少轮输出一次 debug 日志；<= 0 不输出
}

// DefaultConfig 返回推荐的默认超参数。
func DefaultConfig() Config {
	return Config{
		Gamma:          core.DefaultGamma,
		Iterations:     core.DefaultIterations,
		LearningRate:   core.DefaultLearningRate,
		Lambda:         core.DefaultLambda,
		InitVar:        core.DefaultInitVar,
		ProtectedIndex: core.DefaultProtectedIndex,
		LogEvery:       100,
	}
}

// Validate 校验超参数。
func (c Config) Validate() error {
	switch {
	case c.Gamma < 0 || math.IsNaN(c.Gamma):
		return invalid("gamma must be >= 0, got %v", c.Gamma)
	case c.Iterations < 1:
		return invalid("iterations must be >= 1, got %d", c.Iterations)
	case math.IsInf(c.Gamma, 0):
		return invalid("gamma must be finite, got %v", c.Gamma)
	case !(c.LearningRate > 0) || math.IsInf(c.LearningRate, 0):
		return invalid("learning rate must be finite and > 0, got %v", c.LearningRate)
	case !(c.Lambda >= 0) || math.IsInf(c.Lambda, 0):
		return invalid("lambda must be finite and >= 0, got %v", c.Lambda)
	case !(c.InitVar >= 0) || math.IsInf(c.InitVar, 0):
		return invalid("init var must be finite and >= 0, got %v", c.InitVar)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return core.NewDomainError(core.ModuleTrainer, core.ErrorCodeInvalidInput, fmt.Sprintf(format, args...))
}

// Option 用于配置 Trainer
type Option func(*Trainer)

// WithLogger 设置 logger
func WithLogger(l *slog.Logger) Option {
	return func(t *Trainer) { t.logger = l }
}

// WithMetrics 设置 Prometheus 指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Trainer) { t.metrics = m }
}

// Trainer 驱动梯度下降训练。
// 同一个 Trainer 不支持并发调用 Train，调用方需要自行串行化。
type Trainer struct {
	cfg        Config
	noExposure bool

	logger  *slog.Logger
	metrics *metrics.Metrics

	omega        []float64
	standardizer *feature.GlobalStandardizer
	log          []TrainStep
}

// New 创建 Trainer；超参数不合法时返回 INVALID_INPUT 错误。
func New(cfg Config, opts ...Option) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Trainer{
		cfg:        cfg,
		noExposure: cfg.Gamma == 0,
		logger:     slog.Default().With("component", "trainer"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Config 返回训练超参数。
func (t *Trainer) Config() Config { return t.cfg }

// Weights 返回训练得到的权重副本；未训练时返回 false。
func (t *Trainer) Weights() ([]float64, bool) {
	if t.omega == nil {
		return nil, false
	}
	out := make([]float64, len(t.omega))
	copy(out, t.omega)
	return out, true
}

// Standardizer 返回训练时拟合的标准化器；未开启标准化时返回 nil。
func (t *Trainer) Standardizer() *feature.GlobalStandardizer {
	return t.standardizer
}

// Log 返回训练日志的深拷贝，每轮迭代一条；修改返回值不影响 Trainer 内部的记录。
func (t *Trainer) Log() []TrainStep {
	out := make([]TrainStep, len(t.log))
	for i, step := range t.log {
		out[i] = step.Clone()
	}
	return out
}

// Train 在 groups 上训练，完成后可通过 Weights / Log 读取结果。
// 每次调用都会清空上一次的日志与权重。
func (t *Trainer) Train(ctx context.Context, groups []*core.Group) (err error) {
	start := time.Now()
	defer func() { t.metrics.ObserveTrain(start, err) }()

	t.log = nil
	t.omega = nil
	t.standardizer = nil

	batch, err := dataset.Prepare(groups)
	if err != nil {
		return err
	}
	if batch.Len() < 2 {
		// log(N) 作为分母，N = 1 时无定义
		return invalid("training needs at least 2 items, got %d", batch.Len())
	}

	if t.cfg.Standardize {
		t.standardizer = feature.NewGlobalStandardizer(t.cfg.ProtectedIndex)
		t.standardizer.Fit(batch.Features)
	}

	part := newPartition(batch)
	e := &engine{
		batchLabels:   batch.Labels,
		batchFeatures: batch.Features,
		part:          part,
		cache:         newStatsCache(part),
		gamma:         t.cfg.Gamma,
		noExposure:    t.noExposure,
		logN:          math.Log(float64(batch.Len())),
	}
	if err := t.warmUp(ctx, e); err != nil {
		return err
	}

	n, dim := batch.Features.Dims()
	omega := t.initWeights(dim)
	log := make([]TrainStep, 0, t.cfg.Iterations)

	t.logger.Info("training started",
		"items", n,
		"features", dim,
		"queries", len(part.queries),
		"gamma", t.cfg.Gamma,
		"iterations", t.cfg.Iterations,
		"learning_rate", t.cfg.LearningRate,
		"standardize", t.cfg.Standardize,
	)

	for it := 0; it < t.cfg.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		step, err := t.iterate(ctx, e, batch.Features, omega)
		if err != nil {
			return err
		}

		// ω ← ω - η * Σ grad（按行求和，不取平均）
		sum := make([]float64, dim)
		for i := 0; i < n; i++ {
			floats.Add(sum, step.Grad.RawRowView(i))
		}
		next := make([]float64, dim)
		copy(next, omega)
		floats.AddScaled(next, -t.cfg.LearningRate, sum)
		omega = next

		log = append(log, step)
		t.metrics.ObserveIteration(step.LossStandard, step.LossExposure, step.TotalCost, step.Objective)
		if t.cfg.LogEvery > 0 && (it+1)%t.cfg.LogEvery == 0 {
			t.logger.Debug("training progress",
				"iteration", it+1,
				"loss_standard", step.LossStandard,
				"loss_exposure", step.LossExposure,
				"total_cost", step.TotalCost,
			)
		}
	}

	t.omega = omega
	t.log = log
	last := log[len(log)-1]
	t.logger.Info("training finished",
		"duration", time.Since(start),
		"total_cost", last.TotalCost,
		"loss_exposure", last.LossExposure,
	)
	return nil
}

// warmUp 预先计算训练侧（标注、特征）的切分结果，它们在所有迭代中复用。
func (t *Trainer) warmUp(ctx context.Context, e *engine) error {
	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(t.workers())
	for _, q := range e.part.queries {
		eg.Go(func() error {
			e.cache.vector(q, sourceJudgements, e.batchLabels).Topp()
			e.cache.matrix(q, sourceFeatures, e.batchFeatures)
			return nil
		})
	}
	return eg.Wait()
}

// iterate 用当前权重计算一轮的损失与梯度。
func (t *Trainer) iterate(ctx context.Context, e *engine, x *mat.Dense, omega []float64) (TrainStep, error) {
	n, dim := x.Dims()

	var pv mat.VecDense
	pv.MulVec(x, mat.NewVecDense(dim, omega))
	preds := make([]float64, n)
	for i := range preds {
		preds[i] = pv.AtVec(i)
	}
	e.cache.invalidate(sourcePredictions)

	var (
		queries = e.part.queries
		cost    = make([]float64, n)
		grad    = mat.NewDense(n, dim, nil)
		results = make([]queryResult, len(queries))
	)

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(t.workers())
	for qi, q := range queries {
		eg.Go(func() error {
			results[qi] = e.evalQuery(q, preds, cost, grad)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return TrainStep{}, err
	}

	step := TrainStep{
		Timestamp:    time.Now(),
		Cost:         cost,
		QueryCost:    make([]float64, len(queries)),
		QueryIDs:     queries,
		ExposureGaps: make([]float64, len(queries)),
		Grad:         grad,
		Omega:        append([]float64(nil), omega...),
	}
	for qi, r := range results {
		step.QueryCost[qi] = r.standard + r.exposure
		step.ExposureGaps[qi] = r.gap
		step.LossStandard += r.standard
		step.LossExposure += r.exposure
	}
	step.TotalCost = step.LossStandard + step.LossExposure
	step.Objective = step.TotalCost + t.cfg.Lambda*floats.Dot(preds, preds)
	return step, nil
}

func (t *Trainer) initWeights(dim int) []float64 {
	src := prng.NewMT19937()
	src.Seed(t.cfg.Seed)
	r := rand.New(src)
	omega := make([]float64, dim)
	for i := range omega {
		omega[i] = r.Float64() * t.cfg.InitVar
	}
	return omega
}

func (t *Trainer) workers() int {
	if t.cfg.Workers > 0 {
		return t.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}
