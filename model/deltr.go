package model

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/floats"

	"github.com/rushteam/deltr/core"
	"github.com/rushteam/deltr/feature"
	"github.com/rushteam/deltr/trainer"
)

// DeltrModel 是训练好的 DELTR 线性模型：超参数、标准化参数与权重。
//
// 预测原理：
//  1. 若训练时开启了标准化，用训练时拟合的 Mean/Std 标准化除保护属性列以外的特征
//  2. 线性加权求和: score = Σ Omega_i * Feature_i
//
// Omega 为空表示尚未训练，此时 Predict 返回 NOT_TRAINED 错误。
type DeltrModel struct {
	Gamma          float64   `json:"gamma"`
	Iterations     int       `json:"number_of_iterations"`
	LearningRate   float64   `json:"learning_rate"`
	Lambda         float64   `json:"lambda"`
	InitVar        float64   `json:"init_var"`
	Standardize    bool      `json:"standardize"`
	ProtectedIndex int       `json:"protected_index"`
	Mean           float64   `json:"mu"`
	Std            float64   `json:"sigma"`
	Omega          []float64 `json:"omega,omitempty"`
}

// NewDeltrModel 创建一个未训练的模型，超参数取自 cfg。
func NewDeltrModel(cfg trainer.Config) *DeltrModel {
	return &DeltrModel{
		Gamma:          cfg.Gamma,
		Iterations:     cfg.Iterations,
		LearningRate:   cfg.LearningRate,
		Lambda:         cfg.Lambda,
		InitVar:        cfg.InitVar,
		Standardize:    cfg.Standardize,
		ProtectedIndex: cfg.ProtectedIndex,
	}
}

// FromTrainer 从训练完成的 Trainer 导出模型。
func FromTrainer(t *trainer.Trainer) (*DeltrModel, error) {
	omega, ok := t.Weights()
	if !ok {
		return nil, core.ErrNotTrained
	}
	m := NewDeltrModel(t.Config())
	m.Omega = omega
	if std := t.Standardizer(); std != nil {
		m.Mean = std.Mean
		m.Std = std.Std
	}
	return m, nil
}

func (m *DeltrModel) Name() string { return "deltr" }

// Trained 是否已有权重。
func (m *DeltrModel) Trained() bool { return len(m.Omega) > 0 }

// Config 返回模型对应的训练超参数，可用于在相同配置下重新训练。
func (m *DeltrModel) Config() trainer.Config {
	cfg := trainer.DefaultConfig()
	cfg.Gamma = m.Gamma
	cfg.Iterations = m.Iterations
	cfg.LearningRate = m.LearningRate
	cfg.Lambda = m.Lambda
	cfg.InitVar = m.InitVar
	cfg.Standardize = m.Standardize
	cfg.ProtectedIndex = m.ProtectedIndex
	return cfg
}

// Standardizer 返回预测时使用的标准化器；未开启标准化时返回 nil。
func (m *DeltrModel) Standardizer() *feature.GlobalStandardizer {
	if !m.Standardize {
		return nil
	}
	return &feature.GlobalStandardizer{Mean: m.Mean, Std: m.Std, ProtectedIndex: m.ProtectedIndex}
}

// Predict 计算特征向量的分数，不修改 features。
func (m *DeltrModel) Predict(features []float64) (float64, error) {
	if !m.Trained() {
		return 0, core.ErrNotTrained
	}
	if len(features) != len(m.Omega) {
		return 0, core.NewDimensionMismatchError(core.ModuleModel, len(m.Omega), len(features))
	}
	x := features
	if std := m.Standardizer(); std != nil {
		x = std.Apply(make([]float64, len(features)), features)
	}
	return floats.Dot(x, m.Omega), nil
}

// Marshal 序列化为 JSON。
func (m *DeltrModel) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalDeltrModel 从 JSON 反序列化。
func UnmarshalDeltrModel(data []byte) (*DeltrModel, error) {
	var m DeltrModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode deltr model: %w", err)
	}
	return &m, nil
}

// Save 把模型写入 JSON 文件。
func (m *DeltrModel) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode deltr model: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadDeltrModel 从 JSON 文件读取模型。
func LoadDeltrModel(path string) (*DeltrModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalDeltrModel(data)
}

var _ RankModel = (*DeltrModel)(nil)
