// Package deltr 是一个公平感知的排序学习工具包（Disparate Exposure in Learning To Rank）。
//
// 设计要点：
// - 线性打分：score = x·ω，ω 由带曝光差惩罚的 listwise 损失经梯度下降得到
// - Group-first: 训练与排序都以 query 为单位（core.Group）
// - Pipeline 可扩展: 排序结果可以继续经过 filter / rerank 节点
//
// 示例：
//
//	d, err := deltr.New(trainer.DefaultConfig())
//	if err != nil { ... }
//	if err := d.Train(ctx, groups); err != nil { ... }
//	ranked, err := d.Rank(group)
package deltr

import (
	"context"

	"github.com/rushteam/deltr/core"
	"github.com/rushteam/deltr/model"
	"github.com/rushteam/deltr/pipeline"
	"github.com/rushteam/deltr/rank"
	"github.com/rushteam/deltr/trainer"
)

// 轻量 facade：便于用户直接 import "deltr" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// Deltr 把训练与排序组合在一起。
// Train 与 Rank 不应并发调用。
type Deltr struct {
	trainer *trainer.Trainer
	model   *model.DeltrModel
	ranker  *rank.Ranker
	log     []trainer.TrainStep // 与 model 对应的训练日志
}

// New 创建一个未训练的 Deltr；超参数不合法时返回 INVALID_INPUT 错误。
func New(cfg trainer.Config, opts ...trainer.Option) (*Deltr, error) {
	t, err := trainer.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Deltr{trainer: t}, nil
}

// FromModel 用已训练的模型创建只用于排序的 Deltr。
func FromModel(m *model.DeltrModel, opts ...trainer.Option) (*Deltr, error) {
	if m == nil || !m.Trained() {
		return nil, core.ErrNotTrained
	}
	d, err := New(m.Config(), opts...)
	if err != nil {
		return nil, err
	}
	d.model = m
	d.ranker = rank.NewRanker(m)
	return d, nil
}

// Train 训练并替换当前模型与日志。训练失败时两者都保持不变。
func (d *Deltr) Train(ctx context.Context, groups []*core.Group) error {
	if err := d.trainer.Train(ctx, groups); err != nil {
		return err
	}
	m, err := model.FromTrainer(d.trainer)
	if err != nil {
		return err
	}
	d.model = m
	d.ranker = rank.NewRanker(m)
	d.log = d.trainer.Log()
	return nil
}

// Rank 返回按模型分数降序排列的 group 副本；训练之前调用返回 core.ErrNotTrained。
func (d *Deltr) Rank(group *core.Group) (*core.Group, error) {
	if d.ranker == nil {
		return nil, core.ErrNotTrained
	}
	return d.ranker.Rank(group)
}

// Weights 返回权重副本；未训练时返回 false。
func (d *Deltr) Weights() ([]float64, bool) {
	if d.model == nil {
		return nil, false
	}
	out := make([]float64, len(d.model.Omega))
	copy(out, d.model.Omega)
	return out, true
}

// Log 返回当前模型的训练日志深拷贝；FromModel 创建或尚未训练时为空。
func (d *Deltr) Log() []trainer.TrainStep {
	out := make([]trainer.TrainStep, len(d.log))
	for i, step := range d.log {
		out[i] = step.Clone()
	}
	return out
}

// Model 返回当前模型；未训练时为 nil。
func (d *Deltr) Model() *model.DeltrModel {
	return d.model
}
