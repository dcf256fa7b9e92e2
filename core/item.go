package core

import "github.com/rushteam/deltr/pkg/utils"

// Item 是排序链路中的统一承载结构：特征、保护属性、分数与标签。
// Features 中可以包含保护属性对应的 0/1 特征列，它和普通特征一样参与训练与打分；
// Protected 则是训练时用于划分保护组/非保护组的标记。
// Judgement 在训练阶段作为标注使用，打分阶段会被改写为模型分数。
type Item struct {
	ID        int64
	Features  []float64
	Protected bool
	Judgement float64
	Labels    map[string]utils.Label
}

func NewItem(id int64, judgement float64, protected bool, features ...float64) *Item {
	fs := make([]float64, len(features))
	copy(fs, features)
	return &Item{
		ID:        id,
		Features:  fs,
		Protected: protected,
		Judgement: judgement,
		Labels:    make(map[string]utils.Label),
	}
}

// Size 返回特征维度。
func (it *Item) Size() int { return len(it.Features) }

// Rejudge 写入新的分数。
func (it *Item) Rejudge(judgement float64) { it.Judgement = judgement }

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Clone 深拷贝 Item，打分只改写副本的 Judgement。
func (it *Item) Clone() *Item {
	c := NewItem(it.ID, it.Judgement, it.Protected, it.Features...)
	for k, v := range it.Labels {
		c.Labels[k] = v
	}
	return c
}
