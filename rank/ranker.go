package rank

import (
	"fmt"
	"time"

	"github.com/rushteam/deltr/core"
	"github.com/rushteam/deltr/metrics"
	"github.com/rushteam/deltr/model"
)

// Ranker 用 RankModel 为一个 Group 重新打分并排序。
type Ranker struct {
	Model   model.RankModel
	Metrics *metrics.Metrics // 可选
}

func NewRanker(m model.RankModel) *Ranker {
	return &Ranker{Model: m}
}

// Rank 返回重新打分、按分数降序（稳定排序）排列后的 Group 副本。
// 输入 Group 不会被修改；副本中的 Judgement 被改写为模型分数，特征保持原值。
func (r *Ranker) Rank(group *core.Group) (out *core.Group, err error) {
	start := time.Now()
	defer func() { r.Metrics.ObserveRank(start, err) }()

	if r.Model == nil {
		return nil, core.ErrNotTrained
	}
	if err := group.Validate(); err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}

	out = group.Clone()
	if err := score(r.Model, out); err != nil {
		return nil, err
	}
	out.Reorder()
	return out, nil
}

// score 在 group 上原地改写每个 Item 的 Judgement。
func score(m model.RankModel, group *core.Group) error {
	for _, it := range group.Items {
		if it == nil {
			continue
		}
		s, err := m.Predict(it.Features)
		if err != nil {
			return fmt.Errorf("rank item %d: %w", it.ID, err)
		}
		it.Rejudge(s)
	}
	return nil
}
