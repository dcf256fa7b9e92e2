package rank

import (
	"context"

	"github.com/rushteam/deltr/core"
	"github.com/rushteam/deltr/model"
	"github.com/rushteam/deltr/pipeline"
	"github.com/rushteam/deltr/pkg/utils"
)

// DeltrNode 是一个使用 RankModel 的排序 Node（不限定模型类型，DELTR 只是默认实现）。
// - 写入 labels：rank_model
// - 更新 item.Judgement 并按分数降序稳定排序
type DeltrNode struct {
	Model model.RankModel
}

func (n *DeltrNode) Name() string        { return "rank.deltr" }
func (n *DeltrNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *DeltrNode) Process(_ context.Context, group *core.Group) (*core.Group, error) {
	if n.Model == nil {
		return nil, core.ErrNotTrained
	}
	if group == nil || len(group.Items) == 0 {
		return group, nil
	}

	if err := score(n.Model, group); err != nil {
		return nil, err
	}
	for _, it := range group.Items {
		if it != nil {
			it.PutLabel("rank_model", utils.Label{Value: n.Model.Name(), Source: "rank"})
		}
	}
	group.Items = compact(group.Items)
	group.Reorder()
	return group, nil
}

func compact(items []*core.Item) []*core.Item {
	out := items[:0]
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}
