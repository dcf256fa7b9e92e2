package filter

import (
	"context"
	"log/slog"

	"github.com/rushteam/deltr/core"
	"github.com/rushteam/deltr/pipeline"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该 Item 就会被过滤掉；被保留的 Item 保持原有顺序。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(ctx context.Context, group *core.Group) (*core.Group, error) {
	if group == nil || len(n.Filters) == 0 || len(group.Items) == 0 {
		return group, nil
	}

	out := make([]*core.Item, 0, len(group.Items))
	for _, item := range group.Items {
		if item == nil {
			continue
		}

		shouldFilter := false
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, item)
			if err != nil {
				// 过滤器错误时记录但不中断流程
				slog.Warn("filter error", "filter", f.Name(), "item", item.ID, "error", err)
				continue
			}
			if ok {
				shouldFilter = true
				break
			}
		}
		if !shouldFilter {
			out = append(out, item)
		}
	}

	group.Items = out
	return group, nil
}
