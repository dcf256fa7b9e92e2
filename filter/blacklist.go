package filter

import (
	"context"

	"github.com/rushteam/deltr/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉黑名单中的 Item。
type BlacklistFilter struct {
	ids map[int64]struct{}
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(itemIDs []int64) *BlacklistFilter {
	ids := make(map[int64]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		ids[id] = struct{}{}
	}
	return &BlacklistFilter{ids: ids}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(_ context.Context, item *core.Item) (bool, error) {
	if item == nil {
		return true, nil
	}
	_, ok := f.ids[item.ID]
	return ok, nil
}
