package core

import (
	"fmt"
	"sort"
)

// Group 是一次查询（query）下需要一起排序的候选集合。
// 同一个 Group 内所有 Item 共享一次 ground-truth 排序与同一个保护组划分。
type Group struct {
	QueryID int64
	Items   []*Item
}

func NewGroup(queryID int64, items ...*Item) *Group {
	return &Group{QueryID: queryID, Items: items}
}

// Size 返回 Group 内的 Item 数量。
func (g *Group) Size() int { return len(g.Items) }

// Dim 返回特征维度；空 Group 返回 0。
func (g *Group) Dim() int {
	if len(g.Items) == 0 || g.Items[0] == nil {
		return 0
	}
	return len(g.Items[0].Features)
}

// Validate 校验 Group 非空，且所有 Item 特征维度一致、非零。
func (g *Group) Validate() error {
	if g == nil || len(g.Items) == 0 {
		return fmt.Errorf("query %d: %w", g.queryID(), ErrEmptyInput)
	}
	dim := -1
	for i, it := range g.Items {
		if it == nil {
			return NewDomainError(ModuleDataset, ErrorCodeInvalidInput,
				fmt.Sprintf("query %d: item at position %d is nil", g.QueryID, i))
		}
		if dim == -1 {
			dim = len(it.Features)
			if dim == 0 {
				return NewDomainError(ModuleDataset, ErrorCodeInvalidInput,
					fmt.Sprintf("query %d: item %d has no features", g.QueryID, it.ID))
			}
			continue
		}
		if len(it.Features) != dim {
			return NewDimensionMismatchError(ModuleDataset, dim, len(it.Features))
		}
	}
	return nil
}

// Reorder 按 Judgement 降序重排，分数相同时保持原有相对顺序。
func (g *Group) Reorder() {
	sort.SliceStable(g.Items, func(i, j int) bool {
		return g.Items[i].Judgement > g.Items[j].Judgement
	})
}

// Clone 深拷贝 Group 及其 Item。
func (g *Group) Clone() *Group {
	items := make([]*Item, len(g.Items))
	for i, it := range g.Items {
		if it != nil {
			items[i] = it.Clone()
		}
	}
	return &Group{QueryID: g.QueryID, Items: items}
}

// ProtectedCount 返回前 k 个位置中保护组 Item 的数量；k 超过长度时按全量计算。
func (g *Group) ProtectedCount(k int) int {
	if k > len(g.Items) {
		k = len(g.Items)
	}
	n := 0
	for _, it := range g.Items[:k] {
		if it != nil && it.Protected {
			n++
		}
	}
	return n
}

func (g *Group) queryID() int64 {
	if g == nil {
		return 0
	}
	return g.QueryID
}
