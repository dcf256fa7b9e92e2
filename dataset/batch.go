// Package dataset 负责把 Group 列表整理成训练用的扁平批数据，
// 并提供 CSV 加载与合成数据生成。
package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/deltr/core"
)

// Batch 是所有 query 拼接后的训练批数据。
// 行顺序为 Group 顺序，Group 内按 Item 顺序；不去重、不重新编号。
type Batch struct {
	QueryIDs  []int64    // 每行所属的 query，按 Group 大小重复
	Protected []int      // 每行的保护标记（0/1）
	Features  *mat.Dense // rows = items, cols = features
	Labels    []float64  // 训练标注（Judgement）
}

// Prepare 拼接 groups 为一个 Batch。
// 所有 Item 的特征维度必须一致，否则返回 DIMENSION_MISMATCH 错误。
func Prepare(groups []*core.Group) (*Batch, error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("prepare batch: %w", core.ErrEmptyInput)
	}

	dim := -1
	rows := 0
	for _, g := range groups {
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("prepare batch: %w", err)
		}
		if dim == -1 {
			dim = g.Dim()
		} else if g.Dim() != dim {
			return nil, fmt.Errorf("prepare batch: query %d: %w",
				g.QueryID, core.NewDimensionMismatchError(core.ModuleDataset, dim, g.Dim()))
		}
		rows += g.Size()
	}

	b := &Batch{
		QueryIDs:  make([]int64, 0, rows),
		Protected: make([]int, 0, rows),
		Labels:    make([]float64, 0, rows),
	}
	data := make([]float64, 0, rows*dim)
	for _, g := range groups {
		for _, it := range g.Items {
			b.QueryIDs = append(b.QueryIDs, g.QueryID)
			p := 0
			if it.Protected {
				p = 1
			}
			b.Protected = append(b.Protected, p)
			b.Labels = append(b.Labels, it.Judgement)
			data = append(data, it.Features...)
		}
	}
	b.Features = mat.NewDense(rows, dim, data)
	return b, nil
}

// Len 返回行数（Item 总数）。
func (b *Batch) Len() int { return len(b.QueryIDs) }

// Dim 返回特征维度。
func (b *Batch) Dim() int {
	_, c := b.Features.Dims()
	return c
}

// Queries 按首次出现的顺序返回去重后的 query 列表。
func (b *Batch) Queries() []int64 {
	seen := make(map[int64]struct{}, 16)
	out := make([]int64, 0, 16)
	for _, q := range b.QueryIDs {
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}
