// Package fair 提供 top-k 排序的保护组最小数量表（m-table）与校验。
// 它消费重排后的结果，不参与训练与打分。
package fair

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rushteam/deltr/core"
)

// MTable 返回长度为 k 的单调不减序列：第 i 个值是前 i+1 个位置至少需要的保护组 Item 数。
// 每个前缀取满足 BinomCDF(m; i, p) >= alpha 的最小 m。
// 这里不做多重检验下的 alpha 修正。
func MTable(k int, p, alpha float64) ([]int, error) {
	if k < 1 {
		return nil, invalid("k must be >= 1, got %d", k)
	}
	if p <= 0 || p >= 1 {
		return nil, invalid("p must be in (0, 1), got %v", p)
	}
	if alpha <= 0 || alpha >= 1 {
		return nil, invalid("alpha must be in (0, 1), got %v", alpha)
	}

	table := make([]int, k)
	for i := 1; i <= k; i++ {
		b := distuv.Binomial{N: float64(i), P: p}
		m := 0
		for m < i && b.CDF(float64(m)) < alpha {
			m++
		}
		table[i-1] = m
	}
	return table, nil
}

// Check 检查 group 的每个前缀是否满足 table。
// 满足时返回 (true, -1)，否则返回第一个不满足的位置（从 0 开始）。
// group 比 table 短时只检查 group 的长度。
func Check(group *core.Group, table []int) (bool, int) {
	protected := 0
	for i, it := range group.Items {
		if i >= len(table) {
			break
		}
		if it != nil && it.Protected {
			protected++
		}
		if protected < table[i] {
			return false, i
		}
	}
	return true, -1
}

func invalid(format string, args ...any) error {
	return core.NewDomainError(core.ModuleFair, core.ErrorCodeInvalidInput, fmt.Sprintf(format, args...))
}
