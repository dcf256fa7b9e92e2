package feature

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// GlobalStandardizer 全局 Z-score 标准化
// 公式: z = (x - μ) / σ，μ、σ 是整个特征矩阵（所有行、所有列）上的单个标量，而非逐列统计。
// 保护属性列不参与变换，始终保持原始的 0/1 值。
//
// 只在训练时 Fit 一次；预测时复用同一组 Mean/Std，不重新拟合。
type GlobalStandardizer struct {
	Mean           float64 // 全局均值
	Std            float64 // 全局标准差（总体标准差）
	ProtectedIndex int     // 保护属性列；< 0 表示没有需要跳过的列
}

// NewGlobalStandardizer 创建标准化器
func NewGlobalStandardizer(protectedIndex int) *GlobalStandardizer {
	return &GlobalStandardizer{ProtectedIndex: protectedIndex}
}

// Fit 在 x 上计算 Mean/Std，并原地标准化 x。
func (s *GlobalStandardizer) Fit(x *mat.Dense) {
	r, c := x.Dims()
	values := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		values = append(values, x.RawRowView(i)...)
	}
	s.Mean = stat.Mean(values, nil)
	s.Std = math.Sqrt(stat.Moment(2, values, nil))
	s.Transform(x)
}

// Transform 使用已拟合的参数原地标准化 x，跳过保护属性列。
func (s *GlobalStandardizer) Transform(x *mat.Dense) {
	r, c := x.Dims()
	for i := 0; i < r; i++ {
		row := x.RawRowView(i)
		for j := 0; j < c; j++ {
			if j == s.ProtectedIndex {
				continue
			}
			row[j] = s.NormalizeValue(row[j])
		}
	}
}

// NormalizeValue 标准化单个值；Std 为 0 时原样返回
func (s *GlobalStandardizer) NormalizeValue(value float64) float64 {
	if s.Std > 0 {
		return (value - s.Mean) / s.Std
	}
	return value
}

// Apply 用已拟合的参数标准化 src 并写入 dst，跳过保护属性列；dst 可以与 src 相同。
func (s *GlobalStandardizer) Apply(dst, src []float64) []float64 {
	if len(dst) != len(src) {
		dst = make([]float64, len(src))
	}
	for j, v := range src {
		if j == s.ProtectedIndex {
			dst[j] = v
			continue
		}
		dst[j] = s.NormalizeValue(v)
	}
	return dst
}
