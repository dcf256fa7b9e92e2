package feature

import "gonum.org/v1/gonum/floats"

// MinMaxNormalizer Min-Max 归一化
// 公式: x' = (x - min) / (max - min)
// 特点: 将值缩放到 [0, 1] 区间；max == min 时所有值归一化为 0
type MinMaxNormalizer struct {
	Min float64
	Max float64
}

// FitMinMax 从 values 计算最小值与最大值；values 不能为空。
func FitMinMax(values []float64) *MinMaxNormalizer {
	return &MinMaxNormalizer{Min: floats.Min(values), Max: floats.Max(values)}
}

// NormalizeValue 归一化单个值
func (n *MinMaxNormalizer) NormalizeValue(value float64) float64 {
	span := n.Max - n.Min
	if span > 0 {
		return (value - n.Min) / span
	}
	return 0
}
