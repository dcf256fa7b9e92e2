package model

// RankModel 是排序阶段的最小抽象：输入特征向量，输出一个可比较的分数。
type RankModel interface {
	Name() string
	Predict(features []float64) (float64, error)
}
