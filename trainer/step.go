package trainer

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

// TrainStep 是一轮迭代的日志记录，创建后不再修改。
type TrainStep struct {
	Timestamp    time.Time
	Cost         []float64  // 每个 Item 的损失（公平性损失在 query 内均摊）
	QueryCost    []float64  // 每个 query 的损失，顺序与 QueryIDs 一致
	QueryIDs     []int64    // query 顺序
	ExposureGaps []float64  // 每个 query 的曝光差，始终 >= 0
	LossStandard float64    // 排序损失之和
	LossExposure float64    // 公平性损失之和（gamma * gap^2）
	TotalCost    float64    // LossStandard + LossExposure，即梯度所对应的目标
	Objective    float64    // TotalCost + lambda * Σ pred^2，仅用于观察收敛
	Grad         *mat.Dense // 每个 Item 一行的梯度
	Omega        []float64  // 本轮使用的权重（更新前）
}

// Clone 深拷贝一条记录，包括所有切片与梯度矩阵。
func (s TrainStep) Clone() TrainStep {
	c := s
	c.Cost = cloneFloats(s.Cost)
	c.QueryCost = cloneFloats(s.QueryCost)
	c.ExposureGaps = cloneFloats(s.ExposureGaps)
	c.Omega = cloneFloats(s.Omega)
	if s.QueryIDs != nil {
		c.QueryIDs = append([]int64(nil), s.QueryIDs...)
	}
	if s.Grad != nil {
		c.Grad = mat.DenseCopyOf(s.Grad)
	}
	return c
}

func cloneFloats(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64(nil), v...)
}

func (s TrainStep) String() string {
	return fmt.Sprintf("timestamp:%d, lossStandard:%f, lossExposure:%f, totalCost:%f",
		s.Timestamp.UnixMilli(), s.LossStandard, s.LossExposure, s.TotalCost)
}
