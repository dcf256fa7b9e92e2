package core

// 训练超参数的推荐默认值。
const (
	DefaultGamma          = 1.0   // 公平性损失权重，推荐 1 左右；0 表示关闭曝光约束
	DefaultIterations     = 3000  // 梯度下降迭代次数
	DefaultLearningRate   = 0.001 // 学习率
	DefaultLambda         = 0.001 // 预测分数上的 L2 系数，仅计入收敛指标
	DefaultInitVar        = 0.01  // 权重初始化范围
	DefaultProtectedIndex = 0     // 保护属性所在的特征列；-1 表示特征中不含保护属性列
)
