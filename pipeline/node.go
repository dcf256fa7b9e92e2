package pipeline

import (
	"context"

	"github.com/rushteam/deltr/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindFilter      Kind = "filter"      // 过滤阶段：剔除不符合约束的候选
	KindRank        Kind = "rank"        // 排序阶段：对候选打分并排序
	KindReRank      Kind = "rerank"      // 重排阶段：截断、公平性校验等
	KindPostProcess Kind = "postprocess" // 后处理阶段
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入 group -> 输出 group”的形态，Node 可以返回新的 Group，也可以在传入的 Group 上修改。
type Node interface {
	Name() string
	Kind() Kind

	Process(ctx context.Context, group *core.Group) (*core.Group, error)
}
