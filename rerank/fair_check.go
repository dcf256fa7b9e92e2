package rerank

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rushteam/deltr/core"
	"github.com/rushteam/deltr/fair"
	"github.com/rushteam/deltr/pipeline"
	"github.com/rushteam/deltr/pkg/utils"
)

// FairCheckNode 用 m-table 校验排序结果中保护组的最低占比。
// - 写入 labels：fair_check（pass 或 fail@<position>）
// - Strict 为 true 时校验失败返回错误
type FairCheckNode struct {
	K      int     // 校验的前缀长度；<= 0 时取 group 长度
	P      float64 // 目标保护组比例
	Alpha  float64 // 显著性水平
	Strict bool
}

func (n *FairCheckNode) Name() string {
	return "rerank.fair_check"
}

func (n *FairCheckNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *FairCheckNode) Process(_ context.Context, group *core.Group) (*core.Group, error) {
	if group == nil || len(group.Items) == 0 {
		return group, nil
	}
	k := n.K
	if k <= 0 || k > len(group.Items) {
		k = len(group.Items)
	}

	table, err := fair.MTable(k, n.P, n.Alpha)
	if err != nil {
		return nil, err
	}
	ok, at := fair.Check(group, table)

	value := "pass"
	if !ok {
		value = "fail@" + strconv.Itoa(at)
	}
	for _, it := range group.Items {
		if it != nil {
			it.PutLabel("fair_check", utils.Label{Value: value, Source: "rerank"})
		}
	}

	if !ok && n.Strict {
		return nil, core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidInput,
			fmt.Sprintf("query %d: ranking violates m-table at position %d (need %d protected)",
				group.QueryID, at, table[at]))
	}
	return group, nil
}
