package rerank

import (
	"context"

	"github.com/rushteam/deltr/core"
	"github.com/rushteam/deltr/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 个 Item。
// 通常在排序（Rank）节点之后使用。
//
// 示例：
//
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rank.DeltrNode{...},                 // 排序
//	        &rerank.TopNNode{N: 10},              // 截取 Top 10
//	        &rerank.FairCheckNode{P: 0.2, ...},   // 公平性校验
//	    },
//	}
type TopNNode struct {
	// N 要保留的 Item 数量
	// 如果 N <= 0 或 N >= len(items)，则不截断
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(_ context.Context, group *core.Group) (*core.Group, error) {
	if group == nil || n.N <= 0 || len(group.Items) <= n.N {
		return group, nil
	}
	group.Items = group.Items[:n.N]
	return group, nil
}
