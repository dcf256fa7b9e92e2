package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/deltr/core"
)

func ids(g *core.Group) []int64 {
	out := make([]int64, 0, len(g.Items))
	for _, it := range g.Items {
		out = append(out, it.ID)
	}
	return out
}

// TestFilterNode 测试组合过滤器，保留的 Item 保持顺序
func TestFilterNode(t *testing.T) {
	expr, err := NewExprFilter("item.judgement < 0.0")
	require.NoError(t, err)

	node := &FilterNode{Filters: []Filter{
		NewBlacklistFilter([]int64{2}),
		expr,
	}}
	g := core.NewGroup(1,
		core.NewItem(1, 0.9, false, 0),
		core.NewItem(2, 0.8, false, 0),
		core.NewItem(3, -0.1, true, 0),
		nil,
		core.NewItem(4, 0.1, true, 0),
	)

	out, err := node.Process(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4}, ids(out))
	assert.Equal(t, "filter.node", node.Name())
}

// TestFilterNodeEvalError 测试过滤器出错时保留 Item
func TestFilterNodeEvalError(t *testing.T) {
	expr, err := NewExprFilter(`label.missing == "x"`)
	require.NoError(t, err)

	node := &FilterNode{Filters: []Filter{expr}}
	out, err := node.Process(context.Background(), core.NewGroup(1, core.NewItem(1, 0, false, 0)))
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(out))
}

// TestNewExprFilterInvalid 测试非法表达式
func TestNewExprFilterInvalid(t *testing.T) {
	_, err := NewExprFilter("item.")
	assert.Error(t, err)
}
