package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/deltr/core"
)

// Pipeline 把排序后的处理拆成可组合的 Node 链。
type Pipeline struct {
	Name  string
	Nodes []Node
}

// Run 依次执行各 Node。输入 Group 会先被复制，调用方持有的数据不受影响。
func (p *Pipeline) Run(ctx context.Context, group *core.Group) (*core.Group, error) {
	if group == nil {
		return nil, fmt.Errorf("pipeline: %w", core.ErrEmptyInput)
	}
	cur := group.Clone()
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, cur)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
