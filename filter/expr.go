package filter

import (
	"context"

	"github.com/rushteam/deltr/core"
	"github.com/rushteam/deltr/pkg/dsl"
)

// ExprFilter 使用 CEL 表达式过滤 Item：表达式为 true 的 Item 被移除。
// 例如 `item.judgement < 0.0` 会移除分数为负的 Item。
type ExprFilter struct {
	prg *dsl.Program
}

// NewExprFilter 编译表达式并创建过滤器。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{prg: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(_ context.Context, item *core.Item) (bool, error) {
	if item == nil {
		return true, nil
	}
	return f.prg.Eval(item)
}
