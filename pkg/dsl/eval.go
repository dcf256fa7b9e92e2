package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/deltr/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译好的 Item 表达式，使用 CEL (Common Expression Language) 实现。
// 编译一次，可并发多次 Eval。
//
// 可用变量：
//   - item.id / item.judgement / item.protected
//   - item.features[i]：第 i 个特征
//   - label.<key>：Item 上该 Label 最近一次写入的值
//
// 示例：
//   - `item.features[0] == 1.0` → 第 0 列为 1 的 Item 属于保护组
//   - `item.judgement > 0.5 || item.protected` → 分数大于 0.5 或属于保护组
//   - `label.rank_model == "deltr"`
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式；表达式必须返回 bool，否则在 Eval 时报错。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (p *Program) String() string { return p.expr }

// Eval 对 item 执行表达式。
func (p *Program) Eval(item *core.Item) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item))
	if err != nil {
		// 访问不存在的 label key 时 CEL 会返回错误
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item) map[string]any {
	labels := make(map[string]string, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Last()
	}
	features := make([]float64, len(item.Features))
	copy(features, item.Features)

	return map[string]any{
		"item": map[string]any{
			"id":        item.ID,
			"judgement": item.Judgement,
			"protected": item.Protected,
			"features":  features,
		},
		"label": labels,
	}
}
