package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/deltr/core"
	"github.com/rushteam/deltr/pipeline"
)

// 配置驱动的 pipeline 需要 import _ "github.com/rushteam/deltr/config/builders"，
// 由其 init 注册 rank.deltr、rerank.topn、rerank.fair_check、filter、filter.expr。

// NodeBuilder 与 pipeline.NodeBuilder 一致
type NodeBuilder = pipeline.NodeBuilder

var registry = struct {
	sync.RWMutex
	builders map[string]NodeBuilder
}{builders: make(map[string]NodeBuilder)}

// Register 注册一种 Node 的构建函数，同名后注册者覆盖先注册者。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	registry.Lock()
	defer registry.Unlock()
	registry.builders[typeName] = builder
}

// SupportedTypes 返回已注册的 Node 类型（已排序）
func SupportedTypes() []string {
	registry.RLock()
	defer registry.RUnlock()
	return sortedTypesLocked()
}

func sortedTypesLocked() []string {
	types := make([]string, 0, len(registry.builders))
	for t := range registry.builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultFactory 用当前注册表的快照构建 NodeFactory
func DefaultFactory() *pipeline.NodeFactory {
	registry.RLock()
	defer registry.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range registry.builders {
		f.Register(typeName, builder)
	}
	return f
}

// ValidatePipelineConfig 在构建前检查所有 node 类型均已注册，
// 第一个未注册的类型返回 config 模块的 NOT_SUPPORTED 错误。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	registry.RLock()
	defer registry.RUnlock()
	for i, nc := range cfg.Pipeline.Nodes {
		if _, ok := registry.builders[nc.Type]; !ok {
			return core.NewDomainError(core.ModuleConfig, core.ErrorCodeNotSupported,
				fmt.Sprintf("node %d: unsupported type %q (supported: %v)", i, nc.Type, sortedTypesLocked()))
		}
	}
	return nil
}
