// Package builders 注册内置 Node，供配置驱动的 Pipeline 使用。
package builders

import (
	"fmt"

	"github.com/rushteam/deltr/config"
	"github.com/rushteam/deltr/filter"
	"github.com/rushteam/deltr/model"
	"github.com/rushteam/deltr/pipeline"
	"github.com/rushteam/deltr/pkg/conv"
	"github.com/rushteam/deltr/rank"
	"github.com/rushteam/deltr/rerank"
)

func init() {
	config.Register("rank.deltr", BuildDeltrNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.fair_check", BuildFairCheckNode)
	config.Register("filter", BuildFilterNode)
	config.Register("filter.expr", BuildExprFilterNode)
}

// BuildDeltrNode 从 model_path 指向的 JSON 文件加载 DELTR 模型。
func BuildDeltrNode(cfg map[string]interface{}) (pipeline.Node, error) {
	path := conv.ConfigGet(cfg, "model_path", "")
	if path == "" {
		return nil, fmt.Errorf("model_path not found")
	}
	m, err := model.LoadDeltrModel(path)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return &rank.DeltrNode{Model: m}, nil
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := conv.ConfigGetInt64(cfg, "n", 0)
	if n < 0 {
		return nil, fmt.Errorf("n must be >= 0, got %d", n)
	}
	return &rerank.TopNNode{N: int(n)}, nil
}

func BuildFairCheckNode(cfg map[string]interface{}) (pipeline.Node, error) {
	node := &rerank.FairCheckNode{
		K:      int(conv.ConfigGetInt64(cfg, "k", 0)),
		P:      conv.ConfigGetFloat64(cfg, "p", 0),
		Alpha:  conv.ConfigGetFloat64(cfg, "alpha", 0.1),
		Strict: conv.ConfigGet(cfg, "strict", false),
	}
	if node.P <= 0 || node.P >= 1 {
		return nil, fmt.Errorf("p must be in (0, 1), got %v", node.P)
	}
	return node, nil
}

func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		f, err := buildFilter(filterMap)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func BuildExprFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	f, err := buildFilter(map[string]interface{}{"type": "expr", "expr": cfg["expr"]})
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
}

func buildFilter(cfg map[string]interface{}) (filter.Filter, error) {
	switch filterType := conv.ConfigGet(cfg, "type", ""); filterType {
	case "blacklist":
		return filter.NewBlacklistFilter(conv.SliceAnyToInt64(cfg["item_ids"])), nil
	case "expr":
		expr := conv.ConfigGet(cfg, "expr", "")
		if expr == "" {
			return nil, fmt.Errorf("expr not found")
		}
		return filter.NewExprFilter(expr)
	default:
		return nil, fmt.Errorf("unknown filter type: %s", filterType)
	}
}
