package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Config 描述一条 pipeline：按顺序排列的 node 及其参数。
//
//	pipeline:
//	  name: fair-topn
//	  nodes:
//	    - type: rank.deltr
//	      config: {model_path: model.json}
//	    - type: rerank.topn
//	      config: {n: 10}
type Config struct {
	Pipeline struct {
		Name  string       `yaml:"name" json:"name"`
		Nodes []NodeConfig `yaml:"nodes" json:"nodes"`
	} `yaml:"pipeline" json:"pipeline"`
}

// NodeConfig 是单个 node 的类型与参数
type NodeConfig struct {
	Type   string                 `yaml:"type" json:"type"`
	Config map[string]interface{} `yaml:"config" json:"config"`
}

// Load 读取 pipeline 配置；.json 后缀按 JSON 解析，其余按 YAML 解析。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline config: %w", err)
	}
	return Parse(data, strings.EqualFold(filepath.Ext(path), ".json"))
}

// Parse 解析内存中的配置
func Parse(data []byte, isJSON bool) (*Config, error) {
	var cfg Config
	if isJSON {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse pipeline json: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse pipeline yaml: %w", err)
	}
	return &cfg, nil
}

// BuildPipeline 用 factory 依次构建各 node，任何一个失败都返回错误。
func (c *Config) BuildPipeline(factory *NodeFactory) (*Pipeline, error) {
	p := &Pipeline{Name: c.Pipeline.Name, Nodes: make([]Node, 0, len(c.Pipeline.Nodes))}
	for i, nc := range c.Pipeline.Nodes {
		node, err := factory.Build(nc.Type, nc.Config)
		if err != nil {
			return nil, fmt.Errorf("build node %d (%s): %w", i, nc.Type, err)
		}
		p.Nodes = append(p.Nodes, node)
	}
	return p, nil
}

// NodeBuilder 根据参数构建 node
type NodeBuilder func(config map[string]interface{}) (Node, error)

// NodeFactory 按类型名查找 NodeBuilder，不做并发保护，注册应在构建前完成。
type NodeFactory struct {
	builders map[string]NodeBuilder
}

func NewNodeFactory() *NodeFactory {
	return &NodeFactory{builders: make(map[string]NodeBuilder)}
}

func (f *NodeFactory) Register(nodeType string, builder NodeBuilder) {
	f.builders[nodeType] = builder
}

func (f *NodeFactory) Build(nodeType string, config map[string]interface{}) (Node, error) {
	builder, ok := f.builders[nodeType]
	if !ok {
		return nil, fmt.Errorf("unknown node type: %s", nodeType)
	}
	return builder(config)
}
