package builders

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/deltr/config"
	"github.com/rushteam/deltr/core"
	"github.com/rushteam/deltr/model"
	"github.com/rushteam/deltr/pipeline"
)

// TestSupportedTypes 测试内置 Node 已注册
func TestSupportedTypes(t *testing.T) {
	assert.Equal(t, []string{
		"filter",
		"filter.expr",
		"rank.deltr",
		"rerank.fair_check",
		"rerank.topn",
	}, config.SupportedTypes())
}

// TestBuildPipelineFromYAML 测试从配置构建完整的排序 Pipeline
func TestBuildPipelineFromYAML(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	require.NoError(t, (&model.DeltrModel{Omega: []float64{0.5, 1}}).Save(modelPath))

	pipePath := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(pipePath, []byte(`
pipeline:
  name: deltr
  nodes:
    - type: filter
      config:
        filters:
          - type: blacklist
            item_ids: [4]
    - type: rank.deltr
      config:
        model_path: `+modelPath+`
    - type: filter.expr
      config:
        expr: "item.judgement < 0.3"
    - type: rerank.topn
      config:
        n: 2
    - type: rerank.fair_check
      config:
        p: 0.5
        alpha: 0.1
`), 0o644))

	pc, err := pipeline.Load(pipePath)
	require.NoError(t, err)
	require.NoError(t, config.ValidatePipelineConfig(pc))
	p, err := pc.BuildPipeline(config.DefaultFactory())
	require.NoError(t, err)
	require.Len(t, p.Nodes, 5)

	in := core.NewGroup(1,
		core.NewItem(1, 0, false, 0, 0.2),
		core.NewItem(2, 0, true, 1, 0.5),
		core.NewItem(3, 0, false, 0, 0.9),
		core.NewItem(4, 0, true, 1, 0.2),
	)
	out, err := p.Run(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, out.Items, 2)
	assert.Equal(t, int64(2), out.Items[0].ID)
	assert.Equal(t, int64(3), out.Items[1].ID)
	assert.Equal(t, "pass", out.Items[0].Labels["fair_check"].Value)
	assert.Equal(t, "deltr", out.Items[0].Labels["rank_model"].Value)
}

// TestBuilderErrors 测试配置错误
func TestBuilderErrors(t *testing.T) {
	_, err := BuildDeltrNode(map[string]interface{}{})
	assert.Error(t, err)
	_, err = BuildDeltrNode(map[string]interface{}{"model_path": "/nonexistent/model.json"})
	assert.Error(t, err)
	_, err = BuildTopNNode(map[string]interface{}{"n": -1})
	assert.Error(t, err)
	_, err = BuildFairCheckNode(map[string]interface{}{"p": 1})
	assert.Error(t, err)
	_, err = BuildFilterNode(map[string]interface{}{"filters": []interface{}{
		map[string]interface{}{"type": "unknown"},
	}})
	assert.Error(t, err)
	_, err = BuildExprFilterNode(map[string]interface{}{})
	assert.Error(t, err)

	pc := &pipeline.Config{}
	pc.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "recall.hot"}}
	err = config.ValidatePipelineConfig(pc)
	assert.True(t, core.IsNotSupported(err))
	assert.Contains(t, err.Error(), "recall.hot")
}
