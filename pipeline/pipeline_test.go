package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/deltr/core"
)

type dropLast struct{}

func (dropLast) Name() string { return "test.drop_last" }
func (dropLast) Kind() Kind   { return KindReRank }
func (dropLast) Process(_ context.Context, g *core.Group) (*core.Group, error) {
	g.Items = g.Items[:len(g.Items)-1]
	return g, nil
}

type failing struct{}

func (failing) Name() string { return "test.fail" }
func (failing) Kind() Kind   { return KindFilter }
func (failing) Process(context.Context, *core.Group) (*core.Group, error) {
	return nil, errors.New("boom")
}

// TestPipelineRun 测试节点依次执行且不修改输入
func TestPipelineRun(t *testing.T) {
	in := core.NewGroup(1, core.NewItem(1, 1, false, 0), core.NewItem(2, 0, false, 0), core.NewItem(3, 0, false, 0))
	p := &Pipeline{Nodes: []Node{dropLast{}, dropLast{}}}

	out, err := p.Run(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Len(t, in.Items, 3)

	_, err = (&Pipeline{Nodes: []Node{failing{}}}).Run(context.Background(), in)
	assert.EqualError(t, err, "node test.fail: boom")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx, in)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = p.Run(context.Background(), nil)
	assert.True(t, core.IsInvalidInput(err))
}

// TestConfigBuildPipeline 测试 YAML/JSON 配置构建 Pipeline
func TestConfigBuildPipeline(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "p.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
pipeline:
  name: demo
  nodes:
    - type: test.drop_last
      config:
        n: 1
`), 0o644))
	jsonPath := filepath.Join(dir, "p.json")
	require.NoError(t, os.WriteFile(jsonPath,
		[]byte(`{"pipeline":{"name":"demo","nodes":[{"type":"test.drop_last"},{"type":"unknown"}]}}`), 0o644))

	f := NewNodeFactory()
	f.Register("test.drop_last", func(cfg map[string]interface{}) (Node, error) {
		return dropLast{}, nil
	})

	cfg, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Pipeline.Name)
	assert.Equal(t, 1, cfg.Pipeline.Nodes[0].Config["n"])
	p, err := cfg.BuildPipeline(f)
	require.NoError(t, err)
	assert.Len(t, p.Nodes, 1)
	assert.Equal(t, "demo", p.Name)

	cfg, err = Load(jsonPath)
	require.NoError(t, err)
	_, err = cfg.BuildPipeline(f)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
