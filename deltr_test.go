package deltr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/deltr/core"
	"github.com/rushteam/deltr/dataset"
	"github.com/rushteam/deltr/trainer"
)

// TestDeltrTrainAndRank 测试训练后保护组在特征相同时排在前面
func TestDeltrTrainAndRank(t *testing.T) {
	cfg := trainer.DefaultConfig()
	cfg.Gamma = 1
	cfg.Iterations = 10
	cfg.LearningRate = 0.001
	d, err := New(cfg)
	require.NoError(t, err)

	train := []*core.Group{core.NewGroup(1,
		core.NewItem(1, 1.0, true, 1, 0.962650646167003),
		core.NewItem(2, 0.98, false, 0, 0.940172822166108),
	)}
	require.NoError(t, d.Train(context.Background(), train))

	w, ok := d.Weights()
	require.True(t, ok)
	require.Len(t, w, 2)
	assert.Len(t, d.Log(), 10)

	query := core.NewGroup(2,
		core.NewItem(10, 0, false, 0, 0.5),
		core.NewItem(11, 0, true, 1, 0.5),
	)
	ranked, err := d.Rank(query)
	require.NoError(t, err)
	assert.Equal(t, int64(11), ranked.Items[0].ID)
	assert.Equal(t, int64(10), ranked.Items[1].ID)
	assert.Greater(t, ranked.Items[0].Judgement, ranked.Items[1].Judgement)
	assert.Equal(t, int64(10), query.Items[0].ID)
}

// TestDeltrRankBeforeTrain 测试训练前排序
func TestDeltrRankBeforeTrain(t *testing.T) {
	d, err := New(trainer.DefaultConfig())
	require.NoError(t, err)

	_, err = d.Rank(core.NewGroup(1, core.NewItem(1, 0, false, 1)))
	assert.ErrorIs(t, err, core.ErrNotTrained)
	_, ok := d.Weights()
	assert.False(t, ok)
	assert.Nil(t, d.Model())
	assert.Empty(t, d.Log())
}

// TestDeltrFromModel 测试用已有模型排序
func TestDeltrFromModel(t *testing.T) {
	cfg := trainer.DefaultConfig()
	cfg.Iterations = 20
	cfg.Standardize = true
	d, err := New(cfg)
	require.NoError(t, err)
	groups := dataset.NewSynthetic(3, 10, 3, 5).Generate()
	require.NoError(t, d.Train(context.Background(), groups))

	d2, err := FromModel(d.Model())
	require.NoError(t, err)
	a, err := d.Rank(groups[0])
	require.NoError(t, err)
	b, err := d2.Rank(groups[0])
	require.NoError(t, err)
	for i := range a.Items {
		assert.Equal(t, a.Items[i].ID, b.Items[i].ID)
		assert.Equal(t, a.Items[i].Judgement, b.Items[i].Judgement)
	}

	_, err = FromModel(nil)
	assert.ErrorIs(t, err, core.ErrNotTrained)
}

// TestDeltrTrainFailureKeepsModel 测试训练失败时保留之前的模型与日志
func TestDeltrTrainFailureKeepsModel(t *testing.T) {
	cfg := trainer.DefaultConfig()
	cfg.Iterations = 3
	d, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, d.Train(context.Background(), dataset.NewSynthetic(2, 5, 2, 1).Generate()))
	before, _ := d.Weights()
	logBefore := d.Log()
	require.Len(t, logBefore, 3)

	assert.Error(t, d.Train(context.Background(), nil))
	after, ok := d.Weights()
	require.True(t, ok)
	assert.Equal(t, before, after)

	logAfter := d.Log()
	require.Len(t, logAfter, 3)
	assert.Equal(t, logBefore[2].TotalCost, logAfter[2].TotalCost)
	assert.Equal(t, logBefore[2].Omega, logAfter[2].Omega)
}
