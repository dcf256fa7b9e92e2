package store

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/deltr/core"
	"github.com/rushteam/deltr/model"
	"github.com/rushteam/deltr/trainer"
)

// testStore 对任意 core.Store 执行相同的读写检查
func testStore(t *testing.T, s core.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "deltr:test:missing")
	assert.True(t, core.IsStoreNotFound(err))

	require.NoError(t, s.Set(ctx, "deltr:test:a", []byte("1")))
	v, err := s.Get(ctx, "deltr:test:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, s.BatchSet(ctx, map[string][]byte{
		"deltr:test:b": []byte("2"),
		"deltr:test:c": []byte("3"),
	}))
	got, err := s.BatchGet(ctx, []string{"deltr:test:a", "deltr:test:b", "deltr:test:missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{
		"deltr:test:a": []byte("1"),
		"deltr:test:b": []byte("2"),
	}, got)

	for _, k := range []string{"deltr:test:a", "deltr:test:b", "deltr:test:c"} {
		require.NoError(t, s.Delete(ctx, k))
	}
	_, err = s.Get(ctx, "deltr:test:a")
	assert.True(t, core.IsStoreNotFound(err))
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	assert.Equal(t, "memory", s.Name())
	testStore(t, s)
}

// TestMemoryStoreTTL 测试过期
func TestMemoryStoreTTL(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 1))
	_, err := s.Get(ctx, "k")
	require.NoError(t, err)

	// 直接让条目过期
	s.mu.Lock()
	s.data["k"].expire = time.Now().Add(-time.Second)
	s.mu.Unlock()

	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Close())
}

// TestMemoryStoreCopies 测试存取时复制数据
func TestMemoryStoreCopies(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[0] = 'x'
	v, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))
}

// TestRedisStore 需要设置 DELTR_TEST_REDIS_ADDR 才会运行
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("DELTR_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DELTR_TEST_REDIS_ADDR not set")
	}
	s, err := NewRedisStore(addr, 0, WithRedisDialTimeout(2*time.Second))
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "redis", s.Name())
	testStore(t, s)
}

// TestNew 测试按后端名称创建
func TestNew(t *testing.T) {
	s, err := New("memory", "", 0, "")
	require.NoError(t, err)
	assert.Equal(t, "memory", s.Name())
	require.NoError(t, s.Close())

	_, err = New("etcd", "", 0, "")
	assert.True(t, core.IsNotSupported(err))
}

// TestModelStore 测试模型的保存与读取
func TestModelStore(t *testing.T) {
	kv := NewMemoryStore()
	defer kv.Close()
	ms := NewModelStore(kv, "")
	ctx := context.Background()
	assert.Equal(t, DefaultModelKeyPrefix, ms.KeyPrefix)

	untrained := model.NewDeltrModel(trainer.DefaultConfig())
	assert.ErrorIs(t, ms.Save(ctx, "m", untrained, 0), core.ErrNotTrained)

	m := model.NewDeltrModel(trainer.DefaultConfig())
	m.Omega = []float64{0.3, -0.2}
	require.NoError(t, ms.Save(ctx, "m", m, time.Hour))

	raw, err := kv.Get(ctx, DefaultModelKeyPrefix+"m")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"omega"`)

	loaded, err := ms.Load(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, m, loaded)

	require.NoError(t, ms.Delete(ctx, "m"))
	_, err = ms.Load(ctx, "m")
	assert.True(t, core.IsStoreNotFound(err))
}

// TestModelStoreConcurrentLoad 测试并发读取同一个模型
func TestModelStoreConcurrentLoad(t *testing.T) {
	kv := NewMemoryStore()
	defer kv.Close()
	ms := NewModelStore(kv, "test:")
	ctx := context.Background()

	m := model.NewDeltrModel(trainer.DefaultConfig())
	m.Omega = []float64{1, 2, 3}
	require.NoError(t, ms.Save(ctx, "shared", m, 0))

	var wg sync.WaitGroup
	results := make([]*model.DeltrModel, 16)
	errs := make([]error, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = ms.Load(ctx, "shared")
		}(i)
	}
	wg.Wait()
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, []float64{1, 2, 3}, results[i].Omega)
	}
}
