package store

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rushteam/deltr/core"
	"github.com/rushteam/deltr/model"
)

// DefaultModelKeyPrefix 是模型 key 的默认前缀
const DefaultModelKeyPrefix = "deltr:model:"

// ModelStore 把训练好的 DeltrModel 以 JSON 形式保存在任意 core.Store 中。
// 同一个 name 的并发 Load 只访问一次后端，调用方共享返回的模型，不应修改它。
type ModelStore struct {
	Store     core.Store
	KeyPrefix string

	loads singleflight.Group
}

func NewModelStore(s core.Store, prefix string) *ModelStore {
	if prefix == "" {
		prefix = DefaultModelKeyPrefix
	}
	return &ModelStore{Store: s, KeyPrefix: prefix}
}

func (s *ModelStore) key(name string) string {
	return s.KeyPrefix + name
}

// Save 写入模型；ttl 为 0 表示不过期。未训练的模型不允许写入。
func (s *ModelStore) Save(ctx context.Context, name string, m *model.DeltrModel, ttl time.Duration) error {
	if m == nil || !m.Trained() {
		return core.ErrNotTrained
	}
	data, err := m.Marshal()
	if err != nil {
		return fmt.Errorf("marshal model %s: %w", name, err)
	}
	return s.Store.Set(ctx, s.key(name), data, int(ttl/time.Second))
}

// Load 读取模型。不存在时返回 core.ErrStoreNotFound。
func (s *ModelStore) Load(ctx context.Context, name string) (*model.DeltrModel, error) {
	v, err, _ := s.loads.Do(name, func() (interface{}, error) {
		data, err := s.Store.Get(ctx, s.key(name))
		if err != nil {
			return nil, err
		}
		m, err := model.UnmarshalDeltrModel(data)
		if err != nil {
			return nil, fmt.Errorf("unmarshal model %s: %w", name, err)
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.DeltrModel), nil
}

func (s *ModelStore) Delete(ctx context.Context, name string) error {
	return s.Store.Delete(ctx, s.key(name))
}
