// Package store 提供 core.Store 的内存与 Redis 实现，以及基于它们的模型存储。
//
// 示例：
//
//	var kv core.Store = NewMemoryStore()
//	ms := NewModelStore(kv, "deltr:model:")
//	err := ms.Save(ctx, "default", m, 0)
package store

import "github.com/rushteam/deltr/core"

// ErrNotFound 是 core.ErrStoreNotFound 的包内别名
var ErrNotFound = core.ErrStoreNotFound

// New 按后端名称创建 Store：memory 或 redis。
func New(backend, addr string, db int, password string) (core.Store, error) {
	switch backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(addr, db, WithRedisPassword(password))
	default:
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotSupported,
			"store: unknown backend "+backend)
	}
}
