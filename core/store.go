package core

import "context"

// Store 是模型持久化使用的 KV 接口，由 store 包提供 memory 与 redis 两种实现。
// ttl 以秒为单位，省略或为 0 表示不过期。
type Store interface {
	// Name 返回后端名称，用于日志
	Name() string

	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl ...int) error
	Delete(ctx context.Context, key string) error

	// BatchGet 只返回存在的 key
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)
	BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error

	Close() error
}

var (
	// ErrStoreNotFound 表示 key 不存在或已过期
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrStoreNotSupported 表示后端不支持该操作
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "store: operation not supported")
)

// IsStoreNotFound 仅对 store 模块的 NOT_FOUND 返回 true
func IsStoreNotFound(err error) bool {
	return hasModuleCode(err, ModuleStore, ErrorCodeNotFound)
}

// IsStoreNotSupported 仅对 store 模块的 NOT_SUPPORTED 返回 true
func IsStoreNotSupported(err error) bool {
	return hasModuleCode(err, ModuleStore, ErrorCodeNotSupported)
}
