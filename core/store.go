package core

import "context"

// Store 是通用 KV 存储接口，领域层定义、基础设施层（store 包）实现。
// 推荐链路用它存两类数据：策略结果缓存（cache 包按指纹读写）和
// 运营侧的排除列表等小型 JSON 载荷。值一律是 []byte，序列化由调用方负责。
type Store interface {
	// Name 返回后端名称，日志与监控用
	Name() string

	// Get 读取 key；key 不存在时返回 ErrStoreNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入 key，ttl 为过期秒数（可选，省略或 0 表示永不过期）
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	// Delete 删除 key
	Delete(ctx context.Context, key string) error

	// BatchGet 批量读取，缺失的 key 不出现在结果中
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)

	// BatchSet 批量写入，共享同一个 ttl
	BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error

	// Close 释放连接等资源
	Close() error
}

// KeyValueStore 在 Store 之上扩展有序集合与哈希：
// 有序集合承载热门快照（分数即热度），哈希承载商品级元数据。
// 后端不支持时返回 ErrStoreNotSupported，调用方自行降级。
type KeyValueStore interface {
	Store

	// ZAdd 写入有序集合成员
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZRange 按分数从高到低取 [start, stop] 区间的成员
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// ZScore 读取成员分数；成员不存在时返回 ErrStoreNotFound
	ZScore(ctx context.Context, key string, member string) (float64, error)

	// HGet 读取哈希字段；字段不存在时返回 ErrStoreNotFound
	HGet(ctx context.Context, key, field string) ([]byte, error)

	// HSet 写入哈希字段
	HSet(ctx context.Context, key, field string, value []byte) error

	// HGetAll 读取整个哈希
	HGetAll(ctx context.Context, key string) (map[string][]byte, error)
}

var (
	// ErrStoreNotFound key 或成员不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrStoreNotSupported 后端不支持该操作
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "store: operation not supported")
)

// IsStoreNotFound 判断是否为存储层的 key 不存在错误。
func IsStoreNotFound(err error) bool {
	de := GetDomainError(err)
	return de != nil && de.Module == ModuleStore && de.Code == ErrorCodeNotFound
}
