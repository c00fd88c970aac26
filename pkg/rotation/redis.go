package rotation

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore 以 Redis 列表保存轮换记忆
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "road-auto:rotation:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(unit string) string {
	return s.prefix + unit
}

// Load 实现 Store
func (s *RedisStore) Load(ctx context.Context, unit string) ([]string, error) {
	names, err := s.client.LRange(ctx, s.key(unit), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("读取 redis 轮换记忆失败: %w", err)
	}
	return NewSet(names...).Names(), nil
}

// Save 实现 Store，整体替换列表
func (s *RedisStore) Save(ctx context.Context, unit string, names []string) error {
	key := s.key(unit)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(names) > 0 {
			values := make([]interface{}, len(names))
			for i, n := range names {
				values[i] = n
			}
			pipe.RPush(ctx, key, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("写入 redis 轮换记忆失败: %w", err)
	}
	return nil
}

// Reset 实现 Store
func (s *RedisStore) Reset(ctx context.Context, unit string) error {
	if err := s.client.Del(ctx, s.key(unit)).Err(); err != nil {
		return fmt.Errorf("清空 redis 轮换记忆失败: %w", err)
	}
	return nil
}
