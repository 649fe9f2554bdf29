package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/config"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "aff"

var (
	redisClient *redis.Client
	keyPrefix   = defaultKeyPrefix
)

// InitRedis 创建共享 Redis 客户端。未启用时短链缓存、分布式锁与限流全部降级；
// 连接失败不阻断启动，由健康探测反映
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		redisClient = nil
		return nil
	}
	keyPrefix = strings.TrimSpace(cfg.Prefix)
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	redisClient = redis.NewClient(buildOptions(cfg))
	return nil
}

func buildOptions(cfg *config.RedisConfig) *redis.Options {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opts := &redis.Options{
		Addr:     host + ":" + strconv.Itoa(port),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeoutSeconds > 0 {
		opts.DialTimeout = time.Duration(cfg.DialTimeoutSeconds) * time.Second
	}
	if cfg.ReadTimeoutSeconds > 0 {
		opts.ReadTimeout = time.Duration(cfg.ReadTimeoutSeconds) * time.Second
	}
	if cfg.WriteTimeoutSeconds > 0 {
		opts.WriteTimeout = time.Duration(cfg.WriteTimeoutSeconds) * time.Second
	}
	return opts
}

// Enabled 是否配置了 Redis
func Enabled() bool {
	return redisClient != nil
}

// Client 共享客户端，未启用时为 nil
func Client() *redis.Client {
	return redisClient
}

// Ping 健康探测；未启用时视为正常
func Ping(ctx context.Context) error {
	if redisClient == nil {
		return nil
	}
	return redisClient.Ping(ctx).Err()
}

// Close 进程退出时释放连接池
func Close() error {
	if redisClient == nil {
		return nil
	}
	err := redisClient.Close()
	redisClient = nil
	return err
}

// getJSON 读取并反序列化，未命中返回 false
func getJSON(ctx context.Context, key string, dest any) (bool, error) {
	if redisClient == nil {
		return false, nil
	}
	raw, err := redisClient.Get(ctx, prefixed(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cache %s: %w", key, err)
	}
	return true, nil
}

func setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if redisClient == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return redisClient.Set(ctx, prefixed(key), payload, ttl).Err()
}

func del(ctx context.Context, key string) error {
	if redisClient == nil {
		return nil
	}
	return redisClient.Del(ctx, prefixed(key)).Err()
}

// Key 拼接统一前缀，供限流等直接使用客户端的调用方
func Key(parts ...string) string {
	return prefixed(strings.Join(parts, ":"))
}

func prefixed(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return keyPrefix
	}
	return keyPrefix + ":" + key
}
