package queue

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/config"
	"github.com/oneinfo/affiliate-backend/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 结算类任务队列
	CriticalQueue = constants.QueueCritical

	defaultMaxRetry = 5
)

// ErrQueueDisabled 队列未启用
var ErrQueueDisabled = errors.New("queue is disabled")

// Client 队列客户端封装
type Client struct {
	client       *asynq.Client
	enabled      bool
	defaultQueue string
	maxRetry     int
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false, defaultQueue: DefaultQueue, maxRetry: defaultMaxRetry}, nil
	}
	return &Client{
		client:       asynq.NewClient(buildRedisOpt(cfg)),
		enabled:      true,
		defaultQueue: DefaultQueue,
		maxRetry:     normalizeMaxRetry(cfg.MaxRetry),
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueCreateOrder 推送订单入库任务
func (c *Client) EnqueueCreateOrder(payload CreateOrderPayload) error {
	if !c.Enabled() {
		return ErrQueueDisabled
	}
	if err := payload.Validate(); err != nil {
		return err
	}
	task, err := NewCreateOrderTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.Enqueue(task, asynq.Queue(c.defaultQueue), asynq.MaxRetry(c.maxRetry))
	return err
}

// EnqueueGeneratePayout 推送结算单生成任务
func (c *Client) EnqueueGeneratePayout(payload GeneratePayoutPayload) error {
	if !c.Enabled() {
		return ErrQueueDisabled
	}
	task, err := NewGeneratePayoutTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.Enqueue(task, asynq.Queue(CriticalQueue), asynq.MaxRetry(c.maxRetry))
	return err
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	opt := buildRedisOpt(cfg)
	concurrency := 5
	queues := map[string]int{DefaultQueue: 2, CriticalQueue: 1}
	base, ceiling := 3*time.Second, 10*time.Minute
	if cfg != nil {
		if cfg.Concurrency > 0 {
			concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			queues = cfg.Queues
		}
		base, ceiling = cfg.RetryBase(), cfg.RetryMax()
	}
	return opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
		RetryDelayFunc: func(n int, _ error, _ *asynq.Task) time.Duration {
			return ExponentialBackoff(base, ceiling, n)
		},
	}
}

// ExponentialBackoff 第 n 次重试（从 0 开始）的等待时间：base * 2^n，不超过 ceiling
func ExponentialBackoff(base, ceiling time.Duration, n int) time.Duration {
	if n < 0 {
		n = 0
	}
	if n > 30 {
		return ceiling
	}
	delay := time.Duration(float64(base) * math.Pow(2, float64(n)))
	if delay <= 0 || delay > ceiling {
		return ceiling
	}
	return delay
}

func normalizeMaxRetry(value int) int {
	if value <= 0 {
		return defaultMaxRetry
	}
	return value
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
