package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/config"
	"github.com/oneinfo/affiliate-backend/internal/logger"
)

// ClickRecorder 点击落库
type ClickRecorder interface {
	TrackClick(ctx context.Context, input ClickInput) error
}

type clickRecorderFunc func(ctx context.Context, input ClickInput) error

func (f clickRecorderFunc) TrackClick(ctx context.Context, input ClickInput) error {
	return f(ctx, input)
}

// ClickTracker 跳转后的点击记录后台任务：非阻塞投递，独立的错误边界
type ClickTracker struct {
	recorder ClickRecorder
	jobs     chan ClickInput
	workers  int
	timeout  time.Duration

	mu      sync.Mutex
	started bool
	closed  bool
	wg      sync.WaitGroup
}

// NewClickTracker 创建点击记录后台任务
func NewClickTracker(clicks *ClickService, cfg config.ClickTrackerConfig) *ClickTracker {
	return newClickTracker(clickRecorderFunc(func(ctx context.Context, input ClickInput) error {
		_, err := clicks.TrackClick(ctx, input)
		return err
	}), cfg)
}

func newClickTracker(recorder ClickRecorder, cfg config.ClickTrackerConfig) *ClickTracker {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = 1024
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ClickTracker{
		recorder: recorder,
		jobs:     make(chan ClickInput, buffer),
		workers:  workers,
		timeout:  timeout,
	}
}

// Name 服务名称
func (t *ClickTracker) Name() string {
	return "click_tracker"
}

// Dispatch 投递点击；队列已满或已停止时丢弃并返回 false，不阻塞调用方
func (t *ClickTracker) Dispatch(input ClickInput) bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	select {
	case t.jobs <- input:
		return true
	default:
		logger.Warnw("click_tracker_buffer_full", "short_code", input.ShortCode)
		return false
	}
}

// Start 启动消费协程并阻塞到 ctx 结束
func (t *ClickTracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return fmt.Errorf("click tracker already started")
	}
	t.started = true
	t.mu.Unlock()

	for i := 0; i < t.workers; i++ {
		t.wg.Add(1)
		go t.loop()
	}
	<-ctx.Done()
	return nil
}

// Stop 停止接收并等待已投递的点击处理完成
func (t *ClickTracker) Stop(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.jobs)
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *ClickTracker) loop() {
	defer t.wg.Done()
	for input := range t.jobs {
		t.handle(input)
	}
}

func (t *ClickTracker) handle(input ClickInput) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorw("click_tracker_panic", "short_code", input.ShortCode, "panic", r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	if err := t.recorder.TrackClick(ctx, input); err != nil {
		logger.Errorw("click_tracker_failed", "short_code", input.ShortCode, "error", err)
	}
}
