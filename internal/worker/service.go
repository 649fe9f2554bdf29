package worker

import (
	"context"
	"errors"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/config"
	"github.com/oneinfo/affiliate-backend/internal/logger"
	"github.com/oneinfo/affiliate-backend/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	reconcileInterval  = time.Minute
	reconcileBatchSize = 200
)

// Service asynq 消费进程，附带汇总补偿循环
type Service struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer

	reconcileDone chan struct{}
}

// NewService 创建消费服务；队列未启用时返回错误，worker 模式无法启动
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	serverCfg.ErrorHandler = consumer.ErrorHandler()
	serverCfg.Logger = asynqLogger{}
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	svc := &Service{
		server:   asynq.NewServer(opt, serverCfg),
		mux:      mux,
		consumer: consumer,
	}
	if consumer.CreatorStatsService != nil {
		svc.reconcileDone = make(chan struct{})
	}
	return svc, nil
}

// Name 服务名称
func (s *Service) Name() string {
	return "worker"
}

// Start 启动消费，阻塞至 Stop
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("worker not initialized")
	}
	if s.reconcileDone != nil {
		go func() {
			defer close(s.reconcileDone)
			s.runReconcileLoop(ctx)
		}()
	}
	return s.server.Run(s.mux)
}

// Stop 等待进行中的任务结束，超时后放弃等待
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		s.server.Shutdown()
		if s.reconcileDone != nil {
			<-s.reconcileDone
		}
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runReconcileLoop 定期补齐汇总落后的订单
func (s *Service) runReconcileLoop(ctx context.Context) {
	runOnce := func() {
		applied, err := s.consumer.CreatorStatsService.ReconcilePending(ctx, reconcileBatchSize)
		if err != nil {
			logger.Warnw("worker_reconcile_pending_failed", "error", err)
			return
		}
		if applied > 0 {
			logger.Infow("worker_reconcile_pending_applied", "orders", applied)
		}
	}
	runOnce()

	ticker := time.NewTicker(reconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

// asynqLogger 将 asynq 内部日志转到 zap
type asynqLogger struct{}

func (asynqLogger) Debug(args ...interface{}) { logger.S().Debug(args...) }
func (asynqLogger) Info(args ...interface{})  { logger.S().Info(args...) }
func (asynqLogger) Warn(args ...interface{})  { logger.S().Warn(args...) }
func (asynqLogger) Error(args ...interface{}) { logger.S().Error(args...) }
func (asynqLogger) Fatal(args ...interface{}) { logger.S().Fatal(args...) }
