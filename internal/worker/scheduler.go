package worker

import (
	"context"
	"errors"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/constants"
	"github.com/oneinfo/affiliate-backend/internal/logger"
	"github.com/oneinfo/affiliate-backend/internal/service"

	"github.com/go-co-op/gocron"
)

// Syncer 上游订单拉取
type Syncer interface {
	SyncAdmitad(ctx context.Context, source string, override *time.Time) (*service.SyncResult, error)
}

// Scheduler 定时拉取上游订单
type Scheduler struct {
	scheduler *gocron.Scheduler
	syncer    Syncer
	every     int
}

// NewScheduler 创建定时任务服务
func NewScheduler(syncer Syncer, everyMinutes int) *Scheduler {
	if everyMinutes <= 0 {
		everyMinutes = 10
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		syncer:    syncer,
		every:     everyMinutes,
	}
}

// Name 服务名称
func (s *Scheduler) Name() string {
	return "scheduler"
}

// Start 注册任务并阻塞到 ctx 结束
func (s *Scheduler) Start(ctx context.Context) error {
	if s.syncer == nil {
		return errors.New("scheduler syncer is nil")
	}
	_, err := s.scheduler.Every(s.every).Minutes().SingletonMode().Do(func() {
		s.runSync(ctx)
	})
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	<-ctx.Done()
	return nil
}

// Stop 停止定时任务
func (s *Scheduler) Stop(ctx context.Context) error {
	_ = ctx
	if s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
	return nil
}

func (s *Scheduler) runSync(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	_, err := s.syncer.SyncAdmitad(ctx, constants.OrderSourceCron, nil)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrSyncInProgress), errors.Is(err, service.ErrAdmitadDisabled):
		logger.Debugw("scheduler_admitad_sync_skipped", "reason", err.Error())
	default:
		logger.Warnw("scheduler_admitad_sync_failed", "error", err)
	}
}
