package app

import (
	"errors"

	"github.com/oneinfo/affiliate-backend/internal/cache"
	"github.com/oneinfo/affiliate-backend/internal/config"
	"github.com/oneinfo/affiliate-backend/internal/logger"
	"github.com/oneinfo/affiliate-backend/internal/models"
	"github.com/oneinfo/affiliate-backend/internal/provider"
	"github.com/oneinfo/affiliate-backend/internal/router"
	"github.com/oneinfo/affiliate-backend/internal/worker"
)

// BuildRunner 按启动模式组装服务
func BuildRunner(cfg *config.Config, opts Options) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	opts = normalizeOptions(opts)

	container := provider.NewContainer(cfg)

	var services []Service

	// HTTP、点击记录与健康探测
	if opts.servesAPI() {
		engine := router.SetupRouter(cfg, container)
		services = append(services,
			NewHTTPService(cfg.Server, engine),
			container.ClickTracker,
			container.HealthMonitor(models.DB),
		)
	}

	// 队列消费与定时拉取
	if opts.runsWorker() {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)

		if container.SyncService.Enabled() {
			services = append(services, worker.NewScheduler(container.SyncService, cfg.Admitad.SyncEveryMinutes))
		} else {
			logger.Infow("scheduler_admitad_disabled")
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	runner := NewRunner(services...)
	runner.OnShutdown("database", models.CloseDB)
	runner.OnShutdown("redis", cache.Close)
	runner.OnShutdown("queue_client", container.QueueClient.Close)
	return runner, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", opts.Config.Server.Addr(), "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
