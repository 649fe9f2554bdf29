package provider

import (
	"context"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/admitad"
	"github.com/oneinfo/affiliate-backend/internal/authz"
	"github.com/oneinfo/affiliate-backend/internal/cache"
	"github.com/oneinfo/affiliate-backend/internal/config"
	"github.com/oneinfo/affiliate-backend/internal/lifecycle"
	"github.com/oneinfo/affiliate-backend/internal/logger"
	"github.com/oneinfo/affiliate-backend/internal/models"
	"github.com/oneinfo/affiliate-backend/internal/queue"
	"github.com/oneinfo/affiliate-backend/internal/repository"
	"github.com/oneinfo/affiliate-backend/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config        *config.Config
	QueueClient   *queue.Client
	AdmitadClient *admitad.Client
	Lifecycle     *lifecycle.Tracker
	Authz         *authz.Service

	// Repositories
	OrderRepo          repository.OrderRepository
	CommissionRuleRepo repository.CommissionRuleRepository
	CreatorStatsRepo   repository.CreatorStatsRepository
	PayoutRepo         repository.PayoutRepository
	LinkRepo           repository.AffiliateLinkRepository
	ClickEventRepo     repository.ClickEventRepository
	SyncStateRepo      repository.SyncStateRepository
	JobRepo            repository.JobRepository
	AuthzAuditRepo     repository.AuthzAuditLogRepository

	// Services
	CommissionRuleService *service.CommissionRuleService
	OrderIngestService    *service.OrderIngestService
	CreatorStatsService   *service.CreatorStatsService
	OrderService          *service.OrderService
	PayoutService         *service.PayoutService
	FraudService          *service.FraudService
	ClickService          *service.ClickService
	ClickTracker          *service.ClickTracker
	LinkService           *service.LinkService
	SyncService           *service.SyncService
	ReportImportService   *service.ReportImportService
	JobService            *service.JobService
	AuthzAuditService     *service.AuthzAuditService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	return NewContainerWithDB(cfg, models.DB)
}

// NewContainerWithDB 使用指定数据库初始化容器
func NewContainerWithDB(cfg *config.Config, db *gorm.DB) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端（未启用时投递返回 ErrQueueDisabled）
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Lifecycle:   lifecycle.NewTracker(),
	}
	c.initAdmitad()
	c.initAuthz(db)

	// 1. 初始化 Repositories
	c.initRepositories(db)

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initAdmitad() {
	if !c.Config.Admitad.Enabled {
		return
	}
	client, err := admitad.NewClient(context.Background(), c.Config.Admitad)
	if err != nil {
		logger.Errorw("provider_init_admitad_failed", "error", err)
		return
	}
	c.AdmitadClient = client
}

// initAuthz 初始化管理端授权，失败时管理端接口全部拒绝
func (c *Container) initAuthz(db *gorm.DB) {
	svc, err := authz.NewService(db)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		return
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_authz_roles_failed", "error", err)
		return
	}
	c.Authz = svc
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.OrderRepo = repository.NewOrderRepository(db)
	c.CommissionRuleRepo = repository.NewCommissionRuleRepository(db)
	c.CreatorStatsRepo = repository.NewCreatorStatsRepository(db)
	c.PayoutRepo = repository.NewPayoutRepository(db)
	c.LinkRepo = repository.NewAffiliateLinkRepository(db)
	c.ClickEventRepo = repository.NewClickEventRepository(db)
	c.SyncStateRepo = repository.NewSyncStateRepository(db)
	c.JobRepo = repository.NewJobRepository(db)
	c.AuthzAuditRepo = repository.NewAuthzAuditLogRepository(db)
}

func (c *Container) initServices() {
	// 接口参数需避免传入带类型的 nil
	var fetcher service.ActionFetcher
	var deeplink service.DeeplinkBuilder
	if c.AdmitadClient != nil {
		fetcher = c.AdmitadClient
		deeplink = c.AdmitadClient
	}

	c.CommissionRuleService = service.NewCommissionRuleService(c.CommissionRuleRepo)
	c.OrderIngestService = service.NewOrderIngestService(c.OrderRepo, c.LinkRepo, c.CommissionRuleService)
	c.CreatorStatsService = service.NewCreatorStatsService(c.OrderRepo, c.CreatorStatsRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.CreatorStatsService, c.QueueClient)
	c.PayoutService = service.NewPayoutService(c.OrderRepo, c.PayoutRepo, c.QueueClient)
	c.FraudService = service.NewFraudService(c.ClickEventRepo, c.Config.Fraud)
	c.ClickService = service.NewClickService(c.LinkRepo, c.ClickEventRepo, c.CreatorStatsRepo, c.FraudService)
	c.ClickTracker = service.NewClickTracker(c.ClickService, c.Config.ClickTracker)
	c.LinkService = service.NewLinkService(c.LinkRepo, deeplink, c.Config.Links)
	c.SyncService = service.NewSyncService(fetcher, c.QueueClient, c.SyncStateRepo, cache.NewLocker(), c.Config.Admitad)
	c.ReportImportService = service.NewReportImportService(c.OrderRepo, c.QueueClient)
	c.JobService = service.NewJobService(c.JobRepo)
	c.AuthzAuditService = service.NewAuthzAuditService(c.AuthzAuditRepo)
}

// HealthMonitor 构建依赖探测服务
func (c *Container) HealthMonitor(db *gorm.DB) *lifecycle.Monitor {
	interval := time.Duration(c.Config.Health.ProbeIntervalSeconds) * time.Second
	timeout := time.Duration(c.Config.Health.ProbeTimeoutMS) * time.Millisecond
	return lifecycle.NewMonitor(c.Lifecycle, interval, timeout,
		lifecycle.Probe{Name: "database", Check: func(ctx context.Context) error { return models.PingDB(ctx, db) }},
		lifecycle.Probe{Name: "redis", Check: cache.Ping},
	)
}
