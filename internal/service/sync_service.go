package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/admitad"
	"github.com/oneinfo/affiliate-backend/internal/cache"
	"github.com/oneinfo/affiliate-backend/internal/config"
	"github.com/oneinfo/affiliate-backend/internal/constants"
	"github.com/oneinfo/affiliate-backend/internal/logger"
	"github.com/oneinfo/affiliate-backend/internal/queue"
	"github.com/oneinfo/affiliate-backend/internal/repository"
)

const syncLockTTL = 10 * time.Minute

// ActionFetcher 上游转化拉取
type ActionFetcher interface {
	FetchActions(ctx context.Context, dateStart time.Time) ([]admitad.Action, error)
}

// OrderJobEnqueuer 订单入库任务投递
type OrderJobEnqueuer interface {
	EnqueueCreateOrder(payload queue.CreateOrderPayload) error
}

// SyncLocker 跨实例互斥
type SyncLocker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// SyncResult 一次拉取的结果
type SyncResult struct {
	Platform    string    `json:"platform"`
	WindowStart time.Time `json:"window_start"`
	Fetched     int       `json:"fetched"`
	Enqueued    int       `json:"enqueued"`
	Skipped     int       `json:"skipped"`
	Truncated   bool      `json:"truncated"`
}

// SyncService 上游平台订单拉取服务
type SyncService struct {
	fetcher   ActionFetcher
	enqueuer  OrderJobEnqueuer
	stateRepo repository.SyncStateRepository
	locker    SyncLocker
	cfg       config.AdmitadConfig
	now       func() time.Time
}

// NewSyncService 创建拉取服务；fetcher 为空表示未接入 Admitad
func NewSyncService(
	fetcher ActionFetcher,
	enqueuer OrderJobEnqueuer,
	stateRepo repository.SyncStateRepository,
	locker SyncLocker,
	cfg config.AdmitadConfig,
) *SyncService {
	return &SyncService{
		fetcher:   fetcher,
		enqueuer:  enqueuer,
		stateRepo: stateRepo,
		locker:    locker,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Enabled 是否已接入 Admitad
func (s *SyncService) Enabled() bool {
	return s != nil && s.fetcher != nil
}

// SyncAdmitad 拉取窗口内的转化并投递入库任务。
// override 非空时以其作为窗口起点（手动补拉）。
func (s *SyncService) SyncAdmitad(ctx context.Context, source string, override *time.Time) (*SyncResult, error) {
	if !s.Enabled() {
		return nil, ErrAdmitadDisabled
	}
	platform := constants.PlatformAdmitad
	log := logger.FromContext(ctx).With("platform", platform, "source", source)

	if s.locker != nil {
		release, err := s.locker.Obtain(ctx, "sync:"+platform, syncLockTTL)
		if err != nil {
			if errors.Is(err, cache.ErrLockNotObtained) {
				log.Infow("sync_skipped_locked")
				return nil, ErrSyncInProgress
			}
			return nil, err
		}
		defer release()
	}

	startedAt := s.now()
	windowStart, err := s.windowStart(platform, startedAt, override)
	if err != nil {
		return nil, err
	}
	actions, err := s.fetcher.FetchActions(ctx, windowStart)
	truncated := errors.Is(err, admitad.ErrActionsTruncated)
	if err != nil && !truncated {
		log.Errorw("sync_fetch_failed", "window_start", windowStart, "error", err)
		return nil, err
	}

	result := &SyncResult{Platform: platform, WindowStart: windowStart, Fetched: len(actions), Truncated: truncated}
	for _, action := range actions {
		payload, ok := s.actionToPayload(action, source)
		if !ok {
			result.Skipped++
			log.Warnw("sync_action_skipped", "action_id", action.ActionID.String(), "order_id", action.OrderID)
			continue
		}
		if err := s.enqueuer.EnqueueCreateOrder(payload); err != nil {
			log.Errorw("sync_enqueue_failed", "order_id", payload.OrderID, "enqueued", result.Enqueued, "error", err)
			return result, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
		}
		result.Enqueued++
	}

	// 窗口被截断时保留进度，剩余转化需缩小窗口（手动指定 date_start）补拉
	if truncated {
		log.Warnw("sync_window_truncated", "window_start", windowStart, "fetched", result.Fetched)
		return result, nil
	}

	// 全部投递成功后才推进进度
	if len(actions) > 0 {
		if err := s.stateRepo.Save(platform, startedAt); err != nil {
			return result, err
		}
	}
	log.Infow("sync_completed",
		"window_start", windowStart,
		"fetched", result.Fetched,
		"enqueued", result.Enqueued,
		"skipped", result.Skipped,
	)
	return result, nil
}

// ListActions 查看上游转化（不入库）
func (s *SyncService) ListActions(ctx context.Context, dateStart *time.Time) ([]admitad.Action, error) {
	if !s.Enabled() {
		return nil, ErrAdmitadDisabled
	}
	start := s.now().Add(-s.lookback())
	if dateStart != nil {
		start = dateStart.UTC()
	}
	actions, err := s.fetcher.FetchActions(ctx, start)
	if errors.Is(err, admitad.ErrActionsTruncated) {
		logger.FromContext(ctx).Warnw("admitad_actions_truncated", "date_start", start, "fetched", len(actions))
		return actions, nil
	}
	return actions, err
}

func (s *SyncService) windowStart(platform string, now time.Time, override *time.Time) (time.Time, error) {
	if override != nil {
		return override.UTC(), nil
	}
	state, err := s.stateRepo.GetByPlatform(platform)
	if err != nil {
		return time.Time{}, err
	}
	if state == nil {
		return now.Add(-s.lookback()), nil
	}
	overlap := time.Duration(s.cfg.SyncOverlapMinutes) * time.Minute
	if overlap <= 0 {
		overlap = time.Hour
	}
	return state.LastSyncAt.UTC().Add(-overlap), nil
}

func (s *SyncService) lookback() time.Duration {
	if s.cfg.InitialLookbackHour <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.cfg.InitialLookbackHour) * time.Hour
}

// actionToPayload Admitad 的 payment 为佣金金额，price/amount 为购物车金额
func (s *SyncService) actionToPayload(action admitad.Action, source string) (queue.CreateOrderPayload, bool) {
	orderID := strings.TrimSpace(action.OrderID)
	if orderID == "" {
		orderID = strings.TrimSpace(action.ActionID.String())
	}
	shortCode := strings.TrimSpace(action.SubID)
	if orderID == "" || shortCode == "" {
		return queue.CreateOrderPayload{}, false
	}
	category := strings.TrimSpace(s.cfg.DefaultCategory)
	if category == "" {
		category = "fashion"
	}
	payload := queue.CreateOrderPayload{
		OrderID:     orderID,
		Platform:    constants.PlatformAdmitad,
		Category:    category,
		OrderValue:  action.Payment,
		RawAmount:   action.CartAmount(),
		ShortCode:   shortCode,
		Status:      admitad.NormalizeStatus(action.Status),
		ProductName: strings.TrimSpace(action.Product),
		Source:      source,
	}
	if date, err := time.Parse("2006-01-02 15:04:05", strings.TrimSpace(action.ActionDate)); err == nil {
		utc := date.UTC()
		payload.TransactionDate = &utc
	}
	if payload.OrderValue.IsNegative() {
		return queue.CreateOrderPayload{}, false
	}
	return payload, true
}
