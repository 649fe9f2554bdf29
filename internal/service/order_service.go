package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/constants"
	"github.com/oneinfo/affiliate-backend/internal/logger"
	"github.com/oneinfo/affiliate-backend/internal/models"
	"github.com/oneinfo/affiliate-backend/internal/queue"
	"github.com/oneinfo/affiliate-backend/internal/repository"
)

// OrderService 订单直推与后台管理
type OrderService struct {
	orderRepo repository.OrderRepository
	stats     *CreatorStatsService
	enqueuer  OrderJobEnqueuer
	now       func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, stats *CreatorStatsService, enqueuer OrderJobEnqueuer) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		stats:     stats,
		enqueuer:  enqueuer,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SubmitOrder 校验直推订单并投递入库任务
func (s *OrderService) SubmitOrder(ctx context.Context, payload queue.CreateOrderPayload) error {
	payload.OrderID = strings.TrimSpace(payload.OrderID)
	payload.Platform = NormalizeRuleKey(payload.Platform)
	payload.Category = NormalizeRuleKey(payload.Category)
	payload.CreatorID = strings.TrimSpace(payload.CreatorID)
	payload.ShortCode = strings.TrimSpace(payload.ShortCode)
	payload.Status = strings.ToLower(strings.TrimSpace(payload.Status))
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrOrderInputInvalid, err)
	}
	if payload.Status != "" && !constants.IsValidOrderStatus(payload.Status) {
		return fmt.Errorf("%w: %s", ErrInvalidOrderStatus, payload.Status)
	}
	if payload.Source == "" {
		payload.Source = constants.OrderSourceAPI
	}
	if s.enqueuer == nil {
		return ErrQueueUnavailable
	}
	if err := s.enqueuer.EnqueueCreateOrder(payload); err != nil {
		logger.FromContext(ctx).Errorw("order_submit_enqueue_failed", "order_id", payload.OrderID, "error", err)
		return fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}
	logger.FromContext(ctx).Infow("order_submitted", "order_id", payload.OrderID, "platform", payload.Platform)
	return nil
}

// List 订单列表
func (s *OrderService) List(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	if filter.Status != "" && !constants.IsValidOrderStatus(filter.Status) {
		return nil, 0, ErrInvalidOrderStatus
	}
	return s.orderRepo.List(filter)
}

// UpdateStatus 后台修改订单状态，并同步达人汇总的佣金桶
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !constants.IsValidOrderStatus(status) {
		return nil, ErrInvalidOrderStatus
	}
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	if order.Status != status {
		now := s.now()
		if err := s.orderRepo.UpdateStatus(order.ID, status, now); err != nil {
			return nil, err
		}
		logger.FromContext(ctx).Infow("order_status_updated", "order_id", order.OrderID, "from", order.Status, "to", status)
		order.Status = status
		order.UpdatedAt = now
	}
	// 汇总失败不回滚订单，由补偿任务继续推进
	if _, err := s.stats.Reconcile(ctx, order); err != nil && !errors.Is(err, ErrNotFound) {
		logger.FromContext(ctx).Warnw("order_status_stats_deferred", "order_id", order.OrderID, "error", err)
	}
	return order, nil
}

// PlatformProfit 按订单状态汇总平台利润
func (s *OrderService) PlatformProfit() ([]repository.StatusProfitRow, error) {
	return s.orderRepo.SumPlatformProfitByStatus()
}
