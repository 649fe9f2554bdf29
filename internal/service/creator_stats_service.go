package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/oneinfo/affiliate-backend/internal/constants"
	"github.com/oneinfo/affiliate-backend/internal/logger"
	"github.com/oneinfo/affiliate-backend/internal/models"
	"github.com/oneinfo/affiliate-backend/internal/repository"

	"gorm.io/gorm"
)

const aggregateSwapAttempts = 3

// statusBuckets 订单状态到佣金桶的映射；paid 与 approved 共用同一个桶
var statusBuckets = map[string]string{
	constants.OrderStatusPending:  repository.BucketPendingCommission,
	constants.OrderStatusApproved: repository.BucketApprovedCommission,
	constants.OrderStatusDeclined: repository.BucketDeclinedCommission,
	constants.OrderStatusPaid:     repository.BucketApprovedCommission,
}

var errAggregateStale = errors.New("aggregate marker stale")

// CreatorStatsService 达人汇总增量更新服务
type CreatorStatsService struct {
	orderRepo repository.OrderRepository
	statsRepo repository.CreatorStatsRepository
}

// NewCreatorStatsService 创建达人汇总服务
func NewCreatorStatsService(orderRepo repository.OrderRepository, statsRepo repository.CreatorStatsRepository) *CreatorStatsService {
	return &CreatorStatsService{orderRepo: orderRepo, statsRepo: statsRepo}
}

// BucketForStatus 返回状态对应的佣金桶字段
func BucketForStatus(status string) (string, bool) {
	bucket, ok := statusBuckets[status]
	return bucket, ok
}

// ApplyIngestResult 将入库结果折算为汇总增量
func (s *CreatorStatsService) ApplyIngestResult(ctx context.Context, result *IngestResult) error {
	if result == nil || result.Order == nil {
		return nil
	}
	_, err := s.Reconcile(ctx, result.Order)
	return err
}

// Reconcile 把订单当前状态折算进达人汇总。
// 订单上的 aggregated_status 记录已计入的状态，增量与标记在同一事务内推进，
// 重放同一事件不会重复累加；返回是否产生了增量。
func (s *CreatorStatsService) Reconcile(ctx context.Context, order *models.Order) (bool, error) {
	current := order
	for attempt := 0; attempt < aggregateSwapAttempts; attempt++ {
		from, to := current.AggregatedStatus, current.Status
		if from == to {
			return false, nil
		}
		delta, err := buildStatsDelta(current, from, to)
		if err != nil {
			return false, err
		}
		err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
			swapped, err := s.orderRepo.WithTx(tx).SwapAggregatedStatus(current.ID, from, to)
			if err != nil {
				return err
			}
			if !swapped {
				return errAggregateStale
			}
			return s.statsRepo.WithTx(tx).ApplyDelta(current.CreatorID, delta)
		})
		if err == nil {
			order.AggregatedStatus = to
			logger.FromContext(ctx).Debugw("creator_stats_applied",
				"order_id", current.OrderID,
				"creator_id", current.CreatorID,
				"from", from,
				"to", to,
			)
			return true, nil
		}
		if !errors.Is(err, errAggregateStale) {
			return false, err
		}
		// 其他 worker 已推进标记，重新读取后按最新状态继续
		reloaded, getErr := s.orderRepo.GetByID(current.ID)
		if getErr != nil {
			return false, getErr
		}
		if reloaded == nil {
			return false, ErrNotFound
		}
		current = reloaded
	}
	return false, fmt.Errorf("creator stats reconcile contended: order=%s", order.OrderID)
}

// ReconcilePending 补偿汇总状态落后的订单（例如汇总写入失败后的遗留）
func (s *CreatorStatsService) ReconcilePending(ctx context.Context, limit int) (int, error) {
	orders, err := s.orderRepo.ListUnaggregated(limit)
	if err != nil {
		return 0, err
	}
	applied := 0
	for i := range orders {
		changed, err := s.Reconcile(ctx, &orders[i])
		if err != nil {
			logger.FromContext(ctx).Warnw("creator_stats_reconcile_failed", "order_id", orders[i].OrderID, "error", err)
			continue
		}
		if changed {
			applied++
		}
	}
	return applied, nil
}

// GetByCreatorID 查询达人汇总
func (s *CreatorStatsService) GetByCreatorID(creatorID string) (*models.CreatorStats, error) {
	stats, err := s.statsRepo.GetByCreatorID(creatorID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return &models.CreatorStats{CreatorID: creatorID}, nil
	}
	return stats, nil
}

// ListTop 按累计收入排序的达人
func (s *CreatorStatsService) ListTop(limit int) ([]models.CreatorStats, error) {
	return s.statsRepo.ListTop(limit)
}

// buildStatsDelta 计算从已计入状态 from 到当前状态 to 的增量；from 为空表示新订单
func buildStatsDelta(order *models.Order, from, to string) (repository.CreatorStatsDelta, error) {
	toBucket, ok := statusBuckets[to]
	if !ok {
		return repository.CreatorStatsDelta{}, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, to)
	}
	amount := order.CreatorCommissionAmount
	delta := repository.CreatorStatsDelta{Buckets: map[string]models.Money{}}

	if from == "" {
		delta.LifetimeRevenue = order.OrderValue
		delta.LifetimeCommission = amount
		delta.PlatformProfit = order.PlatformCommissionAmount
		delta.LifetimeOrders = 1
		delta.Buckets[toBucket] = amount
		return delta, nil
	}

	fromBucket, ok := statusBuckets[from]
	if !ok {
		return repository.CreatorStatsDelta{}, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, from)
	}
	if fromBucket == toBucket {
		// approved 与 paid 同桶，仅推进标记
		return delta, nil
	}
	delta.Buckets[fromBucket] = amount.Neg()
	delta.Buckets[toBucket] = amount
	return delta, nil
}
