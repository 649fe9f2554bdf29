package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/constants"
	"github.com/oneinfo/affiliate-backend/internal/logger"
	"github.com/oneinfo/affiliate-backend/internal/models"
	"github.com/oneinfo/affiliate-backend/internal/queue"
	"github.com/oneinfo/affiliate-backend/internal/repository"
)

const payoutDateLayout = "2006-01-02"

// settleableStatuses 可纳入结算的订单状态
var settleableStatuses = []string{constants.OrderStatusApproved}

// PayoutJobEnqueuer 结算任务投递
type PayoutJobEnqueuer interface {
	EnqueueGeneratePayout(payload queue.GeneratePayoutPayload) error
}

// PayoutPeriod 结算周期；Start/End 为结算单上记录的边界，windowEnd 为查询用的开区间上界
type PayoutPeriod struct {
	Start     time.Time
	End       time.Time
	windowEnd time.Time
}

// ParsePayoutPeriod 解析 ISO 日期或 RFC3339 时间。
// 纯日期的结束日包含当天全部订单。
func ParsePayoutPeriod(rawStart, rawEnd string) (PayoutPeriod, error) {
	start, _, err := parsePeriodBound(rawStart)
	if err != nil {
		return PayoutPeriod{}, err
	}
	end, dateOnly, err := parsePeriodBound(rawEnd)
	if err != nil {
		return PayoutPeriod{}, err
	}
	windowEnd := end
	if dateOnly {
		windowEnd = end.AddDate(0, 0, 1)
	}
	if !windowEnd.After(start) {
		return PayoutPeriod{}, fmt.Errorf("%w: end before start", ErrPayoutPeriodInvalid)
	}
	return PayoutPeriod{Start: start, End: end, windowEnd: windowEnd}, nil
}

func parsePeriodBound(raw string) (time.Time, bool, error) {
	value := strings.TrimSpace(raw)
	if t, err := time.Parse(payoutDateLayout, value); err == nil {
		return t.UTC(), true, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), false, nil
	}
	return time.Time{}, false, fmt.Errorf("%w: %q", ErrPayoutPeriodInvalid, raw)
}

// GeneratePayoutResult 结算单生成结果
type GeneratePayoutResult struct {
	Payout     *models.Payout `json:"payout,omitempty"`
	Skipped    bool           `json:"skipped"`
	SkipReason string         `json:"skip_reason,omitempty"`
}

// PayoutService 结算单服务
type PayoutService struct {
	orderRepo  repository.OrderRepository
	payoutRepo repository.PayoutRepository
	queue      PayoutJobEnqueuer
	now        func() time.Time
}

// NewPayoutService 创建结算单服务
func NewPayoutService(orderRepo repository.OrderRepository, payoutRepo repository.PayoutRepository, queue PayoutJobEnqueuer) *PayoutService {
	return &PayoutService{
		orderRepo:  orderRepo,
		payoutRepo: payoutRepo,
		queue:      queue,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// GeneratePayout 汇总周期内可结算订单生成结算单，同一 (达人, 周期) 只生成一次。
// 不会修改订单状态。
func (s *PayoutService) GeneratePayout(ctx context.Context, creatorID string, period PayoutPeriod) (*GeneratePayoutResult, error) {
	creatorID = strings.TrimSpace(creatorID)
	if creatorID == "" {
		return nil, ErrInvalidInput
	}
	log := logger.FromContext(ctx).With("creator_id", creatorID, "period_start", period.Start, "period_end", period.End)

	totals, err := s.orderRepo.SumSettleable(creatorID, settleableStatuses, period.Start, period.windowEnd)
	if err != nil {
		return nil, err
	}
	if totals.TotalOrders == 0 {
		log.Infow("payout_skipped_no_orders")
		return &GeneratePayoutResult{Skipped: true, SkipReason: "no_settleable_orders"}, nil
	}

	existing, err := s.payoutRepo.GetByPeriod(creatorID, period.Start, period.End)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Infow("payout_skipped_exists", "payout_id", existing.ID)
		return &GeneratePayoutResult{Payout: existing, Skipped: true, SkipReason: "already_generated"}, nil
	}

	now := s.now()
	payout := &models.Payout{
		CreatorID:       creatorID,
		PeriodStart:     period.Start,
		PeriodEnd:       period.End,
		TotalOrders:     totals.TotalOrders,
		TotalRevenue:    totals.TotalRevenue,
		TotalCommission: totals.TotalCommission,
		Status:          constants.PayoutStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.payoutRepo.Create(payout); err != nil {
		if isUniqueViolation(err) {
			log.Infow("payout_skipped_concurrent")
			return &GeneratePayoutResult{Skipped: true, SkipReason: "already_generated"}, nil
		}
		return nil, err
	}
	log.Infow("payout_generated", "payout_id", payout.ID, "total_orders", payout.TotalOrders, "total_commission", payout.TotalCommission.String())
	return &GeneratePayoutResult{Payout: payout}, nil
}

// RequestPayout 校验参数后投递结算任务
func (s *PayoutService) RequestPayout(creatorID, rawStart, rawEnd string) error {
	creatorID = strings.TrimSpace(creatorID)
	if creatorID == "" {
		return ErrInvalidInput
	}
	if _, err := ParsePayoutPeriod(rawStart, rawEnd); err != nil {
		return err
	}
	if s.queue == nil {
		return ErrQueueUnavailable
	}
	if err := s.queue.EnqueueGeneratePayout(queue.GeneratePayoutPayload{
		CreatorID:   creatorID,
		PeriodStart: strings.TrimSpace(rawStart),
		PeriodEnd:   strings.TrimSpace(rawEnd),
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}
	return nil
}

// MarkPaid 标记结算单已支付
func (s *PayoutService) MarkPaid(id uint) (*models.Payout, error) {
	payout, err := s.payoutRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, ErrPayoutNotFound
	}
	if payout.Status == constants.PayoutStatusPaid {
		return nil, ErrPayoutAlreadyPaid
	}
	now := s.now()
	changed, err := s.payoutRepo.MarkPaid(id, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, ErrPayoutAlreadyPaid
	}
	payout.Status = constants.PayoutStatusPaid
	payout.PaidAt = &now
	payout.UpdatedAt = now
	return payout, nil
}

// List 结算单列表
func (s *PayoutService) List(filter repository.PayoutListFilter) ([]models.Payout, int64, error) {
	return s.payoutRepo.List(filter)
}
