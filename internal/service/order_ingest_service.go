package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/constants"
	"github.com/oneinfo/affiliate-backend/internal/logger"
	"github.com/oneinfo/affiliate-backend/internal/models"
	"github.com/oneinfo/affiliate-backend/internal/repository"
)

// IngestOrderInput 待入库的订单事件
type IngestOrderInput struct {
	OrderID         string
	Platform        string
	Category        string
	OrderValue      models.Money
	RawAmount       *models.Money
	CreatorID       string
	ShortCode       string
	Status          string
	ProductName     string
	CustomerType    string
	TransactionDate *time.Time
}

// IngestResult 入库结果
type IngestResult struct {
	Order          *models.Order
	IsNew          bool
	PreviousStatus string
}

// OrderIngestService 订单幂等入库服务
type OrderIngestService struct {
	orderRepo repository.OrderRepository
	linkRepo  repository.AffiliateLinkRepository
	rules     *CommissionRuleService
	now       func() time.Time
}

// NewOrderIngestService 创建订单入库服务
func NewOrderIngestService(
	orderRepo repository.OrderRepository,
	linkRepo repository.AffiliateLinkRepository,
	rules *CommissionRuleService,
) *OrderIngestService {
	return &OrderIngestService{
		orderRepo: orderRepo,
		linkRepo:  linkRepo,
		rules:     rules,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// IngestOrder 按外部订单号决定新建或更新状态。
// 返回 nil, nil 表示短码无法解析到达人，事件应丢弃而非重试。
func (s *OrderIngestService) IngestOrder(ctx context.Context, input IngestOrderInput) (*IngestResult, error) {
	input.OrderID = strings.TrimSpace(input.OrderID)
	if input.OrderID == "" {
		return nil, fmt.Errorf("%w: order_id is required", ErrOrderInputInvalid)
	}
	status, err := normalizeOrderStatus(input.Status)
	if err != nil {
		return nil, err
	}

	existing, err := s.orderRepo.GetByOrderID(input.OrderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.applyStatus(existing, status)
	}

	creatorID := strings.TrimSpace(input.CreatorID)
	shortCode := strings.TrimSpace(input.ShortCode)
	if creatorID == "" {
		link, err := s.linkRepo.GetByShortCode(shortCode)
		if err != nil {
			return nil, err
		}
		if link == nil {
			logger.FromContext(ctx).Warnw("order_ingest_subid_unresolved",
				"order_id", input.OrderID,
				"short_code", shortCode,
				"platform", input.Platform,
			)
			return nil, nil
		}
		creatorID = link.CreatorID
	}

	rule, err := s.rules.FindRule(input.Platform, input.Category)
	if err != nil {
		return nil, err
	}
	split := PolicyForPlatform(rule.Platform).Compute(input.OrderValue, rule)

	orderValue := input.OrderValue
	if input.RawAmount != nil && input.RawAmount.IsPositive() {
		orderValue = *input.RawAmount
	}
	initialStatus := status
	if initialStatus == "" {
		initialStatus = constants.OrderStatusPending
	}
	now := s.now()
	order := &models.Order{
		OrderID:                  input.OrderID,
		ShortCode:                shortCode,
		CreatorID:                creatorID,
		ProductName:              strings.TrimSpace(input.ProductName),
		Category:                 rule.Category,
		Platform:                 rule.Platform,
		OrderValue:               orderValue,
		CommissionBase:           input.OrderValue,
		BrandCommissionRate:      split.BrandRate,
		BrandCommissionAmount:    split.BrandAmount,
		CreatorCommissionRate:    split.CreatorRate,
		CreatorCommissionAmount:  split.CreatorAmount,
		PlatformCommissionAmount: split.PlatformAmount,
		Status:                   initialStatus,
		CustomerType:             strings.TrimSpace(input.CustomerType),
		TransactionDate:          input.TransactionDate,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if err := s.orderRepo.Create(order); err != nil {
		if !isUniqueViolation(err) {
			return nil, err
		}
		// 并发创建时以已落库的订单为准，未携带状态视为重放
		existing, getErr := s.orderRepo.GetByOrderID(input.OrderID)
		if getErr != nil {
			return nil, getErr
		}
		if existing == nil {
			return nil, err
		}
		return s.applyStatus(existing, status)
	}
	return &IngestResult{Order: order, IsNew: true}, nil
}

// applyStatus 已存在订单：状态不同则原地更新，否则为幂等重放
func (s *OrderIngestService) applyStatus(order *models.Order, status string) (*IngestResult, error) {
	previous := order.Status
	if status == "" || status == previous {
		return &IngestResult{Order: order, IsNew: false, PreviousStatus: previous}, nil
	}
	now := s.now()
	if err := s.orderRepo.UpdateStatus(order.ID, status, now); err != nil {
		return nil, err
	}
	order.Status = status
	order.UpdatedAt = now
	return &IngestResult{Order: order, IsNew: false, PreviousStatus: previous}, nil
}

func normalizeOrderStatus(raw string) (string, error) {
	status := strings.ToLower(strings.TrimSpace(raw))
	if status == "" {
		return "", nil
	}
	if !constants.IsValidOrderStatus(status) {
		return "", fmt.Errorf("%w: %s", ErrInvalidOrderStatus, raw)
	}
	return status, nil
}
