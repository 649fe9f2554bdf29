package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/constants"
	"github.com/oneinfo/affiliate-backend/internal/models"

	"gorm.io/gorm"
)

// PayoutRepository 结算单数据访问接口
type PayoutRepository interface {
	Create(payout *models.Payout) error
	GetByID(id uint) (*models.Payout, error)
	GetByPeriod(creatorID string, periodStart, periodEnd time.Time) (*models.Payout, error)
	MarkPaid(id uint, paidAt time.Time) (bool, error)
	List(filter PayoutListFilter) ([]models.Payout, int64, error)
}

// GormPayoutRepository GORM 实现
type GormPayoutRepository struct {
	db *gorm.DB
}

// NewPayoutRepository 创建结算单仓库
func NewPayoutRepository(db *gorm.DB) *GormPayoutRepository {
	return &GormPayoutRepository{db: db}
}

// Create 创建结算单
func (r *GormPayoutRepository) Create(payout *models.Payout) error {
	return r.db.Create(payout).Error
}

// GetByID 按 ID 查询结算单
func (r *GormPayoutRepository) GetByID(id uint) (*models.Payout, error) {
	if id == 0 {
		return nil, nil
	}
	var payout models.Payout
	if err := r.db.First(&payout, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// GetByPeriod 按 (达人, 周期) 查询结算单
func (r *GormPayoutRepository) GetByPeriod(creatorID string, periodStart, periodEnd time.Time) (*models.Payout, error) {
	var payout models.Payout
	err := r.db.Where("creator_id = ? AND period_start = ? AND period_end = ?", creatorID, periodStart, periodEnd).
		First(&payout).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// MarkPaid 将待支付结算单标记为已支付，返回是否发生状态变更
func (r *GormPayoutRepository) MarkPaid(id uint, paidAt time.Time) (bool, error) {
	result := r.db.Model(&models.Payout{}).
		Where("id = ? AND status = ?", id, constants.PayoutStatusPending).
		Updates(map[string]interface{}{
			"status":     constants.PayoutStatusPaid,
			"paid_at":    paidAt,
			"updated_at": paidAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// List 结算单列表
func (r *GormPayoutRepository) List(filter PayoutListFilter) ([]models.Payout, int64, error) {
	query := r.db.Model(&models.Payout{})
	if creatorID := strings.TrimSpace(filter.CreatorID); creatorID != "" {
		query = query.Where("creator_id = ?", creatorID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Payout
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
