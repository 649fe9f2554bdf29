package repository

import (
	"time"

	"github.com/oneinfo/affiliate-backend/internal/models"

	"gorm.io/gorm"
)

// ClickEventRepository 点击日志数据访问接口
type ClickEventRepository interface {
	WithTx(tx *gorm.DB) ClickEventRepository
	Create(event *models.ClickEvent) error
	CountByIPSince(ip string, since time.Time) (int64, error)
	CountByShortCodeSince(shortCode string, since time.Time) (int64, error)
	ListFraud(limit int) ([]models.ClickEvent, error)
}

// GormClickEventRepository GORM 实现
type GormClickEventRepository struct {
	db *gorm.DB
}

// NewClickEventRepository 创建点击日志仓库
func NewClickEventRepository(db *gorm.DB) *GormClickEventRepository {
	return &GormClickEventRepository{db: db}
}

// WithTx 绑定事务
func (r *GormClickEventRepository) WithTx(tx *gorm.DB) ClickEventRepository {
	if tx == nil {
		return r
	}
	return &GormClickEventRepository{db: tx}
}

// Create 追加点击日志
func (r *GormClickEventRepository) Create(event *models.ClickEvent) error {
	return r.db.Create(event).Error
}

// CountByIPSince 统计窗口内同一 IP 的点击数
func (r *GormClickEventRepository) CountByIPSince(ip string, since time.Time) (int64, error) {
	if ip == "" {
		return 0, nil
	}
	var total int64
	err := r.db.Model(&models.ClickEvent{}).
		Where("ip_address = ? AND created_at >= ?", ip, since).
		Count(&total).Error
	return total, err
}

// CountByShortCodeSince 统计窗口内同一短码的点击数
func (r *GormClickEventRepository) CountByShortCodeSince(shortCode string, since time.Time) (int64, error) {
	var total int64
	err := r.db.Model(&models.ClickEvent{}).
		Where("short_code = ? AND created_at >= ?", shortCode, since).
		Count(&total).Error
	return total, err
}

// ListFraud 最近的作弊点击
func (r *GormClickEventRepository) ListFraud(limit int) ([]models.ClickEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.ClickEvent
	if err := r.db.Where("is_fraud = ?", true).Order("created_at desc, id desc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
