package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AffiliateLinkRepository 推广链接数据访问接口
type AffiliateLinkRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) AffiliateLinkRepository

	Create(link *models.AffiliateLink) error
	GetByShortCode(shortCode string) (*models.AffiliateLink, error)
	List(filter LinkListFilter) ([]models.AffiliateLink, int64, error)
	SetActive(shortCode string, active bool) (bool, error)
	IncrementClickCount(shortCode string) error
	IncrementLinkStats(shortCode, creatorID string) error
	GetLinkStats(shortCode string) (*models.LinkStats, error)
}

// GormAffiliateLinkRepository GORM 实现
type GormAffiliateLinkRepository struct {
	db *gorm.DB
}

// NewAffiliateLinkRepository 创建推广链接仓库
func NewAffiliateLinkRepository(db *gorm.DB) *GormAffiliateLinkRepository {
	return &GormAffiliateLinkRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAffiliateLinkRepository) WithTx(tx *gorm.DB) AffiliateLinkRepository {
	if tx == nil {
		return r
	}
	return &GormAffiliateLinkRepository{db: tx}
}

// Transaction 执行事务
func (r *GormAffiliateLinkRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建推广链接
func (r *GormAffiliateLinkRepository) Create(link *models.AffiliateLink) error {
	return r.db.Create(link).Error
}

// GetByShortCode 按短码查询推广链接
func (r *GormAffiliateLinkRepository) GetByShortCode(shortCode string) (*models.AffiliateLink, error) {
	code := strings.TrimSpace(shortCode)
	if code == "" {
		return nil, nil
	}
	var link models.AffiliateLink
	if err := r.db.Where("short_code = ?", code).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// List 推广链接列表
func (r *GormAffiliateLinkRepository) List(filter LinkListFilter) ([]models.AffiliateLink, int64, error) {
	query := r.db.Model(&models.AffiliateLink{})
	if creatorID := strings.TrimSpace(filter.CreatorID); creatorID != "" {
		query = query.Where("creator_id = ?", creatorID)
	}
	if platform := strings.TrimSpace(filter.Platform); platform != "" {
		query = query.Where("platform = ?", platform)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	query = applyKeyword(query, filter.Keyword, "short_code", "product_title", "original_url")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.AffiliateLink
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// SetActive 启用或停用推广链接
func (r *GormAffiliateLinkRepository) SetActive(shortCode string, active bool) (bool, error) {
	result := r.db.Model(&models.AffiliateLink{}).
		Where("short_code = ?", strings.TrimSpace(shortCode)).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IncrementClickCount 有效点击数加一
func (r *GormAffiliateLinkRepository) IncrementClickCount(shortCode string) error {
	return r.db.Model(&models.AffiliateLink{}).
		Where("short_code = ?", shortCode).
		UpdateColumn("click_count", gorm.Expr("click_count + 1")).Error
}

// IncrementLinkStats 短链汇总点击加一，不存在时创建
func (r *GormAffiliateLinkRepository) IncrementLinkStats(shortCode, creatorID string) error {
	now := time.Now().UTC()
	row := models.LinkStats{
		ShortCode:   shortCode,
		CreatorID:   creatorID,
		TotalClicks: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "short_code"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_clicks": gorm.Expr("link_stats.total_clicks + 1"),
			"updated_at":   now,
		}),
	}).Create(&row).Error
}

// GetLinkStats 查询短链汇总
func (r *GormAffiliateLinkRepository) GetLinkStats(shortCode string) (*models.LinkStats, error) {
	var stats models.LinkStats
	if err := r.db.Where("short_code = ?", shortCode).First(&stats).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &stats, nil
}
