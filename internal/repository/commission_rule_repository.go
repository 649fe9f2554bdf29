package repository

import (
	"errors"

	"github.com/oneinfo/affiliate-backend/internal/models"

	"gorm.io/gorm"
)

// CommissionRuleRepository 佣金规则数据访问接口
type CommissionRuleRepository interface {
	GetByKey(platform, category string) (*models.CommissionRule, error)
	GetByID(id uint) (*models.CommissionRule, error)
	List() ([]models.CommissionRule, error)
	Create(rule *models.CommissionRule) error
	Update(rule *models.CommissionRule) error
	Delete(id uint) (bool, error)
}

// GormCommissionRuleRepository GORM 实现
type GormCommissionRuleRepository struct {
	db *gorm.DB
}

// NewCommissionRuleRepository 创建佣金规则仓库
func NewCommissionRuleRepository(db *gorm.DB) *GormCommissionRuleRepository {
	return &GormCommissionRuleRepository{db: db}
}

// GetByKey 按 (platform, category) 查询规则，调用方负责归一化
func (r *GormCommissionRuleRepository) GetByKey(platform, category string) (*models.CommissionRule, error) {
	if platform == "" || category == "" {
		return nil, nil
	}
	var rule models.CommissionRule
	if err := r.db.Where("platform = ? AND category = ?", platform, category).First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// GetByID 按 ID 查询规则
func (r *GormCommissionRuleRepository) GetByID(id uint) (*models.CommissionRule, error) {
	if id == 0 {
		return nil, nil
	}
	var rule models.CommissionRule
	if err := r.db.First(&rule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// List 查询全部规则
func (r *GormCommissionRuleRepository) List() ([]models.CommissionRule, error) {
	var rules []models.CommissionRule
	if err := r.db.Order("platform asc, category asc").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// Create 创建规则
func (r *GormCommissionRuleRepository) Create(rule *models.CommissionRule) error {
	return r.db.Create(rule).Error
}

// Update 更新规则
func (r *GormCommissionRuleRepository) Update(rule *models.CommissionRule) error {
	return r.db.Save(rule).Error
}

// Delete 删除规则，返回是否存在
func (r *GormCommissionRuleRepository) Delete(id uint) (bool, error) {
	result := r.db.Delete(&models.CommissionRule{}, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
