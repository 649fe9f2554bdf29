package service

import (
	"fmt"
	"strings"

	"github.com/oneinfo/affiliate-backend/internal/models"
	"github.com/oneinfo/affiliate-backend/internal/repository"

	"github.com/shopspring/decimal"
)

// CommissionRuleService 佣金规则服务
type CommissionRuleService struct {
	repo repository.CommissionRuleRepository
}

// NewCommissionRuleService 创建佣金规则服务
func NewCommissionRuleService(repo repository.CommissionRuleRepository) *CommissionRuleService {
	return &CommissionRuleService{repo: repo}
}

// CommissionRuleInput 规则写入参数
type CommissionRuleInput struct {
	Platform    string
	Category    string
	BrandRate   models.Money
	CreatorRate models.Money
}

// NormalizeRuleKey 统一平台与品类的大小写与空白
func NormalizeRuleKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// FindRule 按 (platform, category) 查询规则，不存在时返回 ErrCommissionRuleNotFound
func (s *CommissionRuleService) FindRule(platform, category string) (*models.CommissionRule, error) {
	p, c := NormalizeRuleKey(platform), NormalizeRuleKey(category)
	rule, err := s.repo.GetByKey(p, c)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, fmt.Errorf("%w: platform=%s category=%s", ErrCommissionRuleNotFound, p, c)
	}
	return rule, nil
}

// List 查询全部规则
func (s *CommissionRuleService) List() ([]models.CommissionRule, error) {
	return s.repo.List()
}

// Create 创建规则
func (s *CommissionRuleService) Create(input CommissionRuleInput) (*models.CommissionRule, error) {
	normalized, err := validateRuleInput(input)
	if err != nil {
		return nil, err
	}
	rule := &models.CommissionRule{
		Platform:    normalized.Platform,
		Category:    normalized.Category,
		BrandRate:   normalized.BrandRate,
		CreatorRate: normalized.CreatorRate,
	}
	if err := s.repo.Create(rule); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCommissionRuleExists
		}
		return nil, err
	}
	return rule, nil
}

// Update 更新规则
func (s *CommissionRuleService) Update(id uint, input CommissionRuleInput) (*models.CommissionRule, error) {
	rule, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrNotFound
	}
	normalized, err := validateRuleInput(input)
	if err != nil {
		return nil, err
	}
	rule.Platform = normalized.Platform
	rule.Category = normalized.Category
	rule.BrandRate = normalized.BrandRate
	rule.CreatorRate = normalized.CreatorRate
	if err := s.repo.Update(rule); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCommissionRuleExists
		}
		return nil, err
	}
	return rule, nil
}

// Delete 删除规则
func (s *CommissionRuleService) Delete(id uint) error {
	deleted, err := s.repo.Delete(id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func validateRuleInput(input CommissionRuleInput) (CommissionRuleInput, error) {
	input.Platform = NormalizeRuleKey(input.Platform)
	input.Category = NormalizeRuleKey(input.Category)
	if input.Platform == "" || input.Category == "" {
		return input, ErrInvalidInput
	}
	hundred := decimal.NewFromInt(100)
	if input.BrandRate.IsNegative() || input.CreatorRate.IsNegative() ||
		input.BrandRate.GreaterThan(hundred) || input.CreatorRate.GreaterThan(hundred) {
		return input, ErrCommissionRateInvalid
	}
	// 达人分成不得高于品牌佣金，仅在写入时校验
	if input.CreatorRate.GreaterThan(input.BrandRate.Decimal) {
		return input, ErrCommissionRateInvalid
	}
	return input, nil
}
