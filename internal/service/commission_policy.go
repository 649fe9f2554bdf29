package service

import (
	"github.com/oneinfo/affiliate-backend/internal/constants"
	"github.com/oneinfo/affiliate-backend/internal/models"
)

// CommissionSplit 一笔订单的佣金拆分结果
type CommissionSplit struct {
	BrandRate      models.Money
	BrandAmount    models.Money
	CreatorRate    models.Money
	CreatorAmount  models.Money
	PlatformAmount models.Money
}

// CommissionPolicy 佣金计算策略
type CommissionPolicy interface {
	Name() string
	Compute(amount models.Money, rule *models.CommissionRule) CommissionSplit
}

// payoutGivenPolicy 上游直接给出佣金金额
type payoutGivenPolicy struct{}

func (payoutGivenPolicy) Name() string { return "payout_given" }

func (payoutGivenPolicy) Compute(amount models.Money, rule *models.CommissionRule) CommissionSplit {
	creator := amount.Percent(rule.CreatorRate)
	return CommissionSplit{
		BrandAmount:    amount,
		CreatorRate:    rule.CreatorRate,
		CreatorAmount:  creator,
		PlatformAmount: amount.Sub(creator),
	}
}

// percentageOfSalePolicy 上游只给出订单金额
type percentageOfSalePolicy struct{}

func (percentageOfSalePolicy) Name() string { return "percentage_of_sale" }

func (percentageOfSalePolicy) Compute(amount models.Money, rule *models.CommissionRule) CommissionSplit {
	brand := amount.Percent(rule.BrandRate)
	creator := amount.Percent(rule.CreatorRate)
	return CommissionSplit{
		BrandRate:      rule.BrandRate,
		BrandAmount:    brand,
		CreatorRate:    rule.CreatorRate,
		CreatorAmount:  creator,
		PlatformAmount: brand.Sub(creator),
	}
}

// platformPolicies 平台到计佣策略的固定映射，未列出的平台按订单金额比例计算
var platformPolicies = map[string]CommissionPolicy{
	constants.PlatformAdmitad: payoutGivenPolicy{},
}

// PolicyForPlatform 返回平台对应的计佣策略
func PolicyForPlatform(platform string) CommissionPolicy {
	if policy, ok := platformPolicies[NormalizeRuleKey(platform)]; ok {
		return policy
	}
	return percentageOfSalePolicy{}
}
