package models

import "time"

// CommissionRule 佣金规则，(platform, category) 唯一
type CommissionRule struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Platform    string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_commission_rule_key" json:"platform"`
	Category    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_commission_rule_key" json:"category"`
	BrandRate   Money     `gorm:"type:decimal(10,2);not null;default:0" json:"brand_rate"`   // 品牌方佣金比例（百分比）
	CreatorRate Money     `gorm:"type:decimal(10,2);not null;default:0" json:"creator_rate"` // 达人分成比例（百分比）
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (CommissionRule) TableName() string {
	return "commission_rules"
}
