package models

import "time"

// CreatorStats 达人汇总计数（仅通过增量更新）
type CreatorStats struct {
	ID                 uint      `gorm:"primarykey" json:"id"`
	CreatorID          string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"creator_id"`
	LifetimeRevenue    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"lifetime_revenue"`
	LifetimeCommission Money     `gorm:"type:decimal(20,2);not null;default:0" json:"lifetime_commission"`
	PendingCommission  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"pending_commission"`
	ApprovedCommission Money     `gorm:"type:decimal(20,2);not null;default:0" json:"approved_commission"`
	DeclinedCommission Money     `gorm:"type:decimal(20,2);not null;default:0" json:"declined_commission"`
	PaidCommission     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"paid_commission"`
	PlatformProfit     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"platform_profit"`
	LifetimeOrders     int64     `gorm:"not null;default:0" json:"lifetime_orders"`
	TotalClicks        int64     `gorm:"not null;default:0" json:"total_clicks"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName 指定表名
func (CreatorStats) TableName() string {
	return "creator_stats"
}
