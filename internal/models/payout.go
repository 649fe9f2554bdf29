package models

import "time"

// Payout 达人结算单，(creator_id, period_start, period_end) 唯一
type Payout struct {
	ID              uint       `gorm:"primarykey" json:"id"`
	CreatorID       string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_payout_period" json:"creator_id"`
	PeriodStart     time.Time  `gorm:"not null;uniqueIndex:idx_payout_period" json:"period_start"`
	PeriodEnd       time.Time  `gorm:"not null;uniqueIndex:idx_payout_period" json:"period_end"`
	TotalOrders     int64      `gorm:"not null;default:0" json:"total_orders"`
	TotalRevenue    Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total_revenue"`
	TotalCommission Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total_commission"`
	Status          string     `gorm:"type:varchar(20);not null;index" json:"status"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (Payout) TableName() string {
	return "payouts"
}
