package models

import "time"

// Order 联盟订单（每个外部订单号仅一条）
type Order struct {
	ID                       uint       `gorm:"primarykey" json:"id"`                                         // 主键
	OrderID                  string     `gorm:"type:varchar(128);not null;uniqueIndex" json:"order_id"`       // 外部订单号
	ShortCode                string     `gorm:"type:varchar(64);index" json:"short_code"`                     // 推广短码
	CreatorID                string     `gorm:"type:varchar(64);not null;index" json:"creator_id"`            // 达人ID
	ProductName              string     `gorm:"type:varchar(255)" json:"product_name"`                        // 商品名称
	Category                 string     `gorm:"type:varchar(64);not null;index" json:"category"`              // 品类
	Platform                 string     `gorm:"type:varchar(32);not null;index" json:"platform"`              // 上游平台
	OrderValue               Money      `gorm:"type:decimal(20,2);not null;default:0" json:"order_value"`     // 订单金额（购物车金额）
	CommissionBase           Money      `gorm:"type:decimal(20,2);not null;default:0" json:"commission_base"` // 计佣基数
	BrandCommissionRate      Money      `gorm:"type:decimal(10,2);not null;default:0" json:"brand_commission_rate"`
	BrandCommissionAmount    Money      `gorm:"type:decimal(20,2);not null;default:0" json:"brand_commission_amount"`
	CreatorCommissionRate    Money      `gorm:"type:decimal(10,2);not null;default:0" json:"creator_commission_rate"`
	CreatorCommissionAmount  Money      `gorm:"type:decimal(20,2);not null;default:0" json:"creator_commission_amount"`
	PlatformCommissionAmount Money      `gorm:"type:decimal(20,2);not null;default:0" json:"platform_commission_amount"`
	Status                   string     `gorm:"type:varchar(20);not null;index" json:"status"`   // 生命周期状态
	AggregatedStatus         string     `gorm:"type:varchar(20);not null;default:''" json:"-"`   // 已计入达人汇总的状态，空表示尚未计入
	CustomerType             string     `gorm:"type:varchar(20)" json:"customer_type,omitempty"` // 新老客
	TransactionDate          *time.Time `gorm:"index" json:"transaction_date,omitempty"`         // 成交时间
	CreatedAt                time.Time  `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt                time.Time  `gorm:"index" json:"updated_at"`                         // 更新时间
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
