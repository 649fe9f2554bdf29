package models

import "time"

// ClickEvent 点击日志（只追加）
type ClickEvent struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                                             // 主键
	ShortCode   string    `gorm:"type:varchar(64);not null;index:idx_click_code_time,priority:1" json:"short_code"` // 短码
	CreatorID   string    `gorm:"type:varchar(64);index" json:"creator_id"`                                         // 达人ID
	IPAddress   string    `gorm:"type:varchar(64);index:idx_click_ip_time,priority:1" json:"ip_address"`            // 客户端IP
	UserAgent   string    `gorm:"type:varchar(1024)" json:"user_agent"`                                             // 客户端UA
	Referrer    string    `gorm:"type:varchar(1024)" json:"referrer"`                                               // 来源地址
	IsFraud     bool      `gorm:"not null;default:false;index" json:"is_fraud"`                                     // 是否判定作弊
	FraudReason string    `gorm:"type:varchar(64)" json:"fraud_reason,omitempty"`                                   // 作弊原因
	CreatedAt   time.Time `gorm:"not null;index:idx_click_code_time,priority:2;index:idx_click_ip_time,priority:2" json:"created_at"`
}

// TableName 指定表名
func (ClickEvent) TableName() string {
	return "click_events"
}
