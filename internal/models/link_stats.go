package models

import "time"

// LinkStats 短链点击汇总
type LinkStats struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	ShortCode   string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"short_code"`
	CreatorID   string    `gorm:"type:varchar(64);index" json:"creator_id"`
	TotalClicks int64     `gorm:"not null;default:0" json:"total_clicks"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (LinkStats) TableName() string {
	return "link_stats"
}
