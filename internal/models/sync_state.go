package models

import "time"

// SyncState 上游平台拉取进度（每平台一行）
type SyncState struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Platform   string    `gorm:"type:varchar(32);not null;uniqueIndex" json:"platform"`
	LastSyncAt time.Time `gorm:"not null" json:"last_sync_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName 指定表名
func (SyncState) TableName() string {
	return "sync_states"
}
