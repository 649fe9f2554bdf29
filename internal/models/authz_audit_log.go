package models

import "time"

// AuthzAuditLog 权限策略审计日志
// 说明：记录管理端角色与策略的变更，按操作人、角色与时间范围检索。
type AuthzAuditLog struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	OperatorAdminID string    `gorm:"type:varchar(64);index;not null" json:"operator_admin_id"`
	OperatorRole    string    `gorm:"type:varchar(120);not null;default:''" json:"operator_role"`
	Action          string    `gorm:"type:varchar(100);index;not null" json:"action"`
	Role            string    `gorm:"type:varchar(120);index;not null;default:''" json:"role"`
	Object          string    `gorm:"type:varchar(255);index;not null;default:''" json:"object"`
	Method          string    `gorm:"type:varchar(20);not null;default:''" json:"method"`
	RequestID       string    `gorm:"type:varchar(64);index;not null;default:''" json:"request_id"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (AuthzAuditLog) TableName() string {
	return "authz_audit_logs"
}
