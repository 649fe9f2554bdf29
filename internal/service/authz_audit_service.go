package service

import (
	"strings"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/models"
	"github.com/oneinfo/affiliate-backend/internal/repository"
)

// 权限审计动作
const (
	AuthzAuditActionGrant      = "policy_grant"
	AuthzAuditActionRevoke     = "policy_revoke"
	AuthzAuditActionRoleDelete = "role_delete"
)

// AuthzAuditRecordInput 权限审计记录输入
type AuthzAuditRecordInput struct {
	OperatorAdminID string
	OperatorRole    string
	Action          string
	Role            string
	Object          string
	Method          string
	RequestID       string
}

// AuthzAuditService 权限审计服务
type AuthzAuditService struct {
	repo repository.AuthzAuditLogRepository
	now  func() time.Time
}

// NewAuthzAuditService 创建权限审计服务
func NewAuthzAuditService(repo repository.AuthzAuditLogRepository) *AuthzAuditService {
	return &AuthzAuditService{repo: repo, now: time.Now}
}

// Record 记录权限审计日志，缺少操作人或动作时忽略
func (s *AuthzAuditService) Record(input AuthzAuditRecordInput) error {
	if s == nil || s.repo == nil {
		return nil
	}
	operator := strings.TrimSpace(input.OperatorAdminID)
	action := strings.TrimSpace(input.Action)
	if operator == "" || action == "" {
		return nil
	}

	return s.repo.Create(&models.AuthzAuditLog{
		OperatorAdminID: operator,
		OperatorRole:    strings.TrimSpace(input.OperatorRole),
		Action:          action,
		Role:            strings.TrimSpace(input.Role),
		Object:          strings.TrimSpace(input.Object),
		Method:          strings.ToUpper(strings.TrimSpace(input.Method)),
		RequestID:       strings.TrimSpace(input.RequestID),
		CreatedAt:       s.now(),
	})
}

// List 管理端查询权限审计日志
func (s *AuthzAuditService) List(filter repository.AuthzAuditLogListFilter) ([]models.AuthzAuditLog, int64, error) {
	if s == nil || s.repo == nil {
		return []models.AuthzAuditLog{}, 0, nil
	}
	return s.repo.List(filter)
}
