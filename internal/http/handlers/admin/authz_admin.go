package admin

import (
	"errors"

	"github.com/oneinfo/affiliate-backend/internal/authz"
	handlershared "github.com/oneinfo/affiliate-backend/internal/http/handlers/shared"
	"github.com/oneinfo/affiliate-backend/internal/http/response"
	"github.com/oneinfo/affiliate-backend/internal/repository"
	"github.com/oneinfo/affiliate-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthzPolicyRequest 授权策略请求
type AuthzPolicyRequest struct {
	Role   string `json:"role" binding:"required"`
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// GetAuthzMe 当前令牌角色的生效策略
func (h *Handler) GetAuthzMe(c *gin.Context) {
	role, ok := handlershared.GetContextString(c, handlershared.ContextRole)
	if !ok {
		return
	}
	policies, err := h.Authz.GetRolePolicies(role)
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	response.Success(c, gin.H{
		"admin_id": currentAdminID(c),
		"role":     role,
		"policies": policies,
	})
}

// ListAuthzRoles 角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.Authz.ListRoles()
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	response.Success(c, roles)
}

// GetAuthzRolePolicies 角色策略
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	policies, err := h.Authz.GetRolePolicies(c.Param("role"))
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	response.Success(c, policies)
}

// DeleteAuthzRole 删除自定义角色
func (h *Handler) DeleteAuthzRole(c *gin.Context) {
	role := c.Param("role")
	if err := h.Authz.DeleteRole(role); err != nil {
		respondAuthzError(c, err)
		return
	}
	requestLog(c).Infow("admin_authz_role_deleted", "role", role, "admin_id", currentAdminID(c))
	h.recordAuthzAudit(c, service.AuthzAuditActionRoleDelete, role, "", "")
	response.Success(c, gin.H{"deleted": true})
}

// GrantAuthzPolicy 授予角色策略
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	var req AuthzPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid policy payload", err)
		return
	}
	if err := h.Authz.GrantRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondAuthzError(c, err)
		return
	}
	requestLog(c).Infow("admin_authz_policy_granted",
		"role", req.Role,
		"object", authz.NormalizeObject(req.Object),
		"action", authz.NormalizeAction(req.Action),
		"admin_id", currentAdminID(c),
	)
	h.recordAuthzAudit(c, service.AuthzAuditActionGrant, req.Role, req.Object, req.Action)
	response.Success(c, gin.H{"granted": true})
}

// RevokeAuthzPolicy 撤销角色策略
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	var req AuthzPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid policy payload", err)
		return
	}
	if err := h.Authz.RevokeRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondAuthzError(c, err)
		return
	}
	requestLog(c).Infow("admin_authz_policy_revoked",
		"role", req.Role,
		"object", authz.NormalizeObject(req.Object),
		"action", authz.NormalizeAction(req.Action),
		"admin_id", currentAdminID(c),
	)
	h.recordAuthzAudit(c, service.AuthzAuditActionRevoke, req.Role, req.Object, req.Action)
	response.Success(c, gin.H{"revoked": true})
}

// ListAuthzAuditLogs 权限变更审计日志
func (h *Handler) ListAuthzAuditLogs(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	createdFrom, err := handlershared.ParseDateNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid created_from", err)
		return
	}
	createdTo, err := handlershared.ParseDateNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid created_to", err)
		return
	}
	filter := repository.AuthzAuditLogListFilter{
		Page:            page,
		PageSize:        pageSize,
		OperatorAdminID: c.Query("operator_admin_id"),
		Action:          c.Query("action"),
		CreatedFrom:     createdFrom,
		CreatedTo:       createdTo,
	}
	if role := c.Query("role"); role != "" {
		if normalized, err := authz.NormalizeRole(role); err == nil {
			filter.Role = normalized
		}
	}
	logs, total, err := h.AuthzAuditService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "audit log fetch failed", err)
		return
	}
	response.SuccessWithPage(c, logs, handlershared.BuildPagination(page, pageSize, total))
}

// 审计写入失败只记日志，不影响已生效的策略变更
func (h *Handler) recordAuthzAudit(c *gin.Context, action, role, object, method string) {
	normalizedRole, err := authz.NormalizeRole(role)
	if err != nil {
		normalizedRole = role
	}
	if object != "" {
		object = authz.NormalizeObject(object)
	}
	if err := h.AuthzAuditService.Record(service.AuthzAuditRecordInput{
		OperatorAdminID: currentAdminID(c),
		OperatorRole:    c.GetString(handlershared.ContextRole),
		Action:          action,
		Role:            normalizedRole,
		Object:          object,
		Method:          method,
		RequestID:       response.RequestID(c),
	}); err != nil {
		requestLog(c).Warnw("admin_authz_audit_record_failed", "action", action, "role", normalizedRole, "error", err)
	}
}

func respondAuthzError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, authz.ErrRoleRequired), errors.Is(err, authz.ErrActionRequired), errors.Is(err, authz.ErrRoleReserved):
		respondError(c, response.CodeBadRequest, err.Error(), nil)
	case errors.Is(err, authz.ErrRoleImmutable):
		respondError(c, response.CodeConflict, err.Error(), nil)
	case errors.Is(err, authz.ErrServiceUnavailable):
		respondError(c, response.CodeServiceUnavailable, err.Error(), nil)
	default:
		respondError(c, response.CodeInternal, "authz operation failed", err)
	}
}
