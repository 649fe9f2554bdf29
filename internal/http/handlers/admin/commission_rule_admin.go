package admin

import (
	"errors"

	"github.com/oneinfo/affiliate-backend/internal/http/response"
	"github.com/oneinfo/affiliate-backend/internal/models"
	"github.com/oneinfo/affiliate-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// CommissionRuleRequest 佣金规则请求
type CommissionRuleRequest struct {
	Platform    string       `json:"platform" binding:"required"`
	Category    string       `json:"category" binding:"required"`
	BrandRate   models.Money `json:"brand_rate"`
	CreatorRate models.Money `json:"creator_rate"`
}

func (r CommissionRuleRequest) toInput() service.CommissionRuleInput {
	return service.CommissionRuleInput{
		Platform:    r.Platform,
		Category:    r.Category,
		BrandRate:   r.BrandRate,
		CreatorRate: r.CreatorRate,
	}
}

// ListCommissionRules 佣金规则列表
func (h *Handler) ListCommissionRules(c *gin.Context) {
	rules, err := h.CommissionRuleService.List()
	if err != nil {
		respondError(c, response.CodeInternal, "commission rule fetch failed", err)
		return
	}
	response.Success(c, rules)
}

// CreateCommissionRule 新建佣金规则
func (h *Handler) CreateCommissionRule(c *gin.Context) {
	var req CommissionRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid commission rule payload", err)
		return
	}
	rule, err := h.CommissionRuleService.Create(req.toInput())
	if err != nil {
		respondCommissionRuleError(c, err)
		return
	}
	response.Success(c, rule)
}

// UpdateCommissionRule 更新佣金规则
func (h *Handler) UpdateCommissionRule(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req CommissionRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid commission rule payload", err)
		return
	}
	rule, err := h.CommissionRuleService.Update(id, req.toInput())
	if err != nil {
		respondCommissionRuleError(c, err)
		return
	}
	response.Success(c, rule)
}

// DeleteCommissionRule 删除佣金规则
func (h *Handler) DeleteCommissionRule(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.CommissionRuleService.Delete(id); err != nil {
		respondCommissionRuleError(c, err)
		return
	}
	requestLog(c).Infow("admin_commission_rule_deleted", "rule_id", id, "admin_id", currentAdminID(c))
	response.Success(c, gin.H{"deleted": true})
}

func respondCommissionRuleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCommissionRateInvalid), errors.Is(err, service.ErrInvalidInput):
		respondError(c, response.CodeBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrCommissionRuleExists):
		respondError(c, response.CodeConflict, err.Error(), nil)
	case errors.Is(err, service.ErrCommissionRuleNotFound), errors.Is(err, service.ErrNotFound):
		respondError(c, response.CodeNotFound, "commission rule not found", nil)
	default:
		respondError(c, response.CodeInternal, "commission rule save failed", err)
	}
}
