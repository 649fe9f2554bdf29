package admin

import (
	"errors"
	"strings"

	handlershared "github.com/oneinfo/affiliate-backend/internal/http/handlers/shared"
	"github.com/oneinfo/affiliate-backend/internal/http/response"
	"github.com/oneinfo/affiliate-backend/internal/repository"
	"github.com/oneinfo/affiliate-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// GeneratePayoutRequest 结算单生成请求（ISO 日期）
type GeneratePayoutRequest struct {
	CreatorID   string `json:"creator_id" binding:"required"`
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
}

// ListPayouts 结算单列表
func (h *Handler) ListPayouts(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	payouts, total, err := h.PayoutService.List(repository.PayoutListFilter{
		Page:      page,
		PageSize:  pageSize,
		CreatorID: strings.TrimSpace(c.Query("creator_id")),
		Status:    strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "payout fetch failed", err)
		return
	}
	response.SuccessWithPage(c, payouts, handlershared.BuildPagination(page, pageSize, total))
}

// GeneratePayout 投递结算单生成任务
func (h *Handler) GeneratePayout(c *gin.Context) {
	var req GeneratePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid payout payload", err)
		return
	}
	if err := h.PayoutService.RequestPayout(req.CreatorID, req.PeriodStart, req.PeriodEnd); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrPayoutPeriodInvalid):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		case errors.Is(err, service.ErrQueueUnavailable):
			respondError(c, response.CodeServiceUnavailable, "payout queue unavailable", err)
		default:
			respondError(c, response.CodeInternal, "payout request failed", err)
		}
		return
	}
	response.SuccessWithMsg(c, "payout queued", gin.H{"creator_id": strings.TrimSpace(req.CreatorID)})
}

// MarkPayoutPaid 标记结算单已支付
func (h *Handler) MarkPayoutPaid(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	payout, err := h.PayoutService.MarkPaid(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPayoutNotFound):
			respondError(c, response.CodeNotFound, err.Error(), nil)
		case errors.Is(err, service.ErrPayoutAlreadyPaid):
			respondError(c, response.CodeConflict, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "payout update failed", err)
		}
		return
	}
	requestLog(c).Infow("admin_payout_marked_paid", "payout_id", payout.ID, "creator_id", payout.CreatorID, "admin_id", currentAdminID(c))
	response.Success(c, payout)
}
