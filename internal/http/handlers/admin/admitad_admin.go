package admin

import (
	"errors"

	handlershared "github.com/oneinfo/affiliate-backend/internal/http/handlers/shared"
	"github.com/oneinfo/affiliate-backend/internal/constants"
	"github.com/oneinfo/affiliate-backend/internal/http/response"
	"github.com/oneinfo/affiliate-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// SyncAdmitadRequest 手动同步请求
type SyncAdmitadRequest struct {
	DateStart string `json:"date_start"`
}

// ListAdmitadActions 查看上游 Admitad 动作（只读，不入库）
func (h *Handler) ListAdmitadActions(c *gin.Context) {
	dateStart, err := handlershared.ParseDateNullable(c.Query("date_start"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid date_start", err)
		return
	}
	actions, err := h.SyncService.ListActions(c.Request.Context(), dateStart)
	if err != nil {
		if errors.Is(err, service.ErrAdmitadDisabled) {
			respondError(c, response.CodeServiceUnavailable, err.Error(), nil)
			return
		}
		respondError(c, response.CodeInternal, "admitad fetch failed", err)
		return
	}
	response.Success(c, actions)
}

// SyncAdmitad 手动触发 Admitad 订单同步
func (h *Handler) SyncAdmitad(c *gin.Context) {
	var req SyncAdmitadRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "invalid sync payload", err)
			return
		}
	}
	if req.DateStart == "" {
		req.DateStart = c.Query("date_start")
	}
	override, err := handlershared.ParseDateNullable(req.DateStart)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid date_start", err)
		return
	}

	result, err := h.SyncService.SyncAdmitad(c.Request.Context(), constants.OrderSourceManual, override)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSyncInProgress):
			respondError(c, response.CodeConflict, err.Error(), nil)
		case errors.Is(err, service.ErrAdmitadDisabled):
			respondError(c, response.CodeServiceUnavailable, err.Error(), nil)
		case errors.Is(err, service.ErrQueueUnavailable):
			response.ErrorWithData(c, response.CodeServiceUnavailable, "order queue unavailable", gin.H{"result": result})
		default:
			respondError(c, response.CodeInternal, "admitad sync failed", err)
		}
		return
	}
	response.Success(c, result)
}
