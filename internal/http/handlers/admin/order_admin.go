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

// UpdateOrderStatusRequest 订单状态更新请求
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListOrders 管理端订单列表
func (h *Handler) ListOrders(c *gin.Context) {
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

	orders, total, err := h.OrderService.List(repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		CreatorID:   strings.TrimSpace(c.Query("creator_id")),
		Platform:    strings.TrimSpace(c.Query("platform")),
		Status:      strings.TrimSpace(c.Query("status")),
		OrderID:     strings.TrimSpace(c.Query("order_id")),
		Keyword:     c.Query("keyword"),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidOrderStatus) {
			respondError(c, response.CodeBadRequest, err.Error(), nil)
			return
		}
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}
	response.SuccessWithPage(c, orders, handlershared.BuildPagination(page, pageSize, total))
}

// UpdateOrderStatus 管理端修改订单状态，汇总随之迁移
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid status payload", err)
		return
	}
	order, err := h.OrderService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrderStatus):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		default:
			respondError(c, response.CodeInternal, "order update failed", err)
		}
		return
	}
	requestLog(c).Infow("admin_order_status_changed", "order_id", order.OrderID, "status", order.Status, "admin_id", currentAdminID(c))
	response.Success(c, order)
}

// GetPlatformProfit 按订单状态汇总平台利润
func (h *Handler) GetPlatformProfit(c *gin.Context) {
	rows, err := h.OrderService.PlatformProfit()
	if err != nil {
		respondError(c, response.CodeInternal, "profit fetch failed", err)
		return
	}
	response.Success(c, rows)
}
