package public

import (
	"errors"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/constants"
	"github.com/oneinfo/affiliate-backend/internal/http/response"
	"github.com/oneinfo/affiliate-backend/internal/models"
	"github.com/oneinfo/affiliate-backend/internal/queue"
	"github.com/oneinfo/affiliate-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// PushOrderRequest 订单直推请求
type PushOrderRequest struct {
	OrderID         string        `json:"order_id" binding:"required"`
	Platform        string        `json:"platform" binding:"required"`
	Category        string        `json:"category" binding:"required"`
	OrderValue      models.Money  `json:"order_value"`
	RawAmount       *models.Money `json:"raw_amount"`
	CreatorID       string        `json:"creator_id"`
	ShortCode       string        `json:"short_code"`
	SubID           string        `json:"sub_id"`
	Status          string        `json:"status"`
	ProductName     string        `json:"product_name"`
	CustomerType    string        `json:"customer_type"`
	TransactionDate *time.Time    `json:"transaction_date"`
}

// PushOrder 外部系统直推订单，校验后异步入库
func (h *Handler) PushOrder(c *gin.Context) {
	var req PushOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid order payload", err)
		return
	}
	shortCode := req.ShortCode
	if shortCode == "" {
		shortCode = req.SubID
	}

	err := h.OrderService.SubmitOrder(c.Request.Context(), queue.CreateOrderPayload{
		OrderID:         req.OrderID,
		Platform:        req.Platform,
		Category:        req.Category,
		OrderValue:      req.OrderValue,
		RawAmount:       req.RawAmount,
		CreatorID:       req.CreatorID,
		ShortCode:       shortCode,
		Status:          req.Status,
		ProductName:     req.ProductName,
		CustomerType:    req.CustomerType,
		TransactionDate: req.TransactionDate,
		Source:          constants.OrderSourceAPI,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderInputInvalid), errors.Is(err, service.ErrInvalidOrderStatus):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		case errors.Is(err, service.ErrQueueUnavailable):
			respondError(c, response.CodeServiceUnavailable, "order queue unavailable", err)
		default:
			respondError(c, response.CodeInternal, "order submit failed", err)
		}
		return
	}
	response.SuccessWithMsg(c, "order queued", gin.H{"order_id": req.OrderID})
}
