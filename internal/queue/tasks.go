package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/constants"
	"github.com/oneinfo/affiliate-backend/internal/models"

	"github.com/hibiken/asynq"
)

const (
	// TaskCreateOrder 订单入库任务
	TaskCreateOrder = constants.TaskCreateOrder
	// TaskGeneratePayout 结算单生成任务
	TaskGeneratePayout = constants.TaskGeneratePayout
)

// CreateOrderPayload 订单入库任务载荷，各接入方需先转换为该结构
type CreateOrderPayload struct {
	OrderID         string        `json:"order_id"`
	Platform        string        `json:"platform"`
	Category        string        `json:"category"`
	OrderValue      models.Money  `json:"order_value"`
	RawAmount       *models.Money `json:"raw_amount,omitempty"`
	CreatorID       string        `json:"creator_id,omitempty"`
	ShortCode       string        `json:"short_code,omitempty"`
	Status          string        `json:"status,omitempty"`
	ProductName     string        `json:"product_name,omitempty"`
	CustomerType    string        `json:"customer_type,omitempty"`
	TransactionDate *time.Time    `json:"transaction_date,omitempty"`
	Source          string        `json:"source,omitempty"`
}

// Validate 校验载荷必填字段
func (p CreateOrderPayload) Validate() error {
	if strings.TrimSpace(p.OrderID) == "" {
		return fmt.Errorf("order_id is required")
	}
	if strings.TrimSpace(p.Platform) == "" {
		return fmt.Errorf("platform is required")
	}
	if strings.TrimSpace(p.Category) == "" {
		return fmt.Errorf("category is required")
	}
	if p.OrderValue.IsNegative() {
		return fmt.Errorf("order_value must not be negative")
	}
	if strings.TrimSpace(p.CreatorID) == "" && strings.TrimSpace(p.ShortCode) == "" {
		return fmt.Errorf("creator_id or short_code is required")
	}
	return nil
}

// GeneratePayoutPayload 结算单生成任务载荷（ISO 日期）
type GeneratePayoutPayload struct {
	CreatorID   string `json:"creator_id"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

// NewCreateOrderTask 创建订单入库任务
func NewCreateOrderTask(payload CreateOrderPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCreateOrder, body), nil
}

// NewGeneratePayoutTask 创建结算单生成任务
func NewGeneratePayoutTask(payload GeneratePayoutPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGeneratePayout, body), nil
}

// ParseCreateOrderPayload 解析订单入库任务载荷
func ParseCreateOrderPayload(raw []byte) (CreateOrderPayload, error) {
	var payload CreateOrderPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, err
	}
	return payload, payload.Validate()
}

// ParseGeneratePayoutPayload 解析结算单生成任务载荷
func ParseGeneratePayoutPayload(raw []byte) (GeneratePayoutPayload, error) {
	var payload GeneratePayoutPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, err
	}
	if strings.TrimSpace(payload.CreatorID) == "" {
		return payload, fmt.Errorf("creator_id is required")
	}
	if strings.TrimSpace(payload.PeriodStart) == "" || strings.TrimSpace(payload.PeriodEnd) == "" {
		return payload, fmt.Errorf("period_start and period_end are required")
	}
	return payload, nil
}
