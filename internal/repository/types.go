package repository

import (
	"time"

	"github.com/oneinfo/affiliate-backend/internal/models"
)

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	CreatorID   string
	Platform    string
	Status      string
	OrderID     string
	Keyword     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// LinkListFilter 查询推广链接列表的过滤条件
type LinkListFilter struct {
	Page      int
	PageSize  int
	CreatorID string
	Platform  string
	Keyword   string
	IsActive  *bool
}

// PayoutListFilter 查询结算单列表的过滤条件
type PayoutListFilter struct {
	Page      int
	PageSize  int
	CreatorID string
	Status    string
}

// StatusProfitRow 按状态汇总的平台利润
type StatusProfitRow struct {
	Status         string       `json:"status"`
	OrderCount     int64        `json:"order_count"`
	PlatformProfit models.Money `json:"platform_profit"`
	CreatorPayout  models.Money `json:"creator_commission"`
}

// SettlementTotals 结算周期内订单汇总
type SettlementTotals struct {
	TotalOrders     int64
	TotalRevenue    models.Money
	TotalCommission models.Money
}

// AuthzAuditLogListFilter 权限审计日志查询条件
type AuthzAuditLogListFilter struct {
	Page            int
	PageSize        int
	OperatorAdminID string
	Action          string
	Role            string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
}
