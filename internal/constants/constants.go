package constants

// 订单生命周期状态
const (
	OrderStatusPending  = "pending"
	OrderStatusApproved = "approved"
	OrderStatusDeclined = "declined"
	OrderStatusPaid     = "paid"
)

// 结算单状态
const (
	PayoutStatusPending = "pending"
	PayoutStatusPaid    = "paid"
)

// 上游平台标识
const (
	PlatformAdmitad  = "admitad"
	PlatformFlipkart = "flipkart"
	PlatformMeesho   = "meesho"
	PlatformManual   = "manual"
)

// 点击反作弊原因
const (
	FraudReasonIPBurst        = "ip_burst"
	FraudReasonShortCodeBurst = "short_code_burst"
)

// 订单客户类型
const (
	CustomerTypeNew       = "new"
	CustomerTypeReturning = "returning"
)

// 队列名称
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 令牌角色
const (
	RoleAdmin   = "admin"
	RoleCreator = "creator"
)

// IsValidOrderStatus 判断订单状态是否合法
func IsValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusApproved, OrderStatusDeclined, OrderStatusPaid:
		return true
	default:
		return false
	}
}

// 异步任务类型
const (
	TaskCreateOrder    = "order:create"
	TaskGeneratePayout = "payout:generate"
)

// 订单来源（用于日志与排查）
const (
	OrderSourceCron   = "cron"
	OrderSourceManual = "manual_sync"
	OrderSourceReport = "report"
	OrderSourceAPI    = "api"
)
