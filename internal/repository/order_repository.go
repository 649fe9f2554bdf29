package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 联盟订单数据访问接口
type OrderRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) OrderRepository

	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByOrderID(orderID string) (*models.Order, error)
	ExistsByOrderID(orderID string) (bool, error)
	UpdateStatus(id uint, status string, updatedAt time.Time) error
	SwapAggregatedStatus(id uint, from, to string) (bool, error)
	ListUnaggregated(limit int) ([]models.Order, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)
	SumSettleable(creatorID string, statuses []string, from, to time.Time) (SettlementTotals, error)
	SumPlatformProfitByStatus() ([]StatusProfitRow, error)
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Transaction 执行事务
func (r *GormOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建订单
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderID 根据外部订单号获取订单
func (r *GormOrderRepository) GetByOrderID(orderID string) (*models.Order, error) {
	normalized := strings.TrimSpace(orderID)
	if normalized == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Where("order_id = ?", normalized).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ExistsByOrderID 判断外部订单号是否已入库
func (r *GormOrderRepository) ExistsByOrderID(orderID string) (bool, error) {
	var total int64
	if err := r.db.Model(&models.Order{}).Where("order_id = ?", strings.TrimSpace(orderID)).Count(&total).Error; err != nil {
		return false, err
	}
	return total > 0, nil
}

// UpdateStatus 更新订单状态
func (r *GormOrderRepository) UpdateStatus(id uint, status string, updatedAt time.Time) error {
	return r.db.Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": updatedAt,
		}).Error
}

// SwapAggregatedStatus 以比较交换方式推进已汇总状态，返回是否命中
func (r *GormOrderRepository) SwapAggregatedStatus(id uint, from, to string) (bool, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND aggregated_status = ?", id, from).
		UpdateColumn("aggregated_status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListUnaggregated 查询汇总状态落后于订单状态的订单
func (r *GormOrderRepository) ListUnaggregated(limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.Order
	if err := r.db.Where("aggregated_status <> status").
		Order("id asc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List 订单列表
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if creatorID := strings.TrimSpace(filter.CreatorID); creatorID != "" {
		query = query.Where("creator_id = ?", creatorID)
	}
	if platform := strings.TrimSpace(filter.Platform); platform != "" {
		query = query.Where("platform = ?", platform)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if orderID := strings.TrimSpace(filter.OrderID); orderID != "" {
		query = query.Where("order_id = ?", orderID)
	}
	query = applyKeyword(query, filter.Keyword, "order_id", "product_name", "short_code")
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var orders []models.Order
	if err := query.Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// SumSettleable 汇总达人在周期内可结算订单，区间为 [from, to)
func (r *GormOrderRepository) SumSettleable(creatorID string, statuses []string, from, to time.Time) (SettlementTotals, error) {
	var row struct {
		TotalOrders     int64
		TotalRevenue    models.Money
		TotalCommission models.Money
	}
	err := r.db.Model(&models.Order{}).
		Select("COUNT(*) AS total_orders, COALESCE(SUM(order_value), 0) AS total_revenue, COALESCE(SUM(creator_commission_amount), 0) AS total_commission").
		Where("creator_id = ? AND status IN ? AND created_at >= ? AND created_at < ?", creatorID, statuses, from, to).
		Scan(&row).Error
	if err != nil {
		return SettlementTotals{}, err
	}
	return SettlementTotals{
		TotalOrders:     row.TotalOrders,
		TotalRevenue:    row.TotalRevenue,
		TotalCommission: row.TotalCommission,
	}, nil
}

// SumPlatformProfitByStatus 按订单状态汇总平台利润
func (r *GormOrderRepository) SumPlatformProfitByStatus() ([]StatusProfitRow, error) {
	var rows []StatusProfitRow
	err := r.db.Model(&models.Order{}).
		Select("status, COUNT(*) AS order_count, COALESCE(SUM(platform_commission_amount), 0) AS platform_profit, COALESCE(SUM(creator_commission_amount), 0) AS creator_payout").
		Group("status").
		Order("status asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
