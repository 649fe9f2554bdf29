package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 可增量更新的佣金桶字段
const (
	BucketPendingCommission  = "pending_commission"
	BucketApprovedCommission = "approved_commission"
	BucketDeclinedCommission = "declined_commission"
	BucketPaidCommission     = "paid_commission"
)

// CreatorStatsDelta 达人汇总的一次带符号增量
type CreatorStatsDelta struct {
	LifetimeRevenue    models.Money
	LifetimeCommission models.Money
	PlatformProfit     models.Money
	LifetimeOrders     int64
	TotalClicks        int64
	Buckets            map[string]models.Money
}

// IsZero 判断增量是否为空
func (d CreatorStatsDelta) IsZero() bool {
	if !d.LifetimeRevenue.IsZero() || !d.LifetimeCommission.IsZero() || !d.PlatformProfit.IsZero() {
		return false
	}
	if d.LifetimeOrders != 0 || d.TotalClicks != 0 {
		return false
	}
	for _, amount := range d.Buckets {
		if !amount.IsZero() {
			return false
		}
	}
	return true
}

// CreatorStatsRepository 达人汇总数据访问接口
type CreatorStatsRepository interface {
	WithTx(tx *gorm.DB) CreatorStatsRepository
	ApplyDelta(creatorID string, delta CreatorStatsDelta) error
	GetByCreatorID(creatorID string) (*models.CreatorStats, error)
	ListTop(limit int) ([]models.CreatorStats, error)
}

// GormCreatorStatsRepository GORM 实现
type GormCreatorStatsRepository struct {
	db *gorm.DB
}

// NewCreatorStatsRepository 创建达人汇总仓库
func NewCreatorStatsRepository(db *gorm.DB) *GormCreatorStatsRepository {
	return &GormCreatorStatsRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCreatorStatsRepository) WithTx(tx *gorm.DB) CreatorStatsRepository {
	if tx == nil {
		return r
	}
	return &GormCreatorStatsRepository{db: tx}
}

// ApplyDelta 以单条 upsert 语句原子地累加增量，不存在时创建
func (r *GormCreatorStatsRepository) ApplyDelta(creatorID string, delta CreatorStatsDelta) error {
	if creatorID == "" || delta.IsZero() {
		return nil
	}
	now := time.Now().UTC()
	row := models.CreatorStats{
		CreatorID:          creatorID,
		LifetimeRevenue:    delta.LifetimeRevenue,
		LifetimeCommission: delta.LifetimeCommission,
		PlatformProfit:     delta.PlatformProfit,
		LifetimeOrders:     delta.LifetimeOrders,
		TotalClicks:        delta.TotalClicks,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	updates := map[string]interface{}{"updated_at": now}
	addMoney := func(column string, amount models.Money) {
		if !amount.IsZero() {
			updates[column] = gorm.Expr("creator_stats."+column+" + ?", amount)
		}
	}
	addCount := func(column string, n int64) {
		if n != 0 {
			updates[column] = gorm.Expr("creator_stats."+column+" + ?", n)
		}
	}
	addMoney("lifetime_revenue", delta.LifetimeRevenue)
	addMoney("lifetime_commission", delta.LifetimeCommission)
	addMoney("platform_profit", delta.PlatformProfit)
	addCount("lifetime_orders", delta.LifetimeOrders)
	addCount("total_clicks", delta.TotalClicks)

	for column, amount := range delta.Buckets {
		if err := assignBucket(&row, column, amount); err != nil {
			return err
		}
		addMoney(column, amount)
	}

	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "creator_id"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(&row).Error
}

func assignBucket(row *models.CreatorStats, column string, amount models.Money) error {
	switch column {
	case BucketPendingCommission:
		row.PendingCommission = row.PendingCommission.Add(amount)
	case BucketApprovedCommission:
		row.ApprovedCommission = row.ApprovedCommission.Add(amount)
	case BucketDeclinedCommission:
		row.DeclinedCommission = row.DeclinedCommission.Add(amount)
	case BucketPaidCommission:
		row.PaidCommission = row.PaidCommission.Add(amount)
	default:
		return fmt.Errorf("unknown commission bucket: %s", column)
	}
	return nil
}

// GetByCreatorID 查询达人汇总
func (r *GormCreatorStatsRepository) GetByCreatorID(creatorID string) (*models.CreatorStats, error) {
	if creatorID == "" {
		return nil, nil
	}
	var stats models.CreatorStats
	if err := r.db.Where("creator_id = ?", creatorID).First(&stats).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &stats, nil
}

// ListTop 按累计收入倒序查询达人
func (r *GormCreatorStatsRepository) ListTop(limit int) ([]models.CreatorStats, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []models.CreatorStats
	if err := r.db.Order("lifetime_revenue desc, id asc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
