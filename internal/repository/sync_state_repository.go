package repository

import (
	"errors"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SyncStateRepository 拉取进度数据访问接口
type SyncStateRepository interface {
	GetByPlatform(platform string) (*models.SyncState, error)
	Save(platform string, lastSyncAt time.Time) error
}

// GormSyncStateRepository GORM 实现
type GormSyncStateRepository struct {
	db *gorm.DB
}

// NewSyncStateRepository 创建拉取进度仓库
func NewSyncStateRepository(db *gorm.DB) *GormSyncStateRepository {
	return &GormSyncStateRepository{db: db}
}

// GetByPlatform 查询平台拉取进度
func (r *GormSyncStateRepository) GetByPlatform(platform string) (*models.SyncState, error) {
	var state models.SyncState
	if err := r.db.Where("platform = ?", platform).First(&state).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

// Save 写入平台最近一次成功拉取时间
func (r *GormSyncStateRepository) Save(platform string, lastSyncAt time.Time) error {
	row := models.SyncState{
		Platform:   platform,
		LastSyncAt: lastSyncAt,
		UpdatedAt:  time.Now().UTC(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "platform"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_sync_at", "updated_at"}),
	}).Create(&row).Error
}
