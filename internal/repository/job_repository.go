package repository

import (
	"time"

	"github.com/oneinfo/affiliate-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobRepository 任务失败记录与计数数据访问接口
type JobRepository interface {
	CreateFailure(failure *models.JobFailure) error
	ListFailures(limit int) ([]models.JobFailure, error)
	IncrementMetric(taskType string, processed, failed int64) error
	ListMetrics() ([]models.JobMetric, error)
}

// GormJobRepository GORM 实现
type GormJobRepository struct {
	db *gorm.DB
}

// NewJobRepository 创建任务记录仓库
func NewJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

// CreateFailure 写入失败记录
func (r *GormJobRepository) CreateFailure(failure *models.JobFailure) error {
	return r.db.Create(failure).Error
}

// ListFailures 最近的失败记录
func (r *GormJobRepository) ListFailures(limit int) ([]models.JobFailure, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.JobFailure
	if err := r.db.Order("created_at desc, id desc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// IncrementMetric 累加任务计数，不存在时创建
func (r *GormJobRepository) IncrementMetric(taskType string, processed, failed int64) error {
	if taskType == "" || (processed == 0 && failed == 0) {
		return nil
	}
	now := time.Now().UTC()
	row := models.JobMetric{
		TaskType:       taskType,
		ProcessedCount: processed,
		FailedCount:    failed,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "task_type"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"processed_count": gorm.Expr("job_metrics.processed_count + ?", processed),
			"failed_count":    gorm.Expr("job_metrics.failed_count + ?", failed),
			"updated_at":      now,
		}),
	}).Create(&row).Error
}

// ListMetrics 全部任务计数
func (r *GormJobRepository) ListMetrics() ([]models.JobMetric, error) {
	var rows []models.JobMetric
	if err := r.db.Order("task_type asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
