package models

import "time"

// JobFailure 重试耗尽或不可重试的任务记录
type JobFailure struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	TaskID    string    `gorm:"type:varchar(64);index" json:"task_id"`
	TaskType  string    `gorm:"type:varchar(64);not null;index" json:"task_type"`
	Queue     string    `gorm:"type:varchar(32)" json:"queue"`
	Payload   string    `gorm:"type:text" json:"payload"`
	Error     string    `gorm:"type:text" json:"error"`
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (JobFailure) TableName() string {
	return "job_failures"
}

// JobMetric 按任务类型统计的处理计数
type JobMetric struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	TaskType       string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"task_type"`
	ProcessedCount int64     `gorm:"not null;default:0" json:"processed_count"`
	FailedCount    int64     `gorm:"not null;default:0" json:"failed_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName 指定表名
func (JobMetric) TableName() string {
	return "job_metrics"
}
