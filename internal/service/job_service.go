package service

import (
	"github.com/oneinfo/affiliate-backend/internal/models"
	"github.com/oneinfo/affiliate-backend/internal/repository"
)

const maxJobFailureLength = 4000

// JobService 任务失败记录与处理计数
type JobService struct {
	repo repository.JobRepository
}

// NewJobService 创建任务记录服务
func NewJobService(repo repository.JobRepository) *JobService {
	return &JobService{repo: repo}
}

// RecordFailure 记录永久失败的任务
func (s *JobService) RecordFailure(failure models.JobFailure) error {
	failure.Error = truncateString(failure.Error, maxJobFailureLength)
	failure.Payload = truncateString(failure.Payload, maxJobFailureLength)
	if err := s.repo.CreateFailure(&failure); err != nil {
		return err
	}
	return s.repo.IncrementMetric(failure.TaskType, 0, 1)
}

// RecordProcessed 记录成功处理的任务
func (s *JobService) RecordProcessed(taskType string) error {
	return s.repo.IncrementMetric(taskType, 1, 0)
}

// ListFailures 最近的失败任务
func (s *JobService) ListFailures(limit int) ([]models.JobFailure, error) {
	return s.repo.ListFailures(limit)
}

// ListMetrics 各任务类型计数
func (s *JobService) ListMetrics() ([]models.JobMetric, error) {
	return s.repo.ListMetrics()
}
