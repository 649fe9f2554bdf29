package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/oneinfo/affiliate-backend/internal/logger"
	"github.com/oneinfo/affiliate-backend/internal/models"
	"github.com/oneinfo/affiliate-backend/internal/provider"
	"github.com/oneinfo/affiliate-backend/internal/queue"
	"github.com/oneinfo/affiliate-backend/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.Use(c.metricsMiddleware)
	mux.HandleFunc(queue.TaskCreateOrder, c.handleCreateOrder)
	mux.HandleFunc(queue.TaskGeneratePayout, c.handleGeneratePayout)
}

// handleCreateOrder 返回 nil 表示完成或丢弃；返回普通错误触发重试；SkipRetry 直接归档
func (c *Consumer) handleCreateOrder(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_create_order_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseCreateOrderPayload(task.Payload())
	if err != nil {
		logger.Warnw("worker_create_order_payload_invalid", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	taskID, _ := asynq.GetTaskID(ctx)
	ctx = logger.WithFields(ctx, "task_id", taskID, "order_id", payload.OrderID, "source", payload.Source)
	log := logger.FromContext(ctx)

	result, err := c.OrderIngestService.IngestOrder(ctx, service.IngestOrderInput{
		OrderID:         payload.OrderID,
		Platform:        payload.Platform,
		Category:        payload.Category,
		OrderValue:      payload.OrderValue,
		RawAmount:       payload.RawAmount,
		CreatorID:       payload.CreatorID,
		ShortCode:       payload.ShortCode,
		Status:          payload.Status,
		ProductName:     payload.ProductName,
		CustomerType:    payload.CustomerType,
		TransactionDate: payload.TransactionDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrderStatus), errors.Is(err, service.ErrOrderInputInvalid):
			log.Warnw("worker_create_order_rejected", "error", err)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		case errors.Is(err, service.ErrCommissionRuleNotFound):
			log.Warnw("worker_create_order_rule_missing", "platform", payload.Platform, "category", payload.Category)
			return err
		default:
			log.Errorw("worker_create_order_failed", "error", err)
			return err
		}
	}
	if result == nil {
		log.Infow("worker_create_order_dropped", "short_code", payload.ShortCode)
		return nil
	}
	if err := c.CreatorStatsService.ApplyIngestResult(ctx, result); err != nil {
		// 订单已落库，重试时入库为幂等重放，汇总从标记处继续
		log.Errorw("worker_creator_stats_failed", "error", err)
		return err
	}
	log.Infow("worker_create_order_done",
		"is_new", result.IsNew,
		"previous_status", result.PreviousStatus,
		"status", result.Order.Status,
	)
	return nil
}

func (c *Consumer) handleGeneratePayout(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_generate_payout_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseGeneratePayoutPayload(task.Payload())
	if err != nil {
		logger.Warnw("worker_generate_payout_payload_invalid", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	period, err := service.ParsePayoutPeriod(payload.PeriodStart, payload.PeriodEnd)
	if err != nil {
		logger.Warnw("worker_generate_payout_period_invalid", "creator_id", payload.CreatorID, "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	taskID, _ := asynq.GetTaskID(ctx)
	ctx = logger.WithFields(ctx, "task_id", taskID)
	if _, err := c.PayoutService.GeneratePayout(ctx, payload.CreatorID, period); err != nil {
		logger.FromContext(ctx).Errorw("worker_generate_payout_failed", "creator_id", payload.CreatorID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) metricsMiddleware(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
		err := next.ProcessTask(ctx, task)
		if err == nil && c.JobService != nil {
			if recordErr := c.JobService.RecordProcessed(task.Type()); recordErr != nil {
				logger.Warnw("worker_job_metric_failed", "task_type", task.Type(), "error", recordErr)
			}
		}
		return err
	})
}

// ErrorHandler 重试耗尽或不可重试时写入失败记录
func (c *Consumer) ErrorHandler() asynq.ErrorHandler {
	return asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		if !isFinalFailure(err, retried, maxRetry) {
			return
		}
		taskID, _ := asynq.GetTaskID(ctx)
		queueName, _ := asynq.GetQueueName(ctx)
		logger.Errorw("worker_task_failed_permanently",
			"task_id", taskID,
			"task_type", task.Type(),
			"queue", queueName,
			"retried", retried,
			"error", err,
		)
		if c == nil || c.JobService == nil {
			return
		}
		if recordErr := c.JobService.RecordFailure(models.JobFailure{
			TaskID:   taskID,
			TaskType: task.Type(),
			Queue:    queueName,
			Payload:  string(task.Payload()),
			Error:    err.Error(),
			Attempts: retried + 1,
		}); recordErr != nil {
			logger.Warnw("worker_job_failure_record_failed", "task_id", taskID, "error", recordErr)
		}
	})
}

func isFinalFailure(err error, retried, maxRetry int) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, asynq.SkipRetry) || retried >= maxRetry
}
