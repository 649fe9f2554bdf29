package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/config"
	"github.com/oneinfo/affiliate-backend/internal/models"
	"github.com/oneinfo/affiliate-backend/internal/provider"
	"github.com/oneinfo/affiliate-backend/internal/queue"
	"github.com/oneinfo/affiliate-backend/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupConsumer(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:affiliate_worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	container := provider.NewContainerWithDB(&config.Config{}, db)

	if _, err := container.CommissionRuleService.Create(service.CommissionRuleInput{
		Platform:    "admitad",
		Category:    "fashion",
		BrandRate:   models.NewMoneyFromFloat(100),
		CreatorRate: models.NewMoneyFromFloat(70),
	}); err != nil {
		t.Fatalf("seed rule failed: %v", err)
	}
	if err := container.LinkRepo.Create(&models.AffiliateLink{
		ShortCode:    "WRK001",
		CreatorID:    "creator-1",
		OriginalURL:  "https://www.myntra.com/p/1",
		AffiliateURL: "https://ad.admitad.com/g/abc?subid=WRK001",
		Platform:     "admitad",
		IsActive:     true,
	}); err != nil {
		t.Fatalf("seed link failed: %v", err)
	}
	return NewConsumer(container), db
}

func newOrderTask(t *testing.T, payload queue.CreateOrderPayload) *asynq.Task {
	t.Helper()
	task, err := queue.NewCreateOrderTask(payload)
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	return task
}

func TestHandleCreateOrderAggregatesStats(t *testing.T) {
	consumer, _ := setupConsumer(t)
	task := newOrderTask(t, queue.CreateOrderPayload{
		OrderID:    "ADM-1",
		Platform:   "admitad",
		Category:   "fashion",
		OrderValue: models.NewMoneyFromFloat(100),
		ShortCode:  "WRK001",
		Status:     "pending",
	})

	if err := consumer.handleCreateOrder(t.Context(), task); err != nil {
		t.Fatalf("handle create order failed: %v", err)
	}
	// 重复投递不应重复计数
	if err := consumer.handleCreateOrder(t.Context(), task); err != nil {
		t.Fatalf("replay create order failed: %v", err)
	}

	stats, err := consumer.CreatorStatsService.GetByCreatorID("creator-1")
	if err != nil || stats == nil {
		t.Fatalf("load stats failed: %v", err)
	}
	if stats.LifetimeOrders != 1 {
		t.Fatalf("expected 1 lifetime order, got %d", stats.LifetimeOrders)
	}
	if got := stats.PendingCommission.String(); got != "70.00" {
		t.Fatalf("unexpected pending commission: %s", got)
	}
}

func TestHandleCreateOrderSkipsRetryOnBadInput(t *testing.T) {
	consumer, _ := setupConsumer(t)

	broken := asynq.NewTask(queue.TaskCreateOrder, []byte("{not-json"))
	if err := consumer.handleCreateOrder(t.Context(), broken); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for broken payload, got %v", err)
	}

	badStatus := newOrderTask(t, queue.CreateOrderPayload{
		OrderID:    "ADM-2",
		Platform:   "admitad",
		Category:   "fashion",
		OrderValue: models.NewMoneyFromFloat(100),
		ShortCode:  "WRK001",
		Status:     "refunded",
	})
	if err := consumer.handleCreateOrder(t.Context(), badStatus); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for invalid status, got %v", err)
	}
}

func TestHandleCreateOrderRetriesWhenRuleMissing(t *testing.T) {
	consumer, _ := setupConsumer(t)
	task := newOrderTask(t, queue.CreateOrderPayload{
		OrderID:    "ADM-3",
		Platform:   "admitad",
		Category:   "electronics",
		OrderValue: models.NewMoneyFromFloat(100),
		ShortCode:  "WRK001",
	})
	err := consumer.handleCreateOrder(t.Context(), task)
	if err == nil || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

func TestHandleCreateOrderDropsUnknownShortCode(t *testing.T) {
	consumer, db := setupConsumer(t)
	task := newOrderTask(t, queue.CreateOrderPayload{
		OrderID:    "ADM-4",
		Platform:   "admitad",
		Category:   "fashion",
		OrderValue: models.NewMoneyFromFloat(100),
		ShortCode:  "NOPE01",
	})
	if err := consumer.handleCreateOrder(t.Context(), task); err != nil {
		t.Fatalf("expected drop without error, got %v", err)
	}
	var count int64
	db.Model(&models.Order{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no order written, got %d", count)
	}
}

func TestHandleGeneratePayoutRejectsBadPeriod(t *testing.T) {
	consumer, _ := setupConsumer(t)
	body, _ := json.Marshal(queue.GeneratePayoutPayload{
		CreatorID:   "creator-1",
		PeriodStart: "2026-03-31",
		PeriodEnd:   "2026-03-01",
	})
	err := consumer.handleGeneratePayout(t.Context(), asynq.NewTask(queue.TaskGeneratePayout, body))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestMetricsMiddlewareCountsSuccess(t *testing.T) {
	consumer, _ := setupConsumer(t)
	handler := consumer.metricsMiddleware(asynq.HandlerFunc(func(context.Context, *asynq.Task) error {
		return nil
	}))
	failing := consumer.metricsMiddleware(asynq.HandlerFunc(func(context.Context, *asynq.Task) error {
		return errors.New("boom")
	}))
	task := asynq.NewTask(queue.TaskCreateOrder, nil)
	_ = handler.ProcessTask(t.Context(), task)
	_ = handler.ProcessTask(t.Context(), task)
	_ = failing.ProcessTask(t.Context(), task)

	metrics, err := consumer.JobService.ListMetrics()
	if err != nil {
		t.Fatalf("list metrics failed: %v", err)
	}
	if len(metrics) != 1 || metrics[0].ProcessedCount != 2 {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
}

func TestErrorHandlerRecordsFinalFailure(t *testing.T) {
	consumer, _ := setupConsumer(t)
	task := asynq.NewTask(queue.TaskCreateOrder, []byte(`{"order_id":"X"}`))
	consumer.ErrorHandler().HandleError(t.Context(), task, fmt.Errorf("bad: %w", asynq.SkipRetry))

	failures, err := consumer.JobService.ListFailures(10)
	if err != nil {
		t.Fatalf("list failures failed: %v", err)
	}
	if len(failures) != 1 || failures[0].TaskType != queue.TaskCreateOrder {
		t.Fatalf("unexpected failures: %+v", failures)
	}
}

func TestIsFinalFailure(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		retried  int
		maxRetry int
		want     bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "retrying", err: errors.New("x"), retried: 1, maxRetry: 5, want: false},
		{name: "exhausted", err: errors.New("x"), retried: 5, maxRetry: 5, want: true},
		{name: "skip", err: fmt.Errorf("x: %w", asynq.SkipRetry), retried: 0, maxRetry: 5, want: true},
	}
	for _, tc := range cases {
		if got := isFinalFailure(tc.err, tc.retried, tc.maxRetry); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
